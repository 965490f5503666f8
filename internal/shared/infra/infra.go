// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - Storage：持久化存储（MongoDB / PostgreSQL / SQLite）
//   - EventBus：通知事件总线（Redis Pub/Sub，未启用时为进程内实现）
package infra

import (
	"library-admin/internal/shared/eventbus"
	"library-admin/internal/shared/storage"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Storage 持久化存储
	Storage storage.PersistentStore

	// EventBus 通知事件总线
	EventBus eventbus.NotificationEventBus

	// redis 底层连接（可选）
	redis *RedisInfra
}

// New 组装基础设施；redis 为 nil 时使用进程内事件总线
func New(store storage.PersistentStore, redis *RedisInfra) *Infrastructure {
	infra := &Infrastructure{Storage: store, redis: redis}
	if redis != nil {
		infra.EventBus = redis.EventBus()
	} else {
		infra.EventBus = eventbus.NewMemoryEventBus()
	}
	return infra
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.EventBus != nil {
		if err := i.EventBus.Close(); err != nil {
			lastErr = err
		}
	}

	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Storage != nil {
		if err := i.Storage.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// NewNoOpInfrastructure 创建空操作的基础设施（用于测试）
func NewNoOpInfrastructure(store storage.PersistentStore) *Infrastructure {
	return &Infrastructure{
		Storage:  store,
		EventBus: eventbus.NewNoOpEventBus(),
	}
}
