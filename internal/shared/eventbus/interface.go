// Package eventbus 事件总线抽象接口
//
// 提供通知事件的发布/订阅能力，当前由 Redis Pub/Sub 实现；
// 未配置 Redis 时使用进程内的 MemoryEventBus。
package eventbus

import (
	"context"

	"library-admin/internal/shared/model"
)

// NotificationEventBus 通知事件总线接口
//
// 发布是尽力而为的：订阅者不在线时消息直接丢弃，持久化由 NotificationStore 负责。
type NotificationEventBus interface {
	PublishNotification(ctx context.Context, n *model.Notification) error
	// SubscribeNotifications 订阅指定用户的新通知，ctx 取消后 channel 关闭
	SubscribeNotifications(ctx context.Context, userID string) (<-chan *model.Notification, error)
	Close() error
}
