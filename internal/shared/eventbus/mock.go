// Package eventbus 事件总线 mock 与进程内实现
package eventbus

import (
	"context"
	"sync"

	"library-admin/internal/shared/model"
)

// ============================================================================
// NoOpEventBus - 空操作的 EventBus 实现（用于测试）
// ============================================================================

// NoOpEventBus 是一个不做任何操作的 EventBus 实现
type NoOpEventBus struct{}

var _ NotificationEventBus = (*NoOpEventBus)(nil)

// NewNoOpEventBus 创建 NoOpEventBus 实例
func NewNoOpEventBus() *NoOpEventBus {
	return &NoOpEventBus{}
}

func (e *NoOpEventBus) Close() error {
	return nil
}

func (e *NoOpEventBus) PublishNotification(ctx context.Context, n *model.Notification) error {
	return nil
}

func (e *NoOpEventBus) SubscribeNotifications(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	ch := make(chan *model.Notification)
	close(ch)
	return ch, nil
}

// ============================================================================
// MemoryEventBus - 进程内实现（单实例部署 / 测试）
// ============================================================================

// MemoryEventBus 进程内通知总线
type MemoryEventBus struct {
	mu     sync.Mutex
	subs   map[string]map[chan *model.Notification]struct{}
	closed bool
}

var _ NotificationEventBus = (*MemoryEventBus)(nil)

// NewMemoryEventBus 创建进程内总线
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{subs: make(map[string]map[chan *model.Notification]struct{})}
}

func (b *MemoryEventBus) PublishNotification(ctx context.Context, n *model.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[n.UserID] {
		cp := *n
		select {
		case ch <- &cp:
		default:
			// 订阅者消费过慢，丢弃
		}
	}
	return nil
}

func (b *MemoryEventBus) SubscribeNotifications(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	ch := make(chan *model.Notification, SubscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, nil
	}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan *model.Notification]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.unsubscribe(userID, ch)
	}()

	return ch, nil
}

func (b *MemoryEventBus) unsubscribe(userID string, ch chan *model.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[userID][ch]; !ok {
		return
	}
	delete(b.subs[userID], ch)
	if len(b.subs[userID]) == 0 {
		delete(b.subs, userID)
	}
	close(ch)
}

// Close 关闭所有订阅
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for userID, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, userID)
	}
	return nil
}
