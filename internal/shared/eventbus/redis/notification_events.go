// Package redis 基于 Redis Pub/Sub 的通知事件总线
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"library-admin/internal/shared/eventbus"
	"library-admin/internal/shared/model"
)

// Store Redis 通知事件总线
type Store struct {
	client *redis.Client
}

var _ eventbus.NotificationEventBus = (*Store)(nil)

// NewStoreFromClient 基于已建立的连接创建
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close 连接由 infra 层统一管理，这里不关闭
func (s *Store) Close() error {
	return nil
}

// PublishNotification 发布通知事件
func (s *Store) PublishNotification(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := s.client.Publish(ctx, eventbus.NotificationChannel(n.UserID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// SubscribeNotifications 订阅用户通知
func (s *Store) SubscribeNotifications(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	channel := eventbus.NotificationChannel(userID)
	pubsub := s.client.Subscribe(ctx, channel)

	// 等待订阅确认，确保之后发布的消息不会丢失
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe %s: %w", channel, err)
	}

	ch := make(chan *model.Notification, eventbus.SubscriberBuffer)
	go func() {
		defer close(ch)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var n model.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					log.Printf("[Redis/EventBus] Drop malformed notification on %s: %v", channel, err)
					continue
				}
				select {
				case ch <- &n:
				default:
					log.Printf("[Redis/EventBus] Subscriber buffer full, drop notification %s", n.ID)
				}
			}
		}
	}()

	return ch, nil
}
