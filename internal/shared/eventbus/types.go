// Package eventbus 事件总线类型定义
package eventbus

// ============================================================================
// Key 前缀和常量
// ============================================================================

const (
	// KeyNotifications 用户通知频道前缀，完整频道名为 notifications:{user_id}
	KeyNotifications = "notifications:"

	// SubscriberBuffer 每个订阅者的缓冲区大小，写满后丢弃新消息
	SubscriberBuffer = 64
)

// NotificationChannel 返回用户的通知频道名
func NotificationChannel(userID string) string {
	return KeyNotifications + userID
}
