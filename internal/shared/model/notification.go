package model

import "time"

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeNewUser           NotificationType = "new_user"
	NotificationTypeNewReservation    NotificationType = "new_reservation"
	NotificationTypeReservationStatus NotificationType = "reservation_status"
	NotificationTypeAccountApproved   NotificationType = "account_approved"
)

// Notification 站内通知
//
// 创建后只有 Read 标记可变。
type Notification struct {
	ID        string           `json:"id" bson:"_id" db:"id"`
	UserID    string           `json:"user_id" bson:"user_id" db:"user_id"`
	Message   string           `json:"message" bson:"message" db:"message"`
	Type      NotificationType `json:"type" bson:"type" db:"type"`
	Read      bool             `json:"read" bson:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at" db:"created_at"`
}
