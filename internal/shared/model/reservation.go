package model

import "time"

// ReservationStatus 预约状态
type ReservationStatus string

const (
	ReservationStatusPending  ReservationStatus = "pending"
	ReservationStatusApproved ReservationStatus = "approved"
	ReservationStatusRejected ReservationStatus = "rejected"
)

// IsTerminal 是否为终态
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusApproved || s == ReservationStatusRejected
}

// IsValidTransitionTarget 是否为合法的状态变更目标
// 只有 approved / rejected 可以作为目标状态
func (s ReservationStatus) IsValidTransitionTarget() bool {
	return s.IsTerminal()
}

// Reservation 预约（未解析形态：只持有 user/book 引用）
type Reservation struct {
	ID        string            `json:"id" bson:"_id" db:"id"`
	UserID    string            `json:"user_id" bson:"user_id" db:"user_id"`
	BookID    string            `json:"book_id" bson:"book_id" db:"book_id"`
	StartDate time.Time         `json:"start_date" bson:"start_date" db:"start_date"`
	EndDate   time.Time         `json:"end_date" bson:"end_date" db:"end_date"`
	Status    ReservationStatus `json:"status" bson:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// IsOwnedBy 是否属于指定用户
func (r *Reservation) IsOwnedBy(userID string) bool {
	return r != nil && userID != "" && r.UserID == userID
}

// ReservationDetail 预约（已解析形态：内嵌用户摘要与图书）
//
// 被引用的用户或图书已不存在时对应字段为 nil。
type ReservationDetail struct {
	Reservation `bson:",inline"`
	User        *UserSummary `json:"user" bson:"user,omitempty"`
	Book        *Book        `json:"book" bson:"book,omitempty"`
}
