package model

import "time"

// User 用户
//
// 注册时创建（未审批、非管理员），由本人修改资料或由管理员审批。
type User struct {
	ID           string    `json:"id" bson:"_id" db:"id"`
	Name         string    `json:"name" bson:"name" db:"name"`
	Email        string    `json:"email" bson:"email" db:"email"`
	PasswordHash string    `json:"-" bson:"password_hash" db:"password_hash"` // never expose in JSON
	PhoneNumber  string    `json:"phone_number" bson:"phone_number" db:"phone_number"`
	IsApproved   bool      `json:"is_approved" bson:"is_approved" db:"is_approved"`
	IsAdmin      bool      `json:"is_admin" bson:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// Summary 返回对外展示的用户摘要
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
	}
}

// UserSummary 用户摘要（嵌入到已解析的预约中）
type UserSummary struct {
	ID          string `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	PhoneNumber string `json:"phone_number" bson:"phone_number"`
}

// UserProfileUpdate 用户可自行修改的资料字段，nil 表示不修改
type UserProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}
