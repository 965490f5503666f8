// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（默认）、repository/（PostgreSQL/SQLite）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
//
// 约定：
//   - Get* 查询不存在时返回 storage.ErrNotFound
//   - Create* 主键或唯一键冲突时返回 storage.ErrDuplicate
//   - 所有写操作都是单文档/单行原子操作，不使用跨实体事务
package storage

import (
	"context"

	"library-admin/internal/shared/model"
)

// UserStore 用户目录
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*model.User, error)
	// ListAdmins 返回所有 IsAdmin=true 的用户
	ListAdmins(ctx context.Context) ([]*model.User, error)
	// UpdateUserProfile 原子更新资料字段并返回更新后的用户
	UpdateUserProfile(ctx context.Context, id string, update model.UserProfileUpdate) (*model.User, error)
	// ApproveUser 原子设置 IsApproved=true 并返回更新后的用户
	ApproveUser(ctx context.Context, id string) (*model.User, error)
}

// UserFilter 用户列表过滤条件
type UserFilter struct {
	PendingOnly bool // 只返回未审批用户
}

// BookStore 图书目录（核心只读）
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context) ([]*model.Book, error)
}

// ReservationStore 预约存储
type ReservationStore interface {
	CreateReservation(ctx context.Context, r *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	// GetReservationDetail 返回已解析 user/book 引用的预约
	GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error)
	// ListReservationDetails 返回已解析的预约；userID 为空时返回全部
	ListReservationDetails(ctx context.Context, userID string) ([]*model.ReservationDetail, error)
	// UpdateReservationStatus 原子更新状态并返回更新后的预约
	// 不做 读取-修改-保存，避免并发下的丢失更新
	UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error)
}

// NotificationStore 通知存储
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	// ListNotifications 按创建时间倒序返回用户的通知
	ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error)
	// MarkNotificationRead 标记已读；通知不存在或不属于该用户时返回 ErrNotFound
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	UserStore
	BookStore
	ReservationStore
	NotificationStore

	Close() error
}
