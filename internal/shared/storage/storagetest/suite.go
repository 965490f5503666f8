// Package storagetest 提供 storage.PersistentStore 的通用契约测试
//
// 各驱动（memstore/repository/mongostore）在自己的 _test.go 中调用 Run，
// 保证不同存储引擎对上层表现出一致的语义。
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
)

// Factory 为每个子测试创建一个空的存储实例
type Factory func(t *testing.T) storage.PersistentStore

// Run 运行全部契约测试
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Books", func(t *testing.T) { testBooks(t, newStore(t)) })
	t.Run("Reservations", func(t *testing.T) { testReservations(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
}

// baseTime 毫秒精度，兼容 MongoDB 的时间精度
var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// NewUser 构造测试用户
func NewUser(id, email string, admin, approved bool) *model.User {
	return &model.User{
		ID:           id,
		Name:         "User " + id,
		Email:        email,
		PasswordHash: "hash-" + id,
		PhoneNumber:  "555-0100",
		IsAdmin:      admin,
		IsApproved:   approved,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
}

// NewBook 构造测试图书
func NewBook(id, title string) *model.Book {
	return &model.Book{ID: id, Title: title, Author: "Anon", CreatedAt: baseTime}
}

func testUsers(t *testing.T, s storage.PersistentStore) {
	ctx := context.Background()

	admin := NewUser("usr-admin", "admin@example.com", true, true)
	alice := NewUser("usr-alice", "alice@example.com", false, false)
	alice.CreatedAt = baseTime.Add(time.Minute)
	require.NoError(t, s.CreateUser(ctx, admin))
	require.NoError(t, s.CreateUser(ctx, alice))

	// 重复邮箱
	dup := NewUser("usr-dup", "alice@example.com", false, false)
	assert.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrDuplicate)

	got, err := s.GetUserByID(ctx, "usr-alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash-usr-alice", got.PasswordHash)
	assert.False(t, got.IsApproved)
	assert.False(t, got.IsAdmin)

	got, err = s.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-admin", got.ID)
	assert.True(t, got.IsAdmin)

	_, err = s.GetUserByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "usr-admin", admins[0].ID)

	all, err := s.ListUsers(ctx, storage.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := s.ListUsers(ctx, storage.UserFilter{PendingOnly: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "usr-alice", pending[0].ID)

	name := "Alice Liddell"
	updated, err := s.UpdateUserProfile(ctx, "usr-alice", model.UserProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, "555-0100", updated.PhoneNumber, "未提供的字段保持不变")

	approved, err := s.ApproveUser(ctx, "usr-alice")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	got, err = s.GetUserByID(ctx, "usr-alice")
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	_, err = s.ApproveUser(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UpdateUserProfile(ctx, "nonexistent", model.UserProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testBooks(t *testing.T, s storage.PersistentStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateBook(ctx, NewBook("book123", "Test Book")))
	require.NoError(t, s.CreateBook(ctx, NewBook("book456", "Another Book")))
	assert.ErrorIs(t, s.CreateBook(ctx, NewBook("book123", "Again")), storage.ErrDuplicate)

	got, err := s.GetBook(ctx, "book123")
	require.NoError(t, err)
	assert.Equal(t, "Test Book", got.Title)

	_, err = s.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 2)
}

func testReservations(t *testing.T, s storage.PersistentStore) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, NewUser("u1", "u1@example.com", false, true)))
	require.NoError(t, s.CreateUser(ctx, NewUser("u2", "u2@example.com", false, true)))
	require.NoError(t, s.CreateBook(ctx, NewBook("book123", "Test Book")))

	r1 := &model.Reservation{
		ID:        "rsv-1",
		UserID:    "u1",
		BookID:    "book123",
		StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC),
		Status:    model.ReservationStatusPending,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
	r2 := *r1
	r2.ID = "rsv-2"
	r2.UserID = "u2"
	r2.CreatedAt = baseTime.Add(time.Hour)
	require.NoError(t, s.CreateReservation(ctx, r1))
	require.NoError(t, s.CreateReservation(ctx, &r2))
	assert.ErrorIs(t, s.CreateReservation(ctx, r1), storage.ErrDuplicate)

	got, err := s.GetReservation(ctx, "rsv-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "book123", got.BookID)
	assert.Equal(t, model.ReservationStatusPending, got.Status)
	assert.True(t, got.StartDate.Equal(r1.StartDate), "StartDate = %v", got.StartDate)
	assert.True(t, got.EndDate.Equal(r1.EndDate), "EndDate = %v", got.EndDate)

	_, err = s.GetReservation(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	detail, err := s.GetReservationDetail(ctx, "rsv-1")
	require.NoError(t, err)
	require.NotNil(t, detail.User)
	require.NotNil(t, detail.Book)
	assert.Equal(t, "User u1", detail.User.Name)
	assert.Equal(t, "Test Book", detail.Book.Title)
	assert.Equal(t, "rsv-1", detail.ID)

	_, err = s.GetReservationDetail(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := s.ListReservationDetails(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, d := range all {
		assert.NotNil(t, d.User, "reservation %s user not resolved", d.ID)
		assert.NotNil(t, d.Book, "reservation %s book not resolved", d.ID)
	}

	mine, err := s.ListReservationDetails(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "rsv-2", mine[0].ID)

	updated, err := s.UpdateReservationStatus(ctx, "rsv-1", model.ReservationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusApproved, updated.Status)
	assert.Equal(t, "u1", updated.UserID)

	got, err = s.GetReservation(ctx, "rsv-1")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusApproved, got.Status)

	_, err = s.UpdateReservationStatus(ctx, "missing", model.ReservationStatusRejected)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testNotifications(t *testing.T, s storage.PersistentStore) {
	ctx := context.Background()

	for i, id := range []string{"ntf-1", "ntf-2", "ntf-3"} {
		n := &model.Notification{
			ID:        id,
			UserID:    "u1",
			Message:   "message " + id,
			Type:      model.NotificationTypeNewReservation,
			CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.CreateNotification(ctx, n))
	}
	require.NoError(t, s.CreateNotification(ctx, &model.Notification{
		ID: "ntf-other", UserID: "u2", Message: "x", Type: model.NotificationTypeNewUser, CreatedAt: baseTime,
	}))

	list, err := s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "ntf-3", list[0].ID, "newest first")
	assert.Equal(t, "ntf-2", list[1].ID)
	assert.Equal(t, "ntf-1", list[2].ID)
	assert.False(t, list[0].Read)

	empty, err := s.ListNotifications(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.MarkNotificationRead(ctx, "u1", "ntf-2"))
	list, err = s.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, list[1].Read)

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, "u2", "ntf-1"), storage.ErrNotFound, "其他用户的通知")
	assert.ErrorIs(t, s.MarkNotificationRead(ctx, "u1", "missing"), storage.ErrNotFound)
}
