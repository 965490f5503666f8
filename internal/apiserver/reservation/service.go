// Package reservation 预约生命周期
//
// 状态机：pending → approved | rejected。
// 状态变更的管理员权限由路由层（auth.AdminOnly）保证，这里不重复检查；
// 已处于终态的预约可以再次变更，每次都会重新通知预约人。
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"library-admin/internal/apiserver/auth"
	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/pkg/logging"
)

// Store Service 依赖的存储接口
type Store interface {
	storage.ReservationStore
	GetBook(ctx context.Context, id string) (*model.Book, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Notifier 通知接口（由 notification.Dispatcher 实现）
type Notifier interface {
	CreateNotification(ctx context.Context, userID, message string, notificationType model.NotificationType)
	NotifyAdmins(ctx context.Context, message string, notificationType model.NotificationType)
}

// CreateInput 创建预约参数
type CreateInput struct {
	BookID    string
	StartDate time.Time
	EndDate   time.Time
}

// Service 预约业务
type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewService 创建预约服务
func NewService(store Store, notifier Notifier, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// SetMetrics 设置指标
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Create 创建 pending 预约并通知所有管理员
//
// 不检查同一图书的日期重叠。
func (s *Service) Create(ctx context.Context, requesterID string, in CreateInput) (*model.Reservation, error) {
	in.BookID = strings.TrimSpace(in.BookID)
	if in.BookID == "" {
		return nil, apperr.InvalidInput("book_id is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, apperr.InvalidInput("start_date and end_date are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, apperr.InvalidInput("end_date must not be before start_date")
	}

	book, err := s.store.GetBook(ctx, in.BookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("book not found")
		}
		return nil, apperr.Unexpected("get book", err)
	}

	requester, err := s.store.GetUserByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Unexpected("get user", err)
	}

	now := s.now().UTC()
	r := &model.Reservation{
		ID:        model.NewID(model.IDPrefixReservation),
		UserID:    requester.ID,
		BookID:    book.ID,
		StartDate: in.StartDate.UTC(),
		EndDate:   in.EndDate.UTC(),
		Status:    model.ReservationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReservation(ctx, r); err != nil {
		return nil, apperr.Unexpected("create reservation", err)
	}

	s.logger.WithContext(ctx).WithReservationID(r.ID).Info("reservation created", "book_id", book.ID)
	s.metrics.RecordReservationCreated()

	s.notifier.NotifyAdmins(ctx,
		fmt.Sprintf(`New reservation request from %s for "%s"`, requester.Name, book.Title),
		model.NotificationTypeNewReservation,
	)

	return r, nil
}

// UpdateStatus 原子地变更预约状态并通知预约人
func (s *Service) UpdateStatus(ctx context.Context, reservationID string, status model.ReservationStatus) (*model.Reservation, error) {
	if !status.IsValidTransitionTarget() {
		return nil, apperr.InvalidInput("status must be approved or rejected")
	}

	r, err := s.store.UpdateReservationStatus(ctx, reservationID, status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("reservation not found")
		}
		return nil, apperr.Unexpected("update reservation status", err)
	}

	logger := s.logger.WithContext(ctx).WithReservationID(r.ID)
	logger.Info("reservation status updated", "status", string(status))
	s.metrics.RecordStatusChange(string(status))

	s.notifier.CreateNotification(ctx, r.UserID,
		fmt.Sprintf(`Your reservation for "%s" has been %s`, s.bookTitle(ctx, logger, r.BookID), status),
		model.NotificationTypeReservationStatus,
	)

	return r, nil
}

// bookTitle 查询书名，图书已不存在时退回使用 ID
func (s *Service) bookTitle(ctx context.Context, logger *logging.Logger, bookID string) string {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		logger.Warn("book lookup failed, using id in notification", "book_id", bookID, "error", err.Error())
		return bookID
	}
	return book.Title
}

// Get 返回已解析的预约；仅本人或管理员可见
func (s *Service) Get(ctx context.Context, reservationID string, viewer auth.AuthUser) (*model.ReservationDetail, error) {
	d, err := s.store.GetReservationDetail(ctx, reservationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("reservation not found")
		}
		return nil, apperr.Unexpected("get reservation", err)
	}

	if !viewer.IsAdmin && !d.IsOwnedBy(viewer.ID) {
		return nil, apperr.Forbidden("access denied")
	}
	return d, nil
}

// List 返回全部预约（已解析），不按查看者过滤
func (s *Service) List(ctx context.Context) ([]*model.ReservationDetail, error) {
	return s.list(ctx, "")
}

// ListMine 返回指定用户的预约（已解析）
func (s *Service) ListMine(ctx context.Context, userID string) ([]*model.ReservationDetail, error) {
	return s.list(ctx, userID)
}

func (s *Service) list(ctx context.Context, userID string) ([]*model.ReservationDetail, error) {
	items, err := s.store.ListReservationDetails(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected("list reservations", err)
	}
	if items == nil {
		items = []*model.ReservationDetail{}
	}
	return items, nil
}
