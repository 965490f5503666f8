// Package notification 站内通知：写入、管理员广播、查询与实时推送
//
// 通知是尽力而为的：写入失败只记日志，不影响触发它的业务操作。
package notification

import (
	"context"
	"errors"
	"time"

	"library-admin/internal/apiserver/metrics"
	"library-admin/internal/shared/apperr"
	"library-admin/internal/shared/eventbus"
	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
	"library-admin/pkg/logging"
)

// Store Dispatcher 依赖的存储接口
type Store interface {
	storage.NotificationStore
	ListAdmins(ctx context.Context) ([]*model.User, error)
}

// Dispatcher 通知分发器
type Dispatcher struct {
	store   Store
	bus     eventbus.NotificationEventBus
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewDispatcher 创建分发器；bus 为 nil 时不做实时推送
func NewDispatcher(store Store, bus eventbus.NotificationEventBus, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if bus == nil {
		bus = eventbus.NewNoOpEventBus()
	}
	return &Dispatcher{
		store:  store,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// SetMetrics 设置指标
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// CreateNotification 为用户写入一条通知，失败只记日志
func (d *Dispatcher) CreateNotification(ctx context.Context, userID, message string, notificationType model.NotificationType) {
	n := &model.Notification{
		ID:        model.NewID(model.IDPrefixNotification),
		UserID:    userID,
		Message:   message,
		Type:      notificationType,
		CreatedAt: d.now().UTC(),
	}

	if err := d.store.CreateNotification(ctx, n); err != nil {
		d.logger.WithContext(ctx).WithUserID(userID).Error("failed to create notification",
			"type", string(notificationType),
			"error", err.Error(),
		)
		d.metrics.RecordNotification(string(notificationType), "error")
		return
	}
	d.metrics.RecordNotification(string(notificationType), "ok")

	if err := d.bus.PublishNotification(ctx, n); err != nil {
		d.logger.WithContext(ctx).WithUserID(userID).Warn("failed to publish notification",
			"notification_id", n.ID,
			"error", err.Error(),
		)
	}
}

// NotifyAdmins 向所有管理员各写一条通知，单个失败互不影响
func (d *Dispatcher) NotifyAdmins(ctx context.Context, message string, notificationType model.NotificationType) {
	admins, err := d.store.ListAdmins(ctx)
	if err != nil {
		d.logger.WithContext(ctx).Error("failed to resolve admins",
			"type", string(notificationType),
			"error", err.Error(),
		)
		return
	}

	for _, admin := range admins {
		d.CreateNotification(ctx, admin.ID, message, notificationType)
	}
}

// List 返回用户的通知，按创建时间倒序
func (d *Dispatcher) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	items, err := d.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected("list notifications", err)
	}
	if items == nil {
		items = []*model.Notification{}
	}
	return items, nil
}

// MarkRead 标记已读；不存在或不属于该用户时返回 NotFound
func (d *Dispatcher) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := d.store.MarkNotificationRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("notification not found")
		}
		return apperr.Unexpected("mark notification read", err)
	}
	return nil
}

// Subscribe 订阅用户的实时通知
func (d *Dispatcher) Subscribe(ctx context.Context, userID string) (<-chan *model.Notification, error) {
	return d.bus.SubscribeNotifications(ctx, userID)
}
