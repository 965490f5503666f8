package repository

import (
	"context"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
)

const notificationColumns = `id, user_id, message, type, read, created_at`

// CreateNotification 创建通知
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`),
		n.ID, n.UserID, n.Message, n.Type, n.Read, utc(n.CreatedAt),
	)
	return wrapError(err)
}

// ListNotifications 列出用户通知（最新在前）
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	list := []*model.Notification{}
	for rows.Next() {
		n := &model.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkNotificationRead 标记已读
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE notifications SET read = $1 WHERE id = $2 AND user_id = $3`), true, id, userID)
	if err != nil {
		return wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
