package mongostore

import (
	"context"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// NotificationStore
// ============================================================================

func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	return insertOne(ctx, s.col(ColNotifications), n)
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Notification](ctx, s.col(ColNotifications), bson.D{{Key: "user_id", Value: userID}}, opts)
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.col(ColNotifications).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
