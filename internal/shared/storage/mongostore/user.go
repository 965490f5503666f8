package mongostore

import (
	"context"
	"time"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*model.User, error) {
	f := bson.D{}
	if filter.PendingOnly {
		f = append(f, bson.E{Key: "is_approved", Value: false})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers), f, opts)
}

func (s *Store) ListAdmins(ctx context.Context) ([]*model.User, error) {
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{{Key: "is_admin", Value: true}})
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, update model.UserProfileUpdate) (*model.User, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now()}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.PhoneNumber != nil {
		set = append(set, bson.E{Key: "phone_number", Value: *update.PhoneNumber})
	}
	return updateAndReturn[model.User](ctx, s.col(ColUsers), id, set)
}

func (s *Store) ApproveUser(ctx context.Context, id string) (*model.User, error) {
	return updateAndReturn[model.User](ctx, s.col(ColUsers), id, bson.D{
		{Key: "is_approved", Value: true},
		{Key: "updated_at", Value: time.Now()},
	})
}
