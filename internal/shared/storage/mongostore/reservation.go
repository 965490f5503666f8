package mongostore

import (
	"context"
	"time"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// ReservationStore
// ============================================================================

func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	return insertOne(ctx, s.col(ColReservations), r)
}

func (s *Store) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	return findOne[model.Reservation](ctx, s.col(ColReservations), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	details, err := aggregate[model.ReservationDetail](ctx, s.col(ColReservations),
		detailPipeline(bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, storage.ErrNotFound
	}
	return details[0], nil
}

func (s *Store) ListReservationDetails(ctx context.Context, userID string) ([]*model.ReservationDetail, error) {
	match := bson.D{}
	if userID != "" {
		match = bson.D{{Key: "user_id", Value: userID}}
	}
	return aggregate[model.ReservationDetail](ctx, s.col(ColReservations), detailPipeline(match))
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	return updateAndReturn[model.Reservation](ctx, s.col(ColReservations), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

// detailPipeline 构建解析 user/book 引用的聚合管道
//
// 被引用文档不存在时保留预约本身（对应字段为空）；用户只投影公开字段。
func detailPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ColUsers},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$user"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ColBooks},
			{Key: "localField", Value: "book_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "book"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$book"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "user.password_hash", Value: 0},
			{Key: "user.is_admin", Value: 0},
			{Key: "user.is_approved", Value: 0},
			{Key: "user.created_at", Value: 0},
			{Key: "user.updated_at", Value: 0},
		}}},
	}
}
