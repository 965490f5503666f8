package mongostore

import (
	"context"

	"library-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BookStore
// ============================================================================

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	return insertOne(ctx, s.col(ColBooks), book)
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	return findOne[model.Book](ctx, s.col(ColBooks), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	return findMany[model.Book](ctx, s.col(ColBooks), bson.D{}, opts)
}
