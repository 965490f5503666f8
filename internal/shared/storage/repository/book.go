package repository

import (
	"context"

	"library-admin/internal/shared/model"
)

const bookColumns = `id, title, author, isbn, description, created_at`

func scanBook(row rowScanner) (*model.Book, error) {
	b := &model.Book{}
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.CreatedAt); err != nil {
		return nil, wrapError(err)
	}
	return b, nil
}

// CreateBook 创建图书
func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO books (`+bookColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`),
		book.ID, book.Title, book.Author, book.ISBN, book.Description, utc(book.CreatedAt),
	)
	return wrapError(err)
}

// GetBook 获取图书
func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	return scanBook(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+bookColumns+` FROM books WHERE id = $1`), id))
}

// ListBooks 列出图书（按书名）
func (s *Store) ListBooks(ctx context.Context) ([]*model.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title`)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	books := []*model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
