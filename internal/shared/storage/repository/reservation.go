package repository

import (
	"context"
	"database/sql"
	"time"

	"library-admin/internal/shared/model"
)

const reservationColumns = `id, user_id, book_id, start_date, end_date, status, created_at, updated_at`

// detailSelect 通过 LEFT JOIN 解析 user/book 引用
const detailSelect = `SELECT r.id, r.user_id, r.book_id, r.start_date, r.end_date, r.status, r.created_at, r.updated_at,
	u.id, u.name, u.email, u.phone_number,
	b.id, b.title, b.author, b.isbn, b.description, b.created_at
	FROM reservations r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN books b ON b.id = r.book_id`

func scanReservation(row rowScanner) (*model.Reservation, error) {
	r := &model.Reservation{}
	err := row.Scan(&r.ID, &r.UserID, &r.BookID, &r.StartDate, &r.EndDate, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	return r, nil
}

func scanReservationDetail(row rowScanner) (*model.ReservationDetail, error) {
	d := &model.ReservationDetail{}
	var (
		uID, uName, uEmail, uPhone                sql.NullString
		bID, bTitle, bAuthor, bISBN, bDescription sql.NullString
		bCreatedAt                                sql.NullTime
	)
	err := row.Scan(&d.ID, &d.UserID, &d.BookID, &d.StartDate, &d.EndDate, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&uID, &uName, &uEmail, &uPhone,
		&bID, &bTitle, &bAuthor, &bISBN, &bDescription, &bCreatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	if uID.Valid {
		d.User = &model.UserSummary{ID: uID.String, Name: uName.String, Email: uEmail.String, PhoneNumber: uPhone.String}
	}
	if bID.Valid {
		d.Book = &model.Book{
			ID:          bID.String,
			Title:       bTitle.String,
			Author:      bAuthor.String,
			ISBN:        bISBN.String,
			Description: bDescription.String,
			CreatedAt:   bCreatedAt.Time,
		}
	}
	return d, nil
}

// CreateReservation 创建预约
func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO reservations (`+reservationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		r.ID, r.UserID, r.BookID, utc(r.StartDate), utc(r.EndDate), r.Status, utc(r.CreatedAt), utc(r.UpdatedAt),
	)
	return wrapError(err)
}

// GetReservation 获取预约（未解析）
func (s *Store) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	return scanReservation(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`), id))
}

// GetReservationDetail 获取预约（已解析）
func (s *Store) GetReservationDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	return scanReservationDetail(s.db.QueryRowContext(ctx, s.rebind(detailSelect+` WHERE r.id = $1`), id))
}

// ListReservationDetails 列出预约（已解析，创建时间倒序）
func (s *Store) ListReservationDetails(ctx context.Context, userID string) ([]*model.ReservationDetail, error) {
	query := detailSelect
	var args []any
	if userID != "" {
		query += ` WHERE r.user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	details := []*model.ReservationDetail{}
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// UpdateReservationStatus 原子更新状态并返回新值
func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) (*model.Reservation, error) {
	return scanReservation(s.db.QueryRowContext(ctx, s.rebind(
		`UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3 RETURNING `+reservationColumns),
		status, utc(time.Now()), id))
}
