package repository

import (
	"context"
	"time"

	"library-admin/internal/shared/model"
	"library-admin/internal/shared/storage"
)

const userColumns = `id, name, email, password_hash, phone_number, is_approved, is_admin, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
		&u.IsApproved, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, wrapError(err)
	}
	return u, nil
}

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber,
		user.IsApproved, user.IsAdmin, utc(user.CreatedAt), utc(user.UpdatedAt),
	)
	return wrapError(err)
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
}

// ListUsers 列出用户（创建时间倒序）
func (s *Store) ListUsers(ctx context.Context, filter storage.UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if filter.PendingOnly {
		query += ` WHERE is_approved = $1`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC`
	return s.queryUsers(ctx, query, args...)
}

// ListAdmins 列出所有管理员
func (s *Store) ListAdmins(ctx context.Context) ([]*model.User, error) {
	return s.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE is_admin = $1`, true)
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]*model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserProfile 更新用户资料（单条 UPDATE ... RETURNING）
func (s *Store) UpdateUserProfile(ctx context.Context, id string, update model.UserProfileUpdate) (*model.User, error) {
	// COALESCE 保留未提供的字段
	var name, phone any
	if update.Name != nil {
		name = *update.Name
	}
	if update.PhoneNumber != nil {
		phone = *update.PhoneNumber
	}
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`UPDATE users SET name = COALESCE($1::text, name), phone_number = COALESCE($2::text, phone_number), updated_at = $3
		 WHERE id = $4 RETURNING `+userColumns),
		name, phone, utc(time.Now()), id))
}

// ApproveUser 审批用户
func (s *Store) ApproveUser(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`UPDATE users SET is_approved = $1, updated_at = $2 WHERE id = $3 RETURNING `+userColumns),
		true, utc(time.Now()), id))
}
