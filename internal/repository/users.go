package repository

import (
	"context"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, is_blocked, blocked_reason, blocked_at, created_at, version`

func (r *Repository) CreateUser(user *domain.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_blocked, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// 邮箱统一小写存储，唯一约束因此不区分大小写
	args := []any{user.Name, strings.ToLower(user.Email), user.PasswordHash, user.Role}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsBlocked, &user.CreatedAt, &user.Version); err != nil {
		return err
	}
	user.Email = strings.ToLower(user.Email)

	return nil
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT name, email, password_hash, role, is_blocked, blocked_reason, blocked_at, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(email string) (*domain.User, error) {
	query := `
		SELECT id, name, password_hash, role, is_blocked, blocked_reason, blocked_at, created_at, version
		FROM users WHERE email = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		Email: strings.ToLower(email),
	}

	dst := []any{&user.ID, &user.Name, &user.PasswordHash, &user.Role, &user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, user.Email).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetAllVolunteers() ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, domain.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.CreatedAt, &user.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *Repository) UpdateUserPassword(user *domain.User) error {
	query := `
		UPDATE users SET password_hash = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, user.PasswordHash, user.ID, user.Version).Scan(&user.Version); err != nil {
		return err
	}

	return nil
}

// BlockUser 拉黑志愿者并在同一事务内清空其所有候补登记。
// 已确认的报名保留，由管理员另行取消。
func (r *Repository) BlockUser(user *domain.User, reason *string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE users
		SET is_blocked = TRUE, blocked_reason = $1, blocked_at = NOW(), version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING is_blocked, blocked_reason, blocked_at, version
	`
	dst := []any{&user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.Version}
	if err := tx.QueryRowContext(ctx, query, reason, user.ID, user.Version).Scan(dst...); err != nil {
		return err
	}

	query = `DELETE FROM waitlist_entries WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, query, user.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UnblockUser(user *domain.User) error {
	query := `
		UPDATE users
		SET is_blocked = FALSE, blocked_reason = NULL, blocked_at = NULL, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING is_blocked, blocked_reason, blocked_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	dst := []any{&user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, user.ID, user.Version).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteUser(id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}
