package repository

import (
	"context"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

const applicationColumns = `id, name, email, phone, message, status, created_at`

func (r *Repository) CreateApplication(app *domain.VolunteerApplication) error {
	query := `
		INSERT INTO volunteer_applications (name, email, phone, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	app.Email = strings.ToLower(app.Email)
	args := []any{app.Name, app.Email, app.Phone, app.Message}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&app.ID, &app.Status, &app.CreatedAt); err != nil {
		return err
	}

	return nil
}

// HasActiveApplication 检查该邮箱是否已有待处理或已通过的申请
func (r *Repository) HasActiveApplication(email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM volunteer_applications
			WHERE email = $1 AND status IN ('pending', 'approved')
		)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	isExists := false
	if err := r.dbpool.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

func (r *Repository) GetAllApplications() ([]*domain.VolunteerApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM volunteer_applications ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]*domain.VolunteerApplication, 0)
	for rows.Next() {
		app := &domain.VolunteerApplication{}
		dst := []any{&app.ID, &app.Name, &app.Email, &app.Phone, &app.Message, &app.Status, &app.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return apps, nil
}

func (r *Repository) GetApplicationByID(id int64) (*domain.VolunteerApplication, error) {
	query := `SELECT name, email, phone, message, status, created_at FROM volunteer_applications WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	app := &domain.VolunteerApplication{
		ID: id,
	}

	dst := []any{&app.Name, &app.Email, &app.Phone, &app.Message, &app.Status, &app.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return app, nil
}

// ApproveApplication 置申请为已通过并在同一事务里签发注册邀请
func (r *Repository) ApproveApplication(app *domain.VolunteerApplication, invite *domain.InviteToken) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE volunteer_applications SET status = 'approved' WHERE id = $1 RETURNING status`
	if err := tx.QueryRowContext(ctx, query, app.ID).Scan(&app.Status); err != nil {
		return err
	}

	query = `
		INSERT INTO invite_tokens (email, application_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	args := []any{invite.Email, invite.ApplicationID, invite.Token, invite.ExpiresAt}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&invite.ID, &invite.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) RejectApplication(app *domain.VolunteerApplication) error {
	query := `UPDATE volunteer_applications SET status = 'rejected' WHERE id = $1 RETURNING status`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if err := r.dbpool.QueryRowContext(ctx, query, app.ID).Scan(&app.Status); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetInviteByToken(token string) (*domain.InviteToken, error) {
	query := `
		SELECT id, email, application_id, expires_at, used_at, created_at
		FROM invite_tokens WHERE token = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	invite := &domain.InviteToken{
		Token: token,
	}

	dst := []any{&invite.ID, &invite.Email, &invite.ApplicationID, &invite.ExpiresAt, &invite.UsedAt, &invite.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, token).Scan(dst...); err != nil {
		return nil, err
	}

	return invite, nil
}

// RegisterWithInvite 消费邀请并创建志愿者账户，两步在同一事务内完成
func (r *Repository) RegisterWithInvite(invite *domain.InviteToken, user *domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE invite_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL RETURNING used_at`
	if err := tx.QueryRowContext(ctx, query, invite.ID).Scan(&invite.UsedAt); err != nil {
		return err
	}

	query = `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_blocked, created_at, version
	`
	user.Email = strings.ToLower(user.Email)
	args := []any{user.Name, user.Email, user.PasswordHash, user.Role}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsBlocked, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	return tx.Commit()
}
