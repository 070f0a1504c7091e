package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// sqlTx 在单个数据库事务上实现 engine.Tx
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	query := `
		SELECT title, description, notes, date, type, start_time, end_time, max_volunteers, created_at, version
		FROM shifts WHERE id = $1
	`

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.Title, &shift.Description, &shift.Notes, &shift.Date, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.MaxVolunteers, &shift.CreatedAt, &shift.Version}
	if err := t.tx.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return shift, nil
}

func (t *sqlTx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT name, email, password_hash, role, is_blocked, blocked_reason, blocked_at, created_at, version
		FROM users WHERE id = $1
	`

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.IsBlocked, &user.BlockedReason, &user.BlockedAt, &user.CreatedAt, &user.Version}
	if err := t.tx.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return user, nil
}

func (t *sqlTx) CountConfirmed(ctx context.Context, shiftID int64) (int32, error) {
	query := `
		SELECT COUNT(*) FROM signups WHERE shift_id = $1 AND status = 'CONFIRMED'
	`

	var count int32
	if err := t.tx.QueryRowContext(ctx, query, shiftID).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

const signupColumns = `id, shift_id, user_id, status, comment, worked_minutes, confirmed_at, cancelled_at, reminder_sent_at, created_at`

func scanSignup(row *sql.Row) (*domain.Signup, error) {
	signup := &domain.Signup{}
	dst := []any{
		&signup.ID,
		&signup.ShiftID,
		&signup.UserID,
		&signup.Status,
		&signup.Comment,
		&signup.WorkedMinutes,
		&signup.ConfirmedAt,
		&signup.CancelledAt,
		&signup.ReminderSentAt,
		&signup.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return signup, nil
}

func (t *sqlTx) GetSignup(ctx context.Context, shiftID, userID int64) (*domain.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE shift_id = $1 AND user_id = $2`

	signup, err := scanSignup(t.tx.QueryRowContext(ctx, query, shiftID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return signup, nil
}

func (t *sqlTx) GetSignupByID(ctx context.Context, id int64) (*domain.Signup, error) {
	query := `SELECT ` + signupColumns + ` FROM signups WHERE id = $1`

	signup, err := scanSignup(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return signup, nil
}

func (t *sqlTx) UpsertConfirmedSignup(ctx context.Context, shiftID, userID int64, comment *string) (*domain.Signup, error) {
	// 同一 (shift, user) 复用已有行：重新确认会清掉取消时间并刷新确认时间
	query := `
		INSERT INTO signups (shift_id, user_id, status, comment, confirmed_at)
		VALUES ($1, $2, 'CONFIRMED', $3, NOW())
		ON CONFLICT (shift_id, user_id) DO UPDATE
		SET status = 'CONFIRMED',
			comment = EXCLUDED.comment,
			confirmed_at = NOW(),
			cancelled_at = NULL
		RETURNING ` + signupColumns

	return scanSignup(t.tx.QueryRowContext(ctx, query, shiftID, userID, comment))
}

func (t *sqlTx) MarkSignupCancelled(ctx context.Context, id int64) (*domain.Signup, error) {
	query := `
		UPDATE signups SET status = 'CANCELLED', cancelled_at = NOW()
		WHERE id = $1
		RETURNING ` + signupColumns

	return scanSignup(t.tx.QueryRowContext(ctx, query, id))
}

const waitlistColumns = `id, shift_id, user_id, comment, created_at`

func scanWaitlistEntry(row *sql.Row) (*domain.WaitlistEntry, error) {
	entry := &domain.WaitlistEntry{}
	dst := []any{&entry.ID, &entry.ShiftID, &entry.UserID, &entry.Comment, &entry.CreatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return entry, nil
}

func (t *sqlTx) GetWaitlistEntry(ctx context.Context, shiftID, userID int64) (*domain.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE shift_id = $1 AND user_id = $2`

	entry, err := scanWaitlistEntry(t.tx.QueryRowContext(ctx, query, shiftID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

func (t *sqlTx) GetWaitlistEntryByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = $1`

	entry, err := scanWaitlistEntry(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

func (t *sqlTx) CreateWaitlistEntry(ctx context.Context, shiftID, userID int64, comment *string) (*domain.WaitlistEntry, error) {
	query := `
		INSERT INTO waitlist_entries (shift_id, user_id, comment)
		VALUES ($1, $2, $3)
		RETURNING ` + waitlistColumns

	return scanWaitlistEntry(t.tx.QueryRowContext(ctx, query, shiftID, userID, comment))
}

func (t *sqlTx) DeleteWaitlistEntry(ctx context.Context, id int64) error {
	query := `DELETE FROM waitlist_entries WHERE id = $1`

	if _, err := t.tx.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (t *sqlTx) OldestEligibleWaitlistEntry(ctx context.Context, shiftID int64) (*domain.WaitlistEntry, error) {
	// 被拉黑的志愿者跳过但不移出队列；时间相同以 ID 小者优先
	query := `
		SELECT we.id, we.shift_id, we.user_id, we.comment, we.created_at
		FROM waitlist_entries we
		JOIN users u ON u.id = we.user_id
		WHERE we.shift_id = $1 AND NOT u.is_blocked
		ORDER BY we.created_at, we.id
		LIMIT 1
	`

	entry, err := scanWaitlistEntry(t.tx.QueryRowContext(ctx, query, shiftID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return entry, nil
}

/**********************************************
 * 以下为事务外的报名查询
 **********************************************/

// GetSignupWithRelations 返回报名及其关联的班次与志愿者概要
func (r *Repository) GetSignupWithRelations(id int64) (*domain.Signup, error) {
	query := `
		SELECT
			s.id, s.shift_id, s.user_id, s.status, s.comment, s.worked_minutes,
			s.confirmed_at, s.cancelled_at, s.reminder_sent_at, s.created_at,
			sh.title, sh.description, sh.notes, sh.date, sh.type, sh.start_time, sh.end_time, sh.max_volunteers, sh.created_at,
			u.name, u.email
		FROM signups s
		JOIN shifts sh ON sh.id = s.shift_id
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	signup := &domain.Signup{
		Shift: &domain.Shift{},
		User:  &domain.UserSummary{},
	}

	dst := []any{
		&signup.ID, &signup.ShiftID, &signup.UserID, &signup.Status, &signup.Comment, &signup.WorkedMinutes,
		&signup.ConfirmedAt, &signup.CancelledAt, &signup.ReminderSentAt, &signup.CreatedAt,
		&signup.Shift.Title, &signup.Shift.Description, &signup.Shift.Notes, &signup.Shift.Date, &signup.Shift.Type,
		&signup.Shift.StartTime, &signup.Shift.EndTime, &signup.Shift.MaxVolunteers, &signup.Shift.CreatedAt,
		&signup.User.Name, &signup.User.Email,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	signup.Shift.ID = signup.ShiftID
	signup.User.ID = signup.UserID

	return signup, nil
}

// GetConfirmedSignupsForUser 返回志愿者自己的已确认报名，按班次日期升序
func (r *Repository) GetConfirmedSignupsForUser(userID int64) ([]*domain.Signup, error) {
	query := `
		SELECT
			s.id, s.shift_id, s.user_id, s.status, s.comment, s.worked_minutes,
			s.confirmed_at, s.cancelled_at, s.reminder_sent_at, s.created_at,
			sh.title, sh.description, sh.notes, sh.date, sh.type, sh.start_time, sh.end_time, sh.max_volunteers, sh.created_at
		FROM signups s
		JOIN shifts sh ON sh.id = s.shift_id
		WHERE s.user_id = $1 AND s.status = 'CONFIRMED'
		ORDER BY sh.date, sh.start_time
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signups := make([]*domain.Signup, 0)
	for rows.Next() {
		signup := &domain.Signup{Shift: &domain.Shift{}}
		dst := []any{
			&signup.ID, &signup.ShiftID, &signup.UserID, &signup.Status, &signup.Comment, &signup.WorkedMinutes,
			&signup.ConfirmedAt, &signup.CancelledAt, &signup.ReminderSentAt, &signup.CreatedAt,
			&signup.Shift.Title, &signup.Shift.Description, &signup.Shift.Notes, &signup.Shift.Date, &signup.Shift.Type,
			&signup.Shift.StartTime, &signup.Shift.EndTime, &signup.Shift.MaxVolunteers, &signup.Shift.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		signup.Shift.ID = signup.ShiftID
		signups = append(signups, signup)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signups, nil
}

// SetWorkedMinutes 写入或清除工时覆盖值，nil 表示回退到计划时长
func (r *Repository) SetWorkedMinutes(signupID int64, minutes *int32) error {
	query := `UPDATE signups SET worked_minutes = $1 WHERE id = $2`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, minutes, signupID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// GetReminderCandidates 返回尚未发过提醒、班次日期落在提醒窗口附近的已确认报名。
// 精确的开班时间过滤由调用方用固定时区换算后完成。
func (r *Repository) GetReminderCandidates(from, to time.Time) ([]*domain.Signup, error) {
	query := `
		SELECT
			s.id, s.shift_id, s.user_id, s.status, s.comment, s.worked_minutes,
			s.confirmed_at, s.cancelled_at, s.reminder_sent_at, s.created_at,
			sh.title, sh.description, sh.notes, sh.date, sh.type, sh.start_time, sh.end_time, sh.max_volunteers, sh.created_at,
			u.name, u.email
		FROM signups s
		JOIN shifts sh ON sh.id = s.shift_id
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'CONFIRMED' AND s.reminder_sent_at IS NULL AND sh.date >= $1 AND sh.date <= $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signups := make([]*domain.Signup, 0)
	for rows.Next() {
		signup := &domain.Signup{Shift: &domain.Shift{}, User: &domain.UserSummary{}}
		dst := []any{
			&signup.ID, &signup.ShiftID, &signup.UserID, &signup.Status, &signup.Comment, &signup.WorkedMinutes,
			&signup.ConfirmedAt, &signup.CancelledAt, &signup.ReminderSentAt, &signup.CreatedAt,
			&signup.Shift.Title, &signup.Shift.Description, &signup.Shift.Notes, &signup.Shift.Date, &signup.Shift.Type,
			&signup.Shift.StartTime, &signup.Shift.EndTime, &signup.Shift.MaxVolunteers, &signup.Shift.CreatedAt,
			&signup.User.Name, &signup.User.Email,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		signup.Shift.ID = signup.ShiftID
		signup.User.ID = signup.UserID
		signups = append(signups, signup)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return signups, nil
}

func (r *Repository) MarkReminderSent(signupID int64) error {
	query := `UPDATE signups SET reminder_sent_at = NOW() WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, signupID); err != nil {
		return err
	}

	return nil
}

// GetWaitlistForShift 返回班次的候补队列，按先来后到排序
func (r *Repository) GetWaitlistForShift(shiftID int64) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT we.id, we.shift_id, we.user_id, we.comment, we.created_at, u.name, u.email
		FROM waitlist_entries we
		JOIN users u ON u.id = we.user_id
		WHERE we.shift_id = $1
		ORDER BY we.created_at, we.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		entry := &domain.WaitlistEntry{User: &domain.UserSummary{}}
		dst := []any{&entry.ID, &entry.ShiftID, &entry.UserID, &entry.Comment, &entry.CreatedAt, &entry.User.Name, &entry.User.Email}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entry.User.ID = entry.UserID
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
