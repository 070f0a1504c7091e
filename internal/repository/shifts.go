package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

func (r *Repository) CreateShift(shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (title, description, notes, date, type, start_time, end_time, max_volunteers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{shift.Title, shift.Description, shift.Notes, shift.Date, shift.Type, shift.StartTime, shift.EndTime, shift.MaxVolunteers}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.ID, &shift.CreatedAt, &shift.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) UpdateShift(shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET title = $1,
			description = $2,
			notes = $3,
			date = $4,
			type = $5,
			start_time = $6,
			end_time = $7,
			max_volunteers = $8,
			version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{
		shift.Title,
		shift.Description,
		shift.Notes,
		shift.Date,
		shift.Type,
		shift.StartTime,
		shift.EndTime,
		shift.MaxVolunteers,
		shift.ID,
		shift.Version,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&shift.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShift(id int64) error {
	query := `DELETE FROM shifts WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, query, id); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetShiftByID(id int64) (*domain.Shift, error) {
	query := `
		SELECT title, description, notes, date, type, start_time, end_time, max_volunteers, created_at, version
		FROM shifts WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	shift := &domain.Shift{
		ID: id,
	}

	dst := []any{&shift.Title, &shift.Description, &shift.Notes, &shift.Date, &shift.Type, &shift.StartTime, &shift.EndTime, &shift.MaxVolunteers, &shift.CreatedAt, &shift.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return shift, nil
}

// GetAllShiftDetails 返回全部班次及其已确认报名和候补队列，按日期升序。
// 三次查询后在内存里组装，避免一条巨型联表。
func (r *Repository) GetAllShiftDetails() ([]*domain.ShiftDetail, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, title, description, notes, date, type, start_time, end_time, max_volunteers, created_at, version
		FROM shifts
		ORDER BY date, start_time
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]*domain.ShiftDetail, 0)
	byID := make(map[int64]*domain.ShiftDetail)

	for rows.Next() {
		detail := &domain.ShiftDetail{
			Signups:  []*domain.Signup{},
			Waitlist: []*domain.WaitlistEntry{},
		}
		dst := []any{&detail.ID, &detail.Title, &detail.Description, &detail.Notes, &detail.Date, &detail.Type, &detail.StartTime, &detail.EndTime, &detail.MaxVolunteers, &detail.CreatedAt, &detail.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		details = append(details, detail)
		byID[detail.ID] = detail
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachConfirmedSignups(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.attachWaitlists(ctx, byID); err != nil {
		return nil, err
	}

	for _, detail := range details {
		detail.SignupCount = len(detail.Signups)
		detail.WaitlistCount = len(detail.Waitlist)
	}

	return details, nil
}

func (r *Repository) attachConfirmedSignups(ctx context.Context, byID map[int64]*domain.ShiftDetail) error {
	query := `
		SELECT s.id, s.shift_id, s.user_id, s.status, s.comment, s.worked_minutes,
			s.confirmed_at, s.cancelled_at, s.reminder_sent_at, s.created_at,
			u.name, u.email
		FROM signups s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'CONFIRMED'
		ORDER BY s.created_at
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		signup := &domain.Signup{User: &domain.UserSummary{}}
		dst := []any{
			&signup.ID, &signup.ShiftID, &signup.UserID, &signup.Status, &signup.Comment, &signup.WorkedMinutes,
			&signup.ConfirmedAt, &signup.CancelledAt, &signup.ReminderSentAt, &signup.CreatedAt,
			&signup.User.Name, &signup.User.Email,
		}
		if err := rows.Scan(dst...); err != nil {
			return err
		}
		signup.User.ID = signup.UserID

		if detail, ok := byID[signup.ShiftID]; ok {
			detail.Signups = append(detail.Signups, signup)
		}
	}

	return rows.Err()
}

func (r *Repository) attachWaitlists(ctx context.Context, byID map[int64]*domain.ShiftDetail) error {
	query := `
		SELECT we.id, we.shift_id, we.user_id, we.comment, we.created_at, u.name, u.email
		FROM waitlist_entries we
		JOIN users u ON u.id = we.user_id
		ORDER BY we.created_at, we.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		entry := &domain.WaitlistEntry{User: &domain.UserSummary{}}
		dst := []any{&entry.ID, &entry.ShiftID, &entry.UserID, &entry.Comment, &entry.CreatedAt, &entry.User.Name, &entry.User.Email}
		if err := rows.Scan(dst...); err != nil {
			return err
		}
		entry.User.ID = entry.UserID

		if detail, ok := byID[entry.ShiftID]; ok {
			detail.Waitlist = append(detail.Waitlist, entry)
		}
	}

	return rows.Err()
}

// ShiftFillRow 是缺员统计的原始行
type ShiftFillRow struct {
	Shift          domain.Shift
	ConfirmedCount int32
	WaitlistCount  int32
}

// GetShiftFillRows 返回日期范围内（下界闭、上界开）最近的班次及其确认/候补人数，最多 200 条
func (r *Repository) GetShiftFillRows(from, to *time.Time) ([]*ShiftFillRow, error) {
	query := `
		SELECT
			sh.id, sh.title, sh.description, sh.notes, sh.date, sh.type, sh.start_time, sh.end_time, sh.max_volunteers, sh.created_at,
			COUNT(DISTINCT s.id) FILTER (WHERE s.status = 'CONFIRMED') AS confirmed_count,
			COUNT(DISTINCT we.id) AS waitlist_count
		FROM shifts sh
		LEFT JOIN signups s ON s.shift_id = sh.id
		LEFT JOIN waitlist_entries we ON we.shift_id = sh.id
		WHERE ($1::timestamptz IS NULL OR sh.date >= $1)
			AND ($2::timestamptz IS NULL OR sh.date < $2)
		GROUP BY sh.id
		ORDER BY sh.date DESC
		LIMIT 200
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var fromArg, toArg sql.NullTime
	if from != nil {
		fromArg = sql.NullTime{Time: *from, Valid: true}
	}
	if to != nil {
		toArg = sql.NullTime{Time: *to, Valid: true}
	}

	rows, err := r.dbpool.QueryContext(ctx, query, fromArg, toArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*ShiftFillRow, 0)
	for rows.Next() {
		row := &ShiftFillRow{}
		dst := []any{
			&row.Shift.ID, &row.Shift.Title, &row.Shift.Description, &row.Shift.Notes, &row.Shift.Date, &row.Shift.Type,
			&row.Shift.StartTime, &row.Shift.EndTime, &row.Shift.MaxVolunteers, &row.Shift.CreatedAt,
			&row.ConfirmedCount, &row.WaitlistCount,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
