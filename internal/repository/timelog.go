package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// GetConfirmedSignupsInRange 返回日期范围内（下界闭、上界开，均可空）的全部已确认报名，
// 供工时台账与统计使用；是否已结束由调用方按固定时区判定。
func (r *Repository) GetConfirmedSignupsInRange(from, to *time.Time) ([]*domain.Signup, error) {
	query := `
		SELECT
			s.id, s.shift_id, s.user_id, s.status, s.comment, s.worked_minutes,
			s.confirmed_at, s.cancelled_at, s.reminder_sent_at, s.created_at,
			sh.title, sh.description, sh.notes, sh.date, sh.type, sh.start_time, sh.end_time, sh.max_volunteers, sh.created_at,
			u.name, u.email
		FROM signups s
		JOIN shifts sh ON sh.id = s.shift_id
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'CONFIRMED'
			AND ($1::timestamptz IS NULL OR sh.date >= $1)
			AND ($2::timestamptz IS NULL OR sh.date < $2)
		ORDER BY sh.date DESC, sh.start_time, u.name
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
