package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

func newTestClock(t *testing.T) *shifttime.Clock {
	t.Helper()
	clock, err := shifttime.NewClock("Asia/Shanghai")
	require.NoError(t, err)
	return clock
}

func confirmedSignup(id, userID int64, name string, date time.Time, startTime, endTime string, workedMinutes *int32) *domain.Signup {
	return &domain.Signup{
		ID:            id,
		ShiftID:       id,
		UserID:        userID,
		Status:        domain.SignupStatusConfirmed,
		WorkedMinutes: workedMinutes,
		Shift: &domain.Shift{
			ID:        id,
			Title:     "早班",
			Date:      date,
			StartTime: startTime,
			EndTime:   endTime,
		},
		User: &domain.UserSummary{
			ID:   userID,
			Name: name,
		},
	}
}

func TestMinutesToHours(t *testing.T) {
	assert.Equal(t, 4.0, MinutesToHours(240))
	assert.Equal(t, 0.5, MinutesToHours(30))
	assert.Equal(t, 1.67, MinutesToHours(100))
	assert.Equal(t, 0.0, MinutesToHours(0))
}

func TestBuildTimelogSkipsUnfinishedShifts(t *testing.T) {
	clock := newTestClock(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, clock.Location())

	signups := []*domain.Signup{
		confirmedSignup(1, 1, "张伟", time.Date(2026, 3, 10, 0, 0, 0, 0, clock.Location()), "09:00", "13:00", nil),
		// 未来的班次不计入台账
		confirmedSignup(2, 1, "张伟", time.Date(2026, 3, 20, 0, 0, 0, 0, clock.Location()), "09:00", "13:00", nil),
	}

	timelog := BuildTimelog(signups, clock, now)

	require.Len(t, timelog.Entries, 1)
	assert.Equal(t, int64(1), timelog.Entries[0].SignupID)
	assert.Equal(t, int32(240), timelog.Entries[0].EffectiveMinutes)

	require.Len(t, timelog.Totals, 1)
	assert.Equal(t, int32(240), timelog.Totals[0].TotalMinutes)
}

func TestBuildTimelogHonorsWorkedMinutesOverride(t *testing.T) {
	clock := newTestClock(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, clock.Location())
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, clock.Location())

	override := int32(90)
	zero := int32(0)

	signups := []*domain.Signup{
		confirmedSignup(1, 1, "张伟", date, "09:00", "13:00", &override),
		// 显式记零工时也是覆盖，不回落到计划时长
		confirmedSignup(2, 2, "李芳", date, "09:00", "13:00", &zero),
	}

	timelog := BuildTimelog(signups, clock, now)

	require.Len(t, timelog.Entries, 2)
	assert.Equal(t, int32(90), timelog.Entries[0].EffectiveMinutes)
	assert.Equal(t, int32(0), timelog.Entries[1].EffectiveMinutes)
}

func TestBuildTimelogAggregatesPerVolunteer(t *testing.T) {
	clock := newTestClock(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, clock.Location())

	signups := []*domain.Signup{
		confirmedSignup(1, 1, "张伟", time.Date(2026, 3, 9, 0, 0, 0, 0, clock.Location()), "09:00", "13:00", nil),
		confirmedSignup(2, 1, "张伟", time.Date(2026, 3, 10, 0, 0, 0, 0, clock.Location()), "17:00", "21:00", nil),
		confirmedSignup(3, 2, "李芳", time.Date(2026, 3, 10, 0, 0, 0, 0, clock.Location()), "09:00", "13:00", nil),
	}

	timelog := BuildTimelog(signups, clock, now)

	require.Len(t, timelog.Totals, 2)
	// 汇总按姓名排序
	assert.Equal(t, "张伟", timelog.Totals[0].VolunteerName)
	assert.Equal(t, int32(480), timelog.Totals[0].TotalMinutes)
	assert.Equal(t, "李芳", timelog.Totals[1].VolunteerName)
	assert.Equal(t, int32(240), timelog.Totals[1].TotalMinutes)
}

func TestMonthlyTotals(t *testing.T) {
	clock := newTestClock(t)

	entries := []TimelogEntry{
		{ShiftDate: time.Date(2026, 2, 28, 0, 0, 0, 0, clock.Location()), EffectiveMinutes: 120},
		{ShiftDate: time.Date(2026, 3, 1, 0, 0, 0, 0, clock.Location()), EffectiveMinutes: 240},
		{ShiftDate: time.Date(2026, 3, 15, 0, 0, 0, 0, clock.Location()), EffectiveMinutes: 60},
	}

	totals := MonthlyTotals(entries, clock.Location())

	require.Len(t, totals, 2)
	assert.Equal(t, "2026-02", totals[0].Month)
	assert.Equal(t, int32(120), totals[0].Minutes)
	assert.Equal(t, "2026-03", totals[1].Month)
	assert.Equal(t, int32(300), totals[1].Minutes)
	assert.Equal(t, 5.0, totals[1].Hours)
}

func TestActiveVolunteers(t *testing.T) {
	totals := []TimelogTotal{
		{UserID: 1, VolunteerName: "张伟", TotalMinutes: 300},
		{UserID: 2, VolunteerName: "李芳", TotalMinutes: 240},
		{UserID: 3, VolunteerName: "王强", TotalMinutes: 180},
	}

	// 阈值 4 小时
	active := ActiveVolunteers(totals, 240)

	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].UserID)
	assert.Equal(t, 5.0, active[0].Hours)
	assert.Equal(t, int64(2), active[1].UserID)
}

func TestUnderfilledShifts(t *testing.T) {
	rows := make([]ShiftFill, 0, 14)
	// 十二个缺员班次，空缺从 1 到 12
	for i := int32(1); i <= 12; i++ {
		rows = append(rows, ShiftFill{
			Shift:          domain.Shift{ID: int64(i), Title: "早班", MaxVolunteers: i + 1},
			ConfirmedCount: 1,
		})
	}
	// 满员与超员的班次不计
	rows = append(rows,
		ShiftFill{Shift: domain.Shift{ID: 100, MaxVolunteers: 2}, ConfirmedCount: 2},
		ShiftFill{Shift: domain.Shift{ID: 101, MaxVolunteers: 2}, ConfirmedCount: 3},
	)

	underfilled := UnderfilledShifts(rows)

	// 只取空缺最多的前十个
	require.Len(t, underfilled, 10)
	assert.Equal(t, int32(12), underfilled[0].Vacancy)
	assert.Equal(t, int32(3), underfilled[9].Vacancy)

	for _, shift := range underfilled {
		assert.Greater(t, shift.Vacancy, int32(0))
	}
}

func TestUnderfilledShiftsKeepsShiftWithWaitlist(t *testing.T) {
	// 空位和候补队列可以并存（队首被拉黑或刚扩容时），缺员统计必须照常列出
	rows := []ShiftFill{
		{Shift: domain.Shift{ID: 1, Title: "晚班", MaxVolunteers: 3}, ConfirmedCount: 2, WaitlistCount: 3},
	}

	underfilled := UnderfilledShifts(rows)

	require.Len(t, underfilled, 1)
	assert.Equal(t, int32(1), underfilled[0].Vacancy)
	assert.Equal(t, int32(3), underfilled[0].WaitlistCount)
}
