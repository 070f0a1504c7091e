package shifttime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

func newTestClock(t *testing.T) *Clock {
	t.Helper()
	clock, err := NewClock("Asia/Shanghai")
	require.NoError(t, err)
	return clock
}

func TestScheduledMinutes(t *testing.T) {
	tests := []struct {
		name      string
		startTime string
		endTime   string
		want      int32
	}{
		{"普通班次", "09:00", "17:00", 480},
		{"半小时粒度", "09:30", "10:15", 45},
		{"零时长", "09:00", "09:00", 0},
		{"结束早于开始", "17:00", "09:00", 0},
		{"开始时刻格式错误", "9am", "17:00", 0},
		{"结束时刻格式错误", "09:00", "下午五点", 0},
		{"缺少冒号", "0900", "1700", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScheduledMinutes(tt.startTime, tt.endTime))
		})
	}
}

func TestShiftStartUsesFixedTimezone(t *testing.T) {
	clock := newTestClock(t)

	// 数据库里的日期可能带着 UTC 时区，换算必须落在固定时区的当天
	shift := &domain.Shift{
		Date:      time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "13:00",
	}

	start := clock.ShiftStart(shift)
	assert.Equal(t, time.Date(2026, 3, 12, 9, 0, 0, 0, clock.Location()), start)

	end := clock.ShiftEnd(shift)
	assert.Equal(t, start.Add(4*time.Hour), end)
}

func TestShiftStartWithoutTimes(t *testing.T) {
	clock := newTestClock(t)

	shift := &domain.Shift{
		Date: time.Date(2026, 3, 12, 0, 0, 0, 0, clock.Location()),
	}

	// 没有记录时刻的班次按当天零点、零时长处理
	start := clock.ShiftStart(shift)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, clock.Location()), start)
	assert.Equal(t, start, clock.ShiftEnd(shift))
}

func TestIsPast(t *testing.T) {
	clock := newTestClock(t)

	shift := &domain.Shift{
		Date:      time.Date(2026, 3, 12, 0, 0, 0, 0, clock.Location()),
		StartTime: "09:00",
		EndTime:   "13:00",
	}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"开始前", time.Date(2026, 3, 12, 8, 0, 0, 0, clock.Location()), false},
		{"进行中", time.Date(2026, 3, 12, 10, 0, 0, 0, clock.Location()), false},
		{"恰好结束", time.Date(2026, 3, 12, 13, 0, 0, 0, clock.Location()), true},
		{"结束后", time.Date(2026, 3, 12, 15, 0, 0, 0, clock.Location()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.IsPast(shift, tt.now))
		})
	}
}

func TestIsPastWithoutTimes(t *testing.T) {
	clock := newTestClock(t)

	// 日期过了就算结束，不会因为缺时刻被当成未来的班次
	shift := &domain.Shift{
		Date: time.Date(2026, 3, 12, 0, 0, 0, 0, clock.Location()),
	}

	assert.True(t, clock.IsPast(shift, time.Date(2026, 3, 12, 0, 0, 1, 0, clock.Location())))
	assert.False(t, clock.IsPast(shift, time.Date(2026, 3, 11, 23, 59, 59, 0, clock.Location())))
}

func TestEffectiveWorkedMinutes(t *testing.T) {
	override := int32(30)
	zero := int32(0)
	negative := int32(-10)

	tests := []struct {
		name          string
		workedMinutes *int32
		startTime     string
		endTime       string
		want          int32
	}{
		{"无覆盖值用计划时长", nil, "09:00", "13:00", 240},
		{"覆盖值优先", &override, "09:00", "13:00", 30},
		{"零覆盖值同样生效", &zero, "09:00", "13:00", 0},
		{"负覆盖值视为未设置", &negative, "09:00", "13:00", 240},
		{"时刻缺失且无覆盖值", nil, "", "", 0},
		{"时刻缺失但有覆盖值", &override, "", "", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveWorkedMinutes(tt.workedMinutes, tt.startTime, tt.endTime))
		})
	}
}
