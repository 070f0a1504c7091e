// Package shifttime 把班次的日历日期和 "HH:MM" 时刻换算成固定时区下的绝对时间，
// 与服务器本地时区无关。
package shifttime

import (
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

const minutesPerHour = 60

// Clock 绑定一个固定时区，所有换算都在这个时区内进行
type Clock struct {
	loc *time.Location
}

func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc}, nil
}

func (c *Clock) Location() *time.Location {
	return c.loc
}

// parseClock 解析 "HH:MM"，任一部分非数字视为无效
func parseClock(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return hour, minute, true
}

// ScheduledMinutes 返回 max(0, 结束时刻-开始时刻) 的分钟数。
// 格式错误返回 0；不处理跨午夜的班次（结束早于开始同样返回 0）。
func ScheduledMinutes(startTime, endTime string) int32 {
	startH, startM, ok := parseClock(startTime)
	if !ok {
		return 0
	}
	endH, endM, ok := parseClock(endTime)
	if !ok {
		return 0
	}

	diff := (endH*minutesPerHour + endM) - (startH*minutesPerHour + startM)
	if diff < 0 {
		return 0
	}
	return int32(diff)
}

// ShiftStart 把班次日期与开始时刻组合成固定时区下的绝对时间。
// 开始时刻缺失或无效时按当天零点计算。
func (c *Clock) ShiftStart(shift *domain.Shift) time.Time {
	date := shift.Date.In(c.loc)
	hour, minute, ok := parseClock(shift.StartTime)
	if !ok {
		hour, minute = 0, 0
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, c.loc)
}

// ShiftEnd 为开始时间加上计划时长；时刻缺失时时长为零
func (c *Clock) ShiftEnd(shift *domain.Shift) time.Time {
	start := c.ShiftStart(shift)
	if shift.StartTime == "" || shift.EndTime == "" {
		return start
	}
	return start.Add(time.Duration(ScheduledMinutes(shift.StartTime, shift.EndTime)) * time.Minute)
}

// IsPast 判定班次是否已经结束。没有记录时刻的班次按零点零时长处理，
// 日期过了就算结束，不会被当成未来的班次。
func (c *Clock) IsPast(shift *domain.Shift, now time.Time) bool {
	return !c.ShiftEnd(shift).After(now)
}

// EffectiveWorkedMinutes 计算记入工时的有效分钟数：
// 有非负的手工覆盖值（含 0）用覆盖值，否则用计划时长，时刻缺失时为 0。
func EffectiveWorkedMinutes(workedMinutes *int32, startTime, endTime string) int32 {
	if workedMinutes != nil && *workedMinutes >= 0 {
		return *workedMinutes
	}
	if startTime == "" || endTime == "" {
		return 0
	}
	return ScheduledMinutes(startTime, endTime)
}
