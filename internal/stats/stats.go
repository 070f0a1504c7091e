// Package stats 基于已确认报名计算工时台账与管理端统计，全部为纯函数。
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

type TimelogEntry struct {
	SignupID         int64     `json:"signupId"`
	UserID           int64     `json:"userId"`
	VolunteerName    string    `json:"volunteerName"`
	VolunteerEmail   string    `json:"volunteerEmail"`
	ShiftID          int64     `json:"shiftId"`
	ShiftTitle       string    `json:"shiftTitle"`
	ShiftDate        time.Time `json:"shiftDate"`
	ShiftStart       time.Time `json:"shiftStart"`
	ShiftEnd         time.Time `json:"shiftEnd"`
	ScheduledMinutes int32     `json:"scheduledMinutes"`
	WorkedMinutes    *int32    `json:"workedMinutes"`
	EffectiveMinutes int32     `json:"effectiveMinutes"`
}

type TimelogTotal struct {
	UserID         int64  `json:"userId"`
	VolunteerName  string `json:"volunteerName"`
	VolunteerEmail string `json:"volunteerEmail"`
	TotalMinutes   int32  `json:"totalMinutes"`
}

type Timelog struct {
	Entries []TimelogEntry `json:"entries"`
	Totals  []TimelogTotal `json:"totals"`
}

// MinutesToHours 保留两位小数
func MinutesToHours(minutes int32) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// BuildTimelog 把已确认报名整理成工时台账，只计入已经结束的班次
func BuildTimelog(signups []*domain.Signup, clock *shifttime.Clock, now time.Time) *Timelog {
	entries := make([]TimelogEntry, 0, len(signups))
	totalsMap := make(map[int64]*TimelogTotal)

	for _, signup := range signups {
		if signup.Shift == nil || signup.User == nil {
			continue
		}
		if !clock.IsPast(signup.Shift, now) {
			continue
		}

		scheduled := shifttime.ScheduledMinutes(signup.Shift.StartTime, signup.Shift.EndTime)
		effective := shifttime.EffectiveWorkedMinutes(signup.WorkedMinutes, signup.Shift.StartTime, signup.Shift.EndTime)

		entries = append(entries, TimelogEntry{
			SignupID:         signup.ID,
			UserID:           signup.UserID,
			VolunteerName:    signup.User.Name,
			VolunteerEmail:   signup.User.Email,
			ShiftID:          signup.ShiftID,
			ShiftTitle:       signup.Shift.Title,
			ShiftDate:        signup.Shift.Date,
			ShiftStart:       clock.ShiftStart(signup.Shift),
			ShiftEnd:         clock.ShiftEnd(signup.Shift),
			ScheduledMinutes: scheduled,
			WorkedMinutes:    signup.WorkedMinutes,
			EffectiveMinutes: effective,
		})

		total, ok := totalsMap[signup.UserID]
		if !ok {
			totalsMap[signup.UserID] = &TimelogTotal{
				UserID:         signup.UserID,
				VolunteerName:  signup.User.Name,
				VolunteerEmail: signup.User.Email,
				TotalMinutes:   effective,
			}
			continue
		}
		total.TotalMinutes += effective
	}

	totals := make([]TimelogTotal, 0, len(totalsMap))
	for _, total := range totalsMap {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].VolunteerName < totals[j].VolunteerName
	})

	return &Timelog{Entries: entries, Totals: totals}
}

type MonthlyTotal struct {
	Month   string  `json:"month"` // YYYY-MM
	Minutes int32   `json:"minutes"`
	Hours   float64 `json:"hours"`
}

// MonthlyTotals 按固定时区的自然月聚合有效工时
func MonthlyTotals(entries []TimelogEntry, loc *time.Location) []MonthlyTotal {
	byMonth := make(map[string]int32)
	for _, entry := range entries {
		date := entry.ShiftDate.In(loc)
		key := fmt.Sprintf("%04d-%02d", date.Year(), int(date.Month()))
		byMonth[key] += entry.EffectiveMinutes
	}

	totals := make([]MonthlyTotal, 0, len(byMonth))
	for month, minutes := range byMonth {
		totals = append(totals, MonthlyTotal{
			Month:   month,
			Minutes: minutes,
			Hours:   MinutesToHours(minutes),
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Month < totals[j].Month
	})

	return totals
}

type ActiveVolunteer struct {
	UserID         int64   `json:"userId"`
	VolunteerName  string  `json:"volunteerName"`
	VolunteerEmail string  `json:"volunteerEmail"`
	Minutes        int32   `json:"minutes"`
	Hours          float64 `json:"hours"`
}

// ActiveVolunteers 筛选累计工时达到阈值的志愿者，按工时降序
func ActiveVolunteers(totals []TimelogTotal, minMinutes int32) []ActiveVolunteer {
	active := make([]ActiveVolunteer, 0)
	for _, total := range totals {
		if total.TotalMinutes < minMinutes {
			continue
		}
		active = append(active, ActiveVolunteer{
			UserID:         total.UserID,
			VolunteerName:  total.VolunteerName,
			VolunteerEmail: total.VolunteerEmail,
			Minutes:        total.TotalMinutes,
			Hours:          MinutesToHours(total.TotalMinutes),
		})
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Minutes > active[j].Minutes
	})

	return active
}

// ShiftFill 是缺员统计的输入行
type ShiftFill struct {
	Shift          domain.Shift
	ConfirmedCount int32
	WaitlistCount  int32
}

type UnderfilledShift struct {
	ShiftID        int64     `json:"shiftId"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	MaxVolunteers  int32     `json:"maxVolunteers"`
	ConfirmedCount int32     `json:"confirmedCount"`
	WaitlistCount  int32     `json:"waitlistCount"`
	Vacancy        int32     `json:"vacancy"`
}

const underfilledLimit = 10

// UnderfilledShifts 返回空缺最多的前十个班次
func UnderfilledShifts(rows []ShiftFill) []UnderfilledShift {
	underfilled := make([]UnderfilledShift, 0)
	for _, row := range rows {
		vacancy := row.Shift.MaxVolunteers - row.ConfirmedCount
		if vacancy <= 0 {
			continue
		}
		underfilled = append(underfilled, UnderfilledShift{
			ShiftID:        row.Shift.ID,
			Title:          row.Shift.Title,
			Date:           row.Shift.Date,
			MaxVolunteers:  row.Shift.MaxVolunteers,
			ConfirmedCount: row.ConfirmedCount,
			WaitlistCount:  row.WaitlistCount,
			Vacancy:        vacancy,
		})
	}
	sort.Slice(underfilled, func(i, j int) bool {
		return underfilled[i].Vacancy > underfilled[j].Vacancy
	})

	if len(underfilled) > underfilledLimit {
		underfilled = underfilled[:underfilledLimit]
	}

	return underfilled
}
