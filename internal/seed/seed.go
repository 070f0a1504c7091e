package seed

import (
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/repository"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

// 每个日历日照例开早晚两个班
var dailyShifts = []domain.Shift{
	{
		Title:         "早班",
		Type:          domain.ShiftTypeMorning,
		StartTime:     "09:00",
		EndTime:       "13:00",
		MaxVolunteers: 3,
	},
	{
		Title:         "晚班",
		Type:          domain.ShiftTypeEvening,
		StartTime:     "17:00",
		EndTime:       "21:00",
		MaxVolunteers: 2,
	},
}

// SeedShifts 从明天开始插入 days 天的早晚班
func SeedShifts(r *repository.Repository, clock *shifttime.Clock, days int) {
	today := time.Now().In(clock.Location())
	cnt := 0

	for i := 1; i <= days; i++ {
		date := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, clock.Location()).AddDate(0, 0, i)

		for _, proto := range dailyShifts {
			shift := proto
			shift.Date = date

			if err := r.CreateShift(&shift); err != nil {
				slog.Error("无法插入班次", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
	}

	slog.Info("插入班次成功", slog.Int("count", cnt))
}
