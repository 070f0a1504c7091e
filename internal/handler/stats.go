package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/stats"
)

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	from, ok := h.parseDateParam(r, "from")
	if !ok {
		h.errorResponse(w, r, "from 日期格式错误，应为 YYYY-MM-DD")
		return
	}
	to, ok := h.parseDateParam(r, "to")
	if !ok {
		h.errorResponse(w, r, "to 日期格式错误，应为 YYYY-MM-DD")
		return
	}
	to = endOfDayBound(to)

	signups, err := h.repository.GetConfirmedSignupsInRange(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	fillRows, err := h.repository.GetShiftFillRows(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	timelog := stats.BuildTimelog(signups, h.clock, time.Now())

	fills := make([]stats.ShiftFill, 0, len(fillRows))
	for _, row := range fillRows {
		fills = append(fills, stats.ShiftFill{
			Shift:          row.Shift,
			ConfirmedCount: row.ConfirmedCount,
			WaitlistCount:  row.WaitlistCount,
		})
	}

	minMinutes := int32(h.config.Stats.ActiveMinHours * 60)

	data := struct {
		Monthly           []stats.MonthlyTotal     `json:"monthly"`
		ActiveVolunteers  []stats.ActiveVolunteer  `json:"activeVolunteers"`
		UnderfilledShifts []stats.UnderfilledShift `json:"underfilledShifts"`
	}{
		Monthly:           stats.MonthlyTotals(timelog.Entries, h.clock.Location()),
		ActiveVolunteers:  stats.ActiveVolunteers(timelog.Totals, minMinutes),
		UnderfilledShifts: stats.UnderfilledShifts(fills),
	}

	h.successResponse(w, r, "获取统计数据成功", data)
}
