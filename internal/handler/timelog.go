package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/stats"
)

// parseDateParam 解析 "2006-01-02" 格式的查询参数，缺省时返回 nil
func (h *Handler) parseDateParam(r *http.Request, name string) (*time.Time, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, true
	}

	t, err := time.ParseInLocation("2006-01-02", value, h.clock.Location())
	if err != nil {
		return nil, false
	}
	return &t, true
}

// endOfDayBound 把闭区间的 to（当天零点）换算成次日零点的开区间上界。
// 班次日期存的是当天零点，和这个上界做严格小于比较即含 to 当天、不含次日。
func endOfDayBound(to *time.Time) *time.Time {
	if to == nil {
		return nil
	}
	bound := to.Add(24 * time.Hour)
	return &bound
}

func (h *Handler) GetTimelog(w http.ResponseWriter, r *http.Request) {
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
	signups, err := h.repository.GetConfirmedSignupsInRange(from, endOfDayBound(to))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	timelog := stats.BuildTimelog(signups, h.clock, time.Now())

	h.successResponse(w, r, "获取工时台账成功", timelog)
}
