package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// SendReminders 给开班前提醒窗口内、尚未提醒过的已确认报名发送提醒邮件。
// 由管理员手动触发或外部定时任务定期调用，已提醒过的报名会被跳过，重复调用是安全的。
func (h *Handler) SendReminders(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	window := time.Duration(h.config.Shift.ReminderWindowHours) * time.Hour

	// 数据库按日历日期粗筛，精确的开班时间在固定时区下再算一遍
	candidates, err := h.repository.GetReminderCandidates(now.Add(-24*time.Hour), now.Add(window+24*time.Hour))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	sent := 0
	skipped := 0
	for _, signup := range candidates {
		start := h.clock.ShiftStart(signup.Shift)
		if start.Before(now) || start.After(now.Add(window)) {
			skipped++
			continue
		}

		h.publishMail(domain.MailMessage{
			Type: domain.MailTypeShiftReminder,
			To:   signup.User.Email,
			Data: domain.ShiftReminderMailData{
				VolunteerName: signup.User.Name,
				ShiftTitle:    signup.Shift.Title,
				ShiftDate:     h.formatShiftDate(signup.Shift),
				ShiftStart:    signup.Shift.StartTime,
				ShiftEnd:      signup.Shift.EndTime,
			},
		})

		if err := h.repository.MarkReminderSent(signup.ID); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		sent++
	}

	data := struct {
		Sent    int `json:"sent"`
		Skipped int `json:"skipped"`
	}{
		Sent:    sent,
		Skipped: skipped,
	}

	h.successResponse(w, r, "提醒邮件发送完成", data)
}
