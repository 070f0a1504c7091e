package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftID int64   `json:"shiftId" validate:"required"`
		Comment *string `json:"comment"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	entry, err := h.engine.JoinWaitlist(r.Context(), req.ShiftID, myInfo.ID, req.Comment)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	shift, err := h.repository.GetShiftByID(entry.ShiftID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	entry.Shift = shift
	summary := myInfo.Summary()
	entry.User = &summary

	h.publishMail(domain.MailMessage{
		Type: domain.MailTypeSignupNotification,
		To:   h.config.Email.AdminAddress,
		Data: domain.SignupNotificationMailData{
			VolunteerName:  myInfo.Name,
			VolunteerEmail: myInfo.Email,
			ShiftTitle:     shift.Title,
			ShiftDate:      h.formatShiftDate(shift),
			Comment:        commentOrDefault(entry.Comment),
			Status:         "WAITLISTED",
		},
	})

	h.successResponse(w, r, "已登记候补，有空位时会按先后顺序自动递补", entry)
}

func (h *Handler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	entryIDParam := chi.URLParam(r, "id")
	entryID, err := strconv.ParseInt(entryIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "候补ID无效")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	isAdmin := myInfo.Role == domain.RoleAdmin

	if _, err := h.engine.LeaveWaitlistByID(r.Context(), entryID, myInfo.ID, isAdmin); err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "已移除候补登记", nil)
}

func (h *Handler) LeaveWaitlistByShift(w http.ResponseWriter, r *http.Request) {
	shiftIDParam := chi.URLParam(r, "shiftId")
	shiftID, err := strconv.ParseInt(shiftIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "班次ID无效")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if _, err := h.engine.LeaveWaitlistByShift(r.Context(), shiftID, myInfo.ID); err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "已移除候补登记", nil)
}

func (h *Handler) GetShiftWaitlist(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	entries, err := h.repository.GetWaitlistForShift(shift.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取候补队列成功", entries)
}
