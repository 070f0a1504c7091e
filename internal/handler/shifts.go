package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/utils"
)

func (h *Handler) GetAllShifts(w http.ResponseWriter, r *http.Request) {
	details, err := h.repository.GetAllShiftDetails()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	now := time.Now()
	for _, detail := range details {
		detail.IsPast = h.clock.IsPast(&detail.Shift, now)
	}

	h.successResponse(w, r, "获取班次列表成功", details)
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title         string  `json:"title" validate:"required"`
		Description   *string `json:"description"`
		Notes         *string `json:"notes"`
		Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
		Type          string  `json:"type" validate:"required"`
		StartTime     string  `json:"startTime" validate:"required"`
		EndTime       string  `json:"endTime" validate:"required"`
		MaxVolunteers int32   `json:"maxVolunteers" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := utils.ValidateShiftTimes(req.StartTime, req.EndTime); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, h.clock.Location())
	if err != nil {
		h.errorResponse(w, r, "日期格式错误")
		return
	}

	shiftType := domain.ShiftTypeMorning
	if domain.ShiftType(req.Type) == domain.ShiftTypeEvening {
		shiftType = domain.ShiftTypeEvening
	}

	shift := &domain.Shift{
		Title:         req.Title,
		Description:   req.Description,
		Notes:         req.Notes,
		Date:          date,
		Type:          shiftType,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		MaxVolunteers: req.MaxVolunteers,
	}

	if err := h.repository.CreateShift(shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建班次成功", shift)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	var req struct {
		Title         *string `json:"title"`
		Description   *string `json:"description"`
		Notes         *string `json:"notes"`
		Date          *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Type          *string `json:"type"`
		StartTime     *string `json:"startTime"`
		EndTime       *string `json:"endTime"`
		MaxVolunteers *int32  `json:"maxVolunteers" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Title != nil {
		shift.Title = *req.Title
	}
	if req.Description != nil {
		shift.Description = req.Description
	}
	if req.Notes != nil {
		shift.Notes = req.Notes
	}
	if req.Date != nil {
		date, err := time.ParseInLocation("2006-01-02", *req.Date, h.clock.Location())
		if err != nil {
			h.errorResponse(w, r, "日期格式错误")
			return
		}
		shift.Date = date
	}
	if req.Type != nil && domain.ShiftType(*req.Type) == domain.ShiftTypeEvening {
		shift.Type = domain.ShiftTypeEvening
	} else if req.Type != nil {
		shift.Type = domain.ShiftTypeMorning
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.MaxVolunteers != nil {
		// 缩容不会取消已确认的报名，只影响后续的报名与晋升判断
		shift.MaxVolunteers = *req.MaxVolunteers
	}

	if err := utils.ValidateShiftTimes(shift.StartTime, shift.EndTime); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.UpdateShift(shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新班次成功", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if err := h.repository.DeleteShift(shift.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除班次成功", nil)
}
