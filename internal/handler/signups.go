package handler

import (
	"database/sql"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/stats"
)

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftID      int64   `json:"shiftId" validate:"required"`
		Comment      *string `json:"comment"`
		TargetUserID *int64  `json:"targetUserId"`
		TargetEmail  *string `json:"targetEmail"`
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
	isAdmin := myInfo.Role == domain.RoleAdmin

	// 管理员可以指定志愿者代为报名，普通志愿者只能给自己报名
	var signupReq domain.SignupRequest
	assignedByAdmin := false

	switch {
	case req.TargetUserID != nil || req.TargetEmail != nil:
		if !isAdmin {
			h.errorResponse(w, r, "只有管理员可以替其他志愿者报名")
			return
		}

		var target *domain.User
		var err error
		if req.TargetUserID != nil {
			target, err = h.repository.GetUserByID(*req.TargetUserID)
		} else {
			target, err = h.repository.GetUserByEmail(*req.TargetEmail)
		}
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "找不到该志愿者")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		assignedByAdmin = target.ID != myInfo.ID
		signupReq = domain.AdminAssignedSignup{
			RequesterID: myInfo.ID,
			TargetID:    target.ID,
			Comment:     req.Comment,
		}
	default:
		signupReq = domain.SelfSignup{
			UserID:  myInfo.ID,
			IsAdmin: isAdmin,
			Comment: req.Comment,
		}
	}

	created, err := h.engine.SignUp(r.Context(), req.ShiftID, signupReq)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	signup, err := h.repository.GetSignupWithRelations(created.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.publishMail(domain.MailMessage{
		Type: domain.MailTypeSignupNotification,
		To:   h.config.Email.AdminAddress,
		Data: domain.SignupNotificationMailData{
			VolunteerName:  signup.User.Name,
			VolunteerEmail: signup.User.Email,
			ShiftTitle:     signup.Shift.Title,
			ShiftDate:      h.formatShiftDate(signup.Shift),
			Comment:        commentOrDefault(signup.Comment),
			Status:         string(domain.SignupStatusConfirmed),
		},
	})

	if assignedByAdmin {
		h.publishMail(domain.MailMessage{
			Type: domain.MailTypeVolunteerAdded,
			To:   signup.User.Email,
			Data: domain.VolunteerAddedMailData{
				VolunteerName: signup.User.Name,
				ShiftTitle:    signup.Shift.Title,
				ShiftDate:     h.formatShiftDate(signup.Shift),
				ShiftStart:    signup.Shift.StartTime,
				ShiftEnd:      signup.Shift.EndTime,
			},
		})
		h.successResponse(w, r, "已替志愿者 "+signup.User.Name+" 报名该班次", signup)
		return
	}

	h.successResponse(w, r, "报名成功", signup)
}

func (h *Handler) CancelSignup(w http.ResponseWriter, r *http.Request) {
	signupIDParam := chi.URLParam(r, "id")
	signupID, err := strconv.ParseInt(signupIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "报名ID无效")
		return
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	isAdmin := myInfo.Role == domain.RoleAdmin

	result, err := h.engine.Cancel(r.Context(), signupID, myInfo.ID, isAdmin)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	// 重复取消：直接报成功，不发通知也不晋升
	if result.NoOp {
		h.successResponse(w, r, "该报名已是取消状态", result)
		return
	}

	cancelled, err := h.repository.GetSignupWithRelations(result.Cancelled.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	result.Cancelled = cancelled

	initiatedByAdmin := isAdmin && cancelled.UserID != myInfo.ID

	h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCancellation,
		To:   h.config.Email.AdminAddress,
		Data: domain.CancellationMailData{
			VolunteerName:    cancelled.User.Name,
			VolunteerEmail:   cancelled.User.Email,
			ShiftTitle:       cancelled.Shift.Title,
			ShiftDate:        h.formatShiftDate(cancelled.Shift),
			InitiatedByAdmin: isAdmin,
		},
	})
	h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCancellation,
		To:   cancelled.User.Email,
		Data: domain.CancellationMailData{
			VolunteerName:    cancelled.User.Name,
			VolunteerEmail:   cancelled.User.Email,
			ShiftTitle:       cancelled.Shift.Title,
			ShiftDate:        h.formatShiftDate(cancelled.Shift),
			InitiatedByAdmin: initiatedByAdmin,
		},
	})

	if result.Promotion != nil {
		promoted, err := h.repository.GetSignupWithRelations(result.Promotion.Signup.ID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		result.Promotion.Signup = promoted

		data := domain.PromotionMailData{
			VolunteerName:  promoted.User.Name,
			VolunteerEmail: promoted.User.Email,
			ShiftTitle:     promoted.Shift.Title,
			ShiftDate:      h.formatShiftDate(promoted.Shift),
			Comment:        commentOrDefault(promoted.Comment),
		}
		h.publishMail(domain.MailMessage{Type: domain.MailTypePromotion, To: h.config.Email.AdminAddress, Data: data})
		h.publishMail(domain.MailMessage{Type: domain.MailTypePromotion, To: promoted.User.Email, Data: data})
	}

	msg := "已取消报名"
	if isAdmin && cancelled.UserID != myInfo.ID {
		msg = "已将志愿者移出该班次"
	}

	h.successResponse(w, r, msg, result)
}

func (h *Handler) GetMySignups(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	signups, err := h.repository.GetConfirmedSignupsForUser(myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取我的报名成功", signups)
}

// UpdateWorkedHours 管理员录入或清除实际工时，入参以小时为单位
func (h *Handler) UpdateWorkedHours(w http.ResponseWriter, r *http.Request) {
	signupIDParam := chi.URLParam(r, "id")
	signupID, err := strconv.ParseInt(signupIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "报名ID无效")
		return
	}

	var req struct {
		Hours *float64 `json:"hours"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// null 表示清除覆盖值，回退到计划时长
	var minutes *int32
	if req.Hours != nil {
		if *req.Hours < 0 {
			h.errorResponse(w, r, "工时不能为负数")
			return
		}
		rounded := int32(math.Round(*req.Hours * 60))
		minutes = &rounded
	}

	if err := h.repository.SetWorkedMinutes(signupID, minutes); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "报名不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	signup, err := h.repository.GetSignupWithRelations(signupID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	effective := shifttime.EffectiveWorkedMinutes(signup.WorkedMinutes, signup.Shift.StartTime, signup.Shift.EndTime)

	data := map[string]any{
		"signupId":         signup.ID,
		"workedMinutes":    signup.WorkedMinutes,
		"effectiveMinutes": effective,
		"effectiveHours":   stats.MinutesToHours(effective),
	}
	if signup.WorkedMinutes != nil {
		data["workedHours"] = stats.MinutesToHours(*signup.WorkedMinutes)
	}

	h.successResponse(w, r, "工时已更新", data)
}
