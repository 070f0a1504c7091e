package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

// CreateApplication 是公开接口，申请人此时还没有账户
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string  `json:"name" validate:"required,max=50"`
		Email   string  `json:"email" validate:"required,email"`
		Phone   *string `json:"phone"`
		Message string  `json:"message" validate:"required,max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 同一邮箱已有待审核或已通过的申请时不允许重复提交
	active, err := h.repository.HasActiveApplication(req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if active {
		h.errorResponse(w, r, "该邮箱已提交过申请，请耐心等待审核")
		return
	}

	if _, err := h.repository.GetUserByEmail(req.Email); err == nil {
		h.errorResponse(w, r, "该邮箱已注册账户，请直接登录")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.internalServerError(w, r, err)
		return
	}

	app := &domain.VolunteerApplication{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
		Status:  domain.ApplicationStatusPending,
	}

	if err := h.repository.CreateApplication(app); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交入队申请成功", app)
}

func (h *Handler) GetAllApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := h.repository.GetAllApplications()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取申请列表成功", applications)
}

func (h *Handler) ReviewApplication(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "无效的申请 ID")
		return
	}

	var req struct {
		Action string `json:"action" validate:"required,oneof=approve reject"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	app, err := h.repository.GetApplicationByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "申请不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if app.Status != domain.ApplicationStatusPending {
		h.errorResponse(w, r, "该申请已审核过")
		return
	}

	switch req.Action {
	case "approve":
		invite := &domain.InviteToken{
			Email:         app.Email,
			ApplicationID: app.ID,
			Token:         uuid.NewString(),
			ExpiresAt:     time.Now().Add(time.Duration(h.config.Invite.ExpirationDays) * 24 * time.Hour),
		}

		if err := h.repository.ApproveApplication(app, invite); err != nil {
			h.internalServerError(w, r, err)
			return
		}

		h.publishMail(domain.MailMessage{
			Type: domain.MailTypeInvite,
			To:   app.Email,
			Data: domain.InviteMailData{
				ApplicantName: app.Name,
				InviteURL:     fmt.Sprintf("%s/register?token=%s", h.config.BaseURL, invite.Token),
				ExpiresAt:     invite.ExpiresAt.In(h.clock.Location()).Format("2006-01-02 15:04"),
			},
		})

		h.successResponse(w, r, "申请已通过，注册邀请已发送", app)
	case "reject":
		if err := h.repository.RejectApplication(app); err != nil {
			h.internalServerError(w, r, err)
			return
		}

		h.publishMail(domain.MailMessage{
			Type: domain.MailTypeApplicationRejected,
			To:   app.Email,
			Data: domain.ApplicationRejectedMailData{
				ApplicantName: app.Name,
			},
		})

		h.successResponse(w, r, "申请已拒绝", app)
	}
}
