package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
)

func (h *Handler) GetAllVolunteers(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.repository.GetAllVolunteers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取志愿者列表成功", volunteers)
}

func (h *Handler) UpdateVolunteerBlock(w http.ResponseWriter, r *http.Request) {
	volunteer := r.Context().Value(VolunteerCtx).(*domain.User)

	var req struct {
		Action string  `json:"action" validate:"required,oneof=block unblock"`
		Reason *string `json:"reason"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	switch req.Action {
	case "block":
		if volunteer.IsBlocked {
			h.errorResponse(w, r, "该志愿者已处于封禁状态")
			return
		}
		// 封禁的同时清空其所有候补，避免被封禁后仍被晋升
		if err := h.repository.BlockUser(volunteer, req.Reason); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.successResponse(w, r, "封禁志愿者成功", volunteer)
	case "unblock":
		if !volunteer.IsBlocked {
			h.errorResponse(w, r, "该志愿者未被封禁")
			return
		}
		if err := h.repository.UnblockUser(volunteer); err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.successResponse(w, r, "解封志愿者成功", volunteer)
	}
}

func (h *Handler) DeleteVolunteer(w http.ResponseWriter, r *http.Request) {
	volunteer := r.Context().Value(VolunteerCtx).(*domain.User)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	if volunteer.ID == myInfo.ID {
		h.errorResponse(w, r, "不能删除自己的账户")
		return
	}

	if err := h.repository.DeleteUser(volunteer.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除志愿者成功", nil)
}
