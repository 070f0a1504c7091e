package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/engine"
)

// Response 是统一的响应信封，业务失败也返回 200，靠 success 区分
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("服务器内部错误", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "服务器内部错误", http.StatusInternalServerError)
	}
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "服务器内部错误",
		Data:    nil,
	})
}

// engineError 把引擎的哨兵错误映射为业务提示，未识别的错误按 500 处理
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrShiftNotFound):
		h.errorResponse(w, r, "班次不存在")
	case errors.Is(err, engine.ErrUserNotFound):
		h.errorResponse(w, r, "找不到该志愿者")
	case errors.Is(err, engine.ErrSignupNotFound):
		h.errorResponse(w, r, "报名不存在")
	case errors.Is(err, engine.ErrWaitlistEntryNotFound):
		h.errorResponse(w, r, "候补登记不存在")
	case errors.Is(err, engine.ErrShiftInPast):
		h.errorResponse(w, r, "班次已经结束")
	case errors.Is(err, engine.ErrShiftFull):
		h.errorResponse(w, r, "班次已满，您可以登记候补")
	case errors.Is(err, engine.ErrShiftHasCapacity):
		h.errorResponse(w, r, "班次还有空位，请直接报名")
	case errors.Is(err, engine.ErrAlreadySigned):
		h.errorResponse(w, r, "您已报名该班次")
	case errors.Is(err, engine.ErrAlreadyWaitlisted):
		h.errorResponse(w, r, "您已在该班次的候补队列中")
	case errors.Is(err, engine.ErrCancelTooLate):
		h.errorResponse(w, r, "距离开班不足 24 小时，无法自行取消，请联系管理员")
	case errors.Is(err, engine.ErrForbidden):
		h.errorResponse(w, r, "没有权限执行该操作")
	case errors.Is(err, engine.ErrVolunteerBlocked):
		h.errorResponse(w, r, "该志愿者已被移出队伍，无法报名")
	default:
		h.internalServerError(w, r, err)
	}
}
