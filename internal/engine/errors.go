package engine

import "errors"

// 前置条件不满足时返回的哨兵错误，handler 据此映射响应
var (
	ErrShiftNotFound         = errors.New("shift not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrSignupNotFound        = errors.New("signup not found")
	ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
	ErrShiftInPast           = errors.New("shift is already over")
	ErrShiftFull             = errors.New("shift is full")
	ErrShiftHasCapacity      = errors.New("shift still has capacity")
	ErrAlreadySigned         = errors.New("already signed up for this shift")
	ErrAlreadyWaitlisted     = errors.New("already on the waitlist for this shift")
	ErrCancelTooLate         = errors.New("cancellation window has closed")
	ErrForbidden             = errors.New("not allowed")
	ErrVolunteerBlocked      = errors.New("volunteer is blocked")
)
