package domain

import "time"

type SignupStatus string

const (
	SignupStatusConfirmed SignupStatus = "CONFIRMED"
	SignupStatusCancelled SignupStatus = "CANCELLED"
)

type Signup struct {
	ID             int64        `json:"id"`
	ShiftID        int64        `json:"shiftId"`
	UserID         int64        `json:"userId"`
	Status         SignupStatus `json:"status"`
	Comment        *string      `json:"comment"`
	WorkedMinutes  *int32       `json:"workedMinutes"`
	ConfirmedAt    *time.Time   `json:"confirmedAt"`
	CancelledAt    *time.Time   `json:"cancelledAt"`
	ReminderSentAt *time.Time   `json:"reminderSentAt"`
	CreatedAt      time.Time    `json:"createdAt"`

	// 联表字段，按需填充
	Shift *Shift       `json:"shift,omitempty"`
	User  *UserSummary `json:"user,omitempty"`
}

// SignupRequest 是报名请求的两种变体：本人报名与管理员代报名。
// 二者的容量豁免规则不同，用类型区分而不是在运行时检查可选字段。
type SignupRequest interface {
	TargetUserID() int64
	SignupComment() *string
	// BypassCapacity 为 true 时跳过满员检查（管理员替他人报名时成立）
	BypassCapacity() bool
	// BypassPastCheck 为 true 时允许报名已结束的班次（管理员操作时成立）
	BypassPastCheck() bool
}

type SelfSignup struct {
	UserID  int64
	IsAdmin bool
	Comment *string
}

func (s SelfSignup) TargetUserID() int64    { return s.UserID }
func (s SelfSignup) SignupComment() *string { return s.Comment }
func (s SelfSignup) BypassCapacity() bool   { return false }
func (s SelfSignup) BypassPastCheck() bool  { return s.IsAdmin }

type AdminAssignedSignup struct {
	RequesterID int64
	TargetID    int64
	Comment     *string
}

func (a AdminAssignedSignup) TargetUserID() int64    { return a.TargetID }
func (a AdminAssignedSignup) SignupComment() *string { return a.Comment }
func (a AdminAssignedSignup) BypassCapacity() bool   { return a.TargetID != a.RequesterID }
func (a AdminAssignedSignup) BypassPastCheck() bool  { return true }
