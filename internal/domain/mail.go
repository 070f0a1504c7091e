package domain

// MailMessage 是发往 email_queue 的通知事件，由 mail worker 消费后发送。
// 业务事务提交后才发布，发送失败不影响业务结果。
type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeSignupNotification  = "signup_notification" // 报名/候补 -> 管理员
	MailTypeVolunteerAdded      = "volunteer_added"     // 管理员代报名 -> 志愿者
	MailTypeCancellation        = "cancellation"
	MailTypePromotion           = "promotion"
	MailTypeShiftReminder       = "shift_reminder"
	MailTypeInvite              = "invite"
	MailTypeApplicationRejected = "application_rejected"
	MailTypeResetPassword       = "reset_password"
)

type SignupNotificationMailData struct {
	VolunteerName  string `json:"volunteerName"`
	VolunteerEmail string `json:"volunteerEmail"`
	ShiftTitle     string `json:"shiftTitle"`
	ShiftDate      string `json:"shiftDate"`
	Comment        string `json:"comment"`
	Status         string `json:"status"` // CONFIRMED 或 WAITLISTED
}

type VolunteerAddedMailData struct {
	VolunteerName string `json:"volunteerName"`
	ShiftTitle    string `json:"shiftTitle"`
	ShiftDate     string `json:"shiftDate"`
	ShiftStart    string `json:"shiftStart"`
	ShiftEnd      string `json:"shiftEnd"`
}

type CancellationMailData struct {
	VolunteerName    string `json:"volunteerName"`
	VolunteerEmail   string `json:"volunteerEmail"`
	ShiftTitle       string `json:"shiftTitle"`
	ShiftDate        string `json:"shiftDate"`
	InitiatedByAdmin bool   `json:"initiatedByAdmin"`
}

type PromotionMailData struct {
	VolunteerName  string `json:"volunteerName"`
	VolunteerEmail string `json:"volunteerEmail"`
	ShiftTitle     string `json:"shiftTitle"`
	ShiftDate      string `json:"shiftDate"`
	Comment        string `json:"comment"`
}

type ShiftReminderMailData struct {
	VolunteerName string `json:"volunteerName"`
	ShiftTitle    string `json:"shiftTitle"`
	ShiftDate     string `json:"shiftDate"`
	ShiftStart    string `json:"shiftStart"`
	ShiftEnd      string `json:"shiftEnd"`
}

type InviteMailData struct {
	ApplicantName string `json:"applicantName"`
	InviteURL     string `json:"inviteURL"`
	ExpiresAt     string `json:"expiresAt"`
}

type ApplicationRejectedMailData struct {
	ApplicantName string `json:"applicantName"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"` // 分钟
}
