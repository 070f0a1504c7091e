package domain

import "time"

type ShiftType string

const (
	ShiftTypeMorning ShiftType = "早班"
	ShiftTypeEvening ShiftType = "晚班"
)

type Shift struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	Notes         *string   `json:"notes"`
	Date          time.Time `json:"date"`
	Type          ShiftType `json:"type"`
	StartTime     string    `json:"startTime"` // "HH:MM"，可为空字符串
	EndTime       string    `json:"endTime"`
	MaxVolunteers int32     `json:"maxVolunteers"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}

// ShiftDetail 是列表接口返回的班次视图，附带已确认报名与候补队列
type ShiftDetail struct {
	Shift
	SignupCount   int              `json:"signupCount"`
	WaitlistCount int              `json:"waitlistCount"`
	Signups       []*Signup        `json:"signups"`
	Waitlist      []*WaitlistEntry `json:"waitlist"`
	IsPast        bool             `json:"isPast"`
}
