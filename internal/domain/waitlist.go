package domain

import "time"

// WaitlistEntry 是满员班次上的候补登记，按 CreatedAt 升序晋升，
// 时间相同时以 ID 作为次序的决胜键。
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	ShiftID   int64     `json:"shiftId"`
	UserID    int64     `json:"userId"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`

	Shift *Shift       `json:"shift,omitempty"`
	User  *UserSummary `json:"user,omitempty"`
}
