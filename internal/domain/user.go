package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin     Role = "管理员"
	RoleVolunteer Role = "志愿者"
)

type User struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	IsBlocked     bool       `json:"isBlocked"`
	BlockedReason *string    `json:"blockedReason,omitempty"`
	BlockedAt     *time.Time `json:"blockedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	Version       int32      `json:"-"`
}

// UserSummary 嵌套在报名等返回值中，只暴露基本信息
type UserSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
