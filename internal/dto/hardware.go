package dto

import "time"

// ── 设备与借用 DTO ──

// HardwareResponse 设备信息
type HardwareResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoanResponse 借用记录
type LoanResponse struct {
	ID         string            `json:"id"`
	Hardware   *HardwareResponse `json:"hardware,omitempty"`
	User       *UserBrief        `json:"user,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	ReturnTime *time.Time        `json:"return_time,omitempty"`
	IsOpen     bool              `json:"is_open"`
}
