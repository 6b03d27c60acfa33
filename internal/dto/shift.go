package dto

import "time"

// ── 值班与换班 DTO ──

// ShiftResponse 值班信息
type ShiftResponse struct {
	ID              string            `json:"id"`
	Person          *UserBrief        `json:"person,omitempty"`
	Location        *LocationResponse `json:"location,omitempty"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	DurationMinutes int               `json:"duration_minutes"`
}

// ShiftChangeRequestResponse 换班申请
type ShiftChangeRequestResponse struct {
	ID                 string            `json:"id"`
	Status             string            `json:"status"`
	Shift              *ShiftResponse    `json:"shift,omitempty"`
	RequestedBy        *UserBrief        `json:"requested_by,omitempty"`
	NewPerson          *UserBrief        `json:"new_person,omitempty"`
	NewStartTime       time.Time         `json:"new_start_time"`
	NewDurationMinutes int               `json:"new_duration_minutes"`
	NewLocation        *LocationResponse `json:"new_location,omitempty"`
	Reason             string            `json:"reason,omitempty"`
	Approved           bool              `json:"approved"`
	ApprovedBy         *UserBrief        `json:"approved_by,omitempty"`
	ApprovedOn         *time.Time        `json:"approved_on,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// CreateShiftsResponse 新建值班结果（重复规则可能生成多条）
type CreateShiftsResponse struct {
	Shifts []ShiftResponse `json:"shifts"`
}
