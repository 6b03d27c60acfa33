package service

import (
	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/model"
)

// ── model → dto 转换 ──

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Username: u.Username, Name: u.FullName()}
}

func toUserBriefs(users []model.User) []dto.UserBrief {
	result := make([]dto.UserBrief, 0, len(users))
	for i := range users {
		result = append(result, *toUserBrief(&users[i]))
	}
	return result
}

func toUserResponse(u *model.User) *dto.UserResponse {
	groups := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, g.Name)
	}
	courses := make([]dto.CourseResponse, 0, len(u.TutorCourses))
	for i := range u.TutorCourses {
		courses = append(courses, *toCourseResponse(&u.TutorCourses[i]))
	}

	resp := &dto.UserResponse{
		ID:                 u.UserID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Groups:             groups,
		IsSuperuser:        u.IsSuperuser,
		IsRetired:          u.IsRetired,
		MustChangePassword: u.MustChangePassword,
		TutorCourses:       courses,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
	}
	if u.SICourse != nil {
		resp.SICourse = toCourseResponse(u.SICourse)
	}
	return resp
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		ID:         c.CourseID,
		Department: c.Department,
		Number:     c.Number,
		Code:       c.Code(),
		Name:       c.Name,
	}
}

func toHardwareResponse(h *model.Hardware) *dto.HardwareResponse {
	if h == nil {
		return nil
	}
	return &dto.HardwareResponse{
		ID:          h.HardwareID,
		Name:        h.Name,
		IsAvailable: h.IsAvailable,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func toLoanResponse(l *model.Loan) *dto.LoanResponse {
	return &dto.LoanResponse{
		ID:         l.LoanID,
		Hardware:   toHardwareResponse(l.Hardware),
		User:       toUserBrief(l.User),
		StartTime:  l.StartTime,
		ReturnTime: l.ReturnTime,
		IsOpen:     l.IsOpen(),
	}
}

func toLocationResponse(loc *model.Location) *dto.LocationResponse {
	if loc == nil {
		return nil
	}
	return &dto.LocationResponse{
		ID:        loc.LocationID,
		Name:      loc.Name,
		Address:   loc.Address,
		IsDefault: loc.IsDefault,
		IsActive:  loc.IsActive,
		CreatedAt: loc.CreatedAt,
		UpdatedAt: loc.UpdatedAt,
	}
}

func toShiftResponse(s *model.Shift) *dto.ShiftResponse {
	if s == nil {
		return nil
	}
	return &dto.ShiftResponse{
		ID:              s.ShiftID,
		Person:          toUserBrief(s.Person),
		Location:        toLocationResponse(s.Location),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime(),
		DurationMinutes: s.DurationMinutes,
	}
}

func toShiftChangeRequestResponse(r *model.ShiftChangeRequest) *dto.ShiftChangeRequestResponse {
	return &dto.ShiftChangeRequestResponse{
		ID:                 r.ShiftChangeRequestID,
		Status:             r.Status(),
		Shift:              toShiftResponse(r.Shift),
		RequestedBy:        toUserBrief(r.RequestedBy),
		NewPerson:          toUserBrief(r.NewPerson),
		NewStartTime:       r.NewStartTime,
		NewDurationMinutes: r.NewDurationMinutes,
		NewLocation:        toLocationResponse(r.NewLocation),
		Reason:             r.Reason,
		Approved:           r.Approved,
		ApprovedBy:         toUserBrief(r.ApprovedBy),
		ApprovedOn:         r.ApprovedOn,
		CreatedAt:          r.CreatedAt,
	}
}
