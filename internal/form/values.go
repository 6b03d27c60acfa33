package form

import (
	"strconv"
	"strings"
	"time"

	"github.com/umass-lrc/database/internal/model"
)

// 编辑页面预填值：与对应 Parse 函数读取的字段名一致

const inputLayout = "2006-01-02T15:04"

func boolValue(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func HardwareValues(h *model.Hardware) map[string]string {
	return map[string]string{
		"name":         h.Name,
		"is_available": boolValue(h.IsAvailable),
	}
}

func LoanValues(l *model.Loan, loc *time.Location) map[string]string {
	v := map[string]string{
		"hardware":   l.HardwareID,
		"user":       l.UserID,
		"start_time": l.StartTime.In(loc).Format(inputLayout),
	}
	if l.ReturnTime != nil {
		v["return_time"] = l.ReturnTime.In(loc).Format(inputLayout)
	}
	return v
}

func CourseValues(c *model.Course) map[string]string {
	return map[string]string{
		"department": c.Department,
		"number":     c.Number,
		"name":       c.Name,
	}
}

func LocationValues(l *model.Location) map[string]string {
	return map[string]string{
		"name":       l.Name,
		"address":    l.Address,
		"is_default": boolValue(l.IsDefault),
		"is_active":  boolValue(l.IsActive),
	}
}

// ProfileValues 资料编辑预填值；staff 为 false 时只包含可编辑字段
func ProfileValues(u *model.User, staff bool) map[string]string {
	v := map[string]string{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
	}
	if !staff {
		return v
	}

	groups := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		groups = append(groups, g.Name)
	}
	courses := make([]string, 0, len(u.TutorCourses))
	for _, c := range u.TutorCourses {
		courses = append(courses, c.CourseID)
	}

	v["groups"] = strings.Join(groups, ",")
	v["is_retired"] = boolValue(u.IsRetired)
	v["tutor_courses"] = strings.Join(courses, ",")
	if u.SICourseID != nil {
		v["si_course"] = *u.SICourseID
	}
	return v
}

// DurationValue 分钟数的表单显示值
func DurationValue(minutes int) string {
	return strconv.Itoa(minutes)
}
