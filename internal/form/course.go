package form

import (
	"net/url"
	"strings"

	"github.com/umass-lrc/database/internal/model"
)

// CourseInput 课程表单
type CourseInput struct {
	Department string `form:"department" validate:"required,max=20"`
	Number     string `form:"number"     validate:"required,max=10"`
	Name       string `form:"name"       validate:"required,max=200"`
}

// ParseCourse 校验课程表单；院系代码统一转为大写
func ParseCourse(values url.Values) (*CourseInput, FieldErrors) {
	r := newReader(values, nil)
	in := &CourseInput{
		Department: strings.ToUpper(r.str("department")),
		Number:     strings.ToUpper(r.str("number")),
		Name:       r.str("name"),
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入课程记录
func (in *CourseInput) Apply(c *model.Course) {
	c.Department = in.Department
	c.Number = in.Number
	c.Name = in.Name
}

// LocationInput 值班地点表单
type LocationInput struct {
	Name      string `form:"name"    validate:"required,max=100"`
	Address   string `form:"address" validate:"max=200"`
	IsDefault bool   `form:"is_default"`
	IsActive  bool   `form:"is_active"`
}

// ParseLocation 校验地点表单
func ParseLocation(values url.Values) (*LocationInput, FieldErrors) {
	r := newReader(values, nil)
	in := &LocationInput{
		Name:      r.str("name"),
		Address:   r.str("address"),
		IsDefault: r.boolean("is_default"),
		IsActive:  r.boolean("is_active"),
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入地点记录
func (in *LocationInput) Apply(l *model.Location) {
	l.Name = in.Name
	l.Address = in.Address
	l.IsDefault = in.IsDefault
	l.IsActive = in.IsActive
}
