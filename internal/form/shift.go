package form

import (
	"net/url"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/umass-lrc/database/internal/model"
)

// ShiftInput 新建值班；RRule 非空时按重复规则批量生成
type ShiftInput struct {
	PersonID        string    `form:"person"   validate:"required,uuid"`
	LocationID      string    `form:"location" validate:"required,uuid"`
	StartTime       time.Time `form:"start_time"`
	DurationMinutes int       `form:"duration"`
	RRule           string    `form:"rrule"    validate:"max=500"`
}

// ParseShift 校验值班表单
func ParseShift(values url.Values, loc *time.Location) (*ShiftInput, FieldErrors) {
	r := newReader(values, loc)
	in := &ShiftInput{
		PersonID:        r.str("person"),
		LocationID:      r.str("location"),
		DurationMinutes: r.duration("duration", true),
		RRule:           r.str("rrule"),
	}
	if start := r.datetime("start_time", true); start != nil {
		in.StartTime = *start
	}
	if in.RRule != "" {
		if _, err := rrule.StrToROption(in.RRule); err != nil {
			r.errs.Add("rrule", "重复规则无效，如 FREQ=WEEKLY;COUNT=10")
		}
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入单条值班记录
func (in *ShiftInput) Apply(s *model.Shift) {
	s.PersonID = in.PersonID
	s.LocationID = in.LocationID
	s.StartTime = in.StartTime
	s.DurationMinutes = in.DurationMinutes
}

// ShiftChangeRequestInput 换班申请：目标值班的新时间、时长、地点与人员
type ShiftChangeRequestInput struct {
	NewPersonID        string    `form:"new_person"   validate:"required,uuid"`
	NewStartTime       time.Time `form:"new_start_time"`
	NewDurationMinutes int       `form:"new_duration"`
	NewLocationID      string    `form:"new_location" validate:"required,uuid"`
	Reason             string    `form:"reason"       validate:"max=500"`
}

// ParseShiftChangeRequest 校验换班申请表单
func ParseShiftChangeRequest(values url.Values, loc *time.Location) (*ShiftChangeRequestInput, FieldErrors) {
	r := newReader(values, loc)
	in := &ShiftChangeRequestInput{
		NewPersonID:        r.str("new_person"),
		NewDurationMinutes: r.duration("new_duration", true),
		NewLocationID:      r.str("new_location"),
		Reason:             r.str("reason"),
	}
	if start := r.datetime("new_start_time", true); start != nil {
		in.NewStartTime = *start
	}
	check(in, r.errs)
	if r.errs.Any() {
		return nil, r.errs
	}
	return in, nil
}

// Apply 写入申请内容；审批字段保持未审批状态
func (in *ShiftChangeRequestInput) Apply(req *model.ShiftChangeRequest) {
	req.NewPersonID = in.NewPersonID
	req.NewStartTime = in.NewStartTime
	req.NewDurationMinutes = in.NewDurationMinutes
	req.NewLocationID = in.NewLocationID
	req.Reason = in.Reason
}

// ShiftChangeRequestValues 用目标值班的当前值预填申请表单
func ShiftChangeRequestValues(s *model.Shift, loc *time.Location) map[string]string {
	return map[string]string{
		"new_person":     s.PersonID,
		"new_start_time": s.StartTime.In(loc).Format(inputLayout),
		"new_duration":   DurationValue(s.DurationMinutes),
		"new_location":   s.LocationID,
	}
}

