package form

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// MaxDurationMinutes 单次值班/借用时长上限
const MaxDurationMinutes = 24 * 60

var (
	errInvalidBool     = errors.New("请选择是或否")
	errInvalidDateTime = errors.New("请输入有效的日期时间，如 2024-09-03 14:30")
	errInvalidDuration = errors.New("请输入有效的时长，如 90、1:30 或 1h30m")
	errDurationRange   = errors.New("时长必须大于 0 且不超过 24 小时")
)

// 不带时区的日期时间格式，按配置时区解释
var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseBool 解析复选框/布尔字段；未勾选的复选框不会提交，空值视为 false
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true, nil
	case "", "off", "false", "0", "no":
		return false, nil
	default:
		return false, errInvalidBool
	}
}

// ParseDateTime 解析日期时间；RFC3339 保留自带时区，其余格式按 loc 解释
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errInvalidDateTime
}

// ParseDuration 解析时长并返回分钟数
// 支持：纯分钟数 "90"、"1:30"、"01:30:00"、Go 时长 "1h30m"
func ParseDuration(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errInvalidDuration
	}

	var minutes int
	switch {
	case isDigits(raw):
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errInvalidDuration
		}
		minutes = n
	case strings.Contains(raw, ":"):
		parts := strings.Split(raw, ":")
		if len(parts) > 3 {
			return 0, errInvalidDuration
		}
		nums := make([]int, len(parts))
		for i, p := range parts {
			if !isDigits(p) {
				return 0, errInvalidDuration
			}
			nums[i], _ = strconv.Atoi(p)
			if i > 0 && nums[i] > 59 {
				return 0, errInvalidDuration
			}
		}
		minutes = nums[0]*60 + nums[1]
		if len(nums) == 3 && nums[2] != 0 {
			return 0, errInvalidDuration
		}
	default:
		d, err := time.ParseDuration(raw)
		if err != nil || d%time.Minute != 0 {
			return 0, errInvalidDuration
		}
		minutes = int(d / time.Minute)
	}

	if minutes <= 0 || minutes > MaxDurationMinutes {
		return 0, errDurationRange
	}
	return minutes, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
