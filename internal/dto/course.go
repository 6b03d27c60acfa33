package dto

// CourseResponse 课程信息
type CourseResponse struct {
	ID         string `json:"id"`
	Department string `json:"department"`
	Number     string `json:"number"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

// CourseDetailResponse 课程详情（含 SI leader 与辅导员）
type CourseDetailResponse struct {
	CourseResponse
	SILeaders []UserBrief `json:"si_leaders"`
	Tutors    []UserBrief `json:"tutors"`
}
