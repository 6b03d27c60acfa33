package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/umass-lrc/database/config"
	"github.com/umass-lrc/database/internal/api/middleware"
	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/service"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testUserID     = "0d2b7e3a-5c44-4f0e-9a51-3e7d9b2c1f22"
	testHardwareID = "3c9a1e52-8d0b-4f7a-b6e4-2a5d7c9e1b03"
	testLocationID = "a4e8c1d2-7b3f-4e6a-8c9d-1f2e3a4b5c33"
	testRecordID   = "7e2f4a6b-1c3d-4e5f-9a8b-0c1d2e3f4a5b"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.SessionResponse
	loginErr      error
	logoutJTI     string
	logoutErr     error
	allowed       bool
	authorizeErr  error
	changePassErr error
}

func (m *mockAuthService) Login(_ context.Context, _ *form.LoginInput) (*dto.SessionResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Authorize(_ context.Context, _ string, _ []string) (bool, error) {
	return m.allowed, m.authorizeErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *form.PasswordChangeInput) error {
	return m.changePassErr
}

// ── Mock UserService ──

type mockUserService struct {
	createResult *dto.CreateUserResponse
	createErr    error
	bulkResult   *dto.BulkCreateUserResponse
	bulkErr      error
	bulkCalls    int
	getResult    *dto.UserResponse
	getErr       error
	groupResult  *dto.GroupListResponse
	groupErr     error
	staff        bool
	canEditErr   error
	values       map[string]string
	updateResult *dto.UserResponse
	updateErr    error
}

func (m *mockUserService) Create(_ context.Context, _ *form.UserCreateInput, _ string) (*dto.CreateUserResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockUserService) BulkCreate(_ context.Context, _ *form.BulkUserInput, _ string) (*dto.BulkCreateUserResponse, error) {
	m.bulkCalls++
	return m.bulkResult, m.bulkErr
}
func (m *mockUserService) ParseImportFile(_ io.Reader) ([]form.BulkUserRow, error) {
	return nil, service.ErrImportNoData
}
func (m *mockUserService) GetByID(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockUserService) ListByGroup(_ context.Context, _ string) (*dto.GroupListResponse, error) {
	return m.groupResult, m.groupErr
}
func (m *mockUserService) CanEditProfile(_ context.Context, _, _ string) (bool, error) {
	return m.staff, m.canEditErr
}
func (m *mockUserService) ProfileValues(_ context.Context, _, _ string) (map[string]string, bool, error) {
	return m.values, m.staff, m.canEditErr
}
func (m *mockUserService) UpdateProfile(_ context.Context, _ string, _ *form.ProfileInput, _ string) (*dto.UserResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockUserService) CreateSuperuser(_ context.Context, _, _, _ string) (*dto.UserResponse, error) {
	return nil, nil
}

// ── Mock HardwareService ──

type mockHardwareService struct {
	createCalls int
	createErr   error
	values      map[string]string
	valuesErr   error
	valuesCalls int
}

func (m *mockHardwareService) Create(_ context.Context, in *form.HardwareInput, _ string) (*dto.HardwareResponse, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.HardwareResponse{ID: "hw-1", Name: in.Name, IsAvailable: in.IsAvailable}, nil
}
func (m *mockHardwareService) GetByID(_ context.Context, _ string) (*dto.HardwareResponse, error) {
	return nil, service.ErrHardwareNotFound
}
func (m *mockHardwareService) List(_ context.Context) ([]dto.HardwareResponse, error) {
	return []dto.HardwareResponse{{ID: "hw-1", Name: "Laptop 1"}}, nil
}
func (m *mockHardwareService) EditValues(_ context.Context, _ string) (map[string]string, error) {
	m.valuesCalls++
	return m.values, m.valuesErr
}
func (m *mockHardwareService) Update(_ context.Context, _ string, _ *form.HardwareInput, _ string) (*dto.HardwareResponse, error) {
	return nil, m.createErr
}

// ── Mock ChoiceService ──

type mockChoiceService struct {
	kinds service.ChoiceKind
}

func (m *mockChoiceService) Load(_ context.Context, kinds service.ChoiceKind) (*dto.FormChoices, error) {
	m.kinds = kinds
	return &dto.FormChoices{Groups: []dto.Choice{{Value: "Tutors", Label: "Tutors"}}}, nil
}

// ── Mock ShiftChangeRequestService ──

type mockRequestService struct {
	approveErr error
	listErr    error
	createErr  error
}

func (m *mockRequestService) RequestFormValues(_ context.Context, _, _ string) (map[string]string, error) {
	return map[string]string{"new_person": testUserID}, nil
}
func (m *mockRequestService) Create(_ context.Context, _ string, _ *form.ShiftChangeRequestInput, _ string) (*dto.ShiftChangeRequestResponse, error) {
	return &dto.ShiftChangeRequestResponse{ID: "req-1"}, m.createErr
}
func (m *mockRequestService) GetByID(_ context.Context, _ string) (*dto.ShiftChangeRequestResponse, error) {
	return nil, service.ErrShiftChangeRequestNotFound
}
func (m *mockRequestService) ListByKind(_ context.Context, _ string) ([]dto.ShiftChangeRequestResponse, error) {
	return []dto.ShiftChangeRequestResponse{}, m.listErr
}
func (m *mockRequestService) Approve(_ context.Context, _, _ string) (*dto.ShiftChangeRequestResponse, error) {
	if m.approveErr != nil {
		return nil, m.approveErr
	}
	return &dto.ShiftChangeRequestResponse{ID: "req-1", Approved: true}, nil
}

// ── Mock ShiftService ──

type mockShiftService struct {
	created []dto.ShiftResponse
	listErr error
}

func (m *mockShiftService) Create(_ context.Context, _ *form.ShiftInput, _ string) (*dto.CreateShiftsResponse, error) {
	return &dto.CreateShiftsResponse{Shifts: m.created}, nil
}
func (m *mockShiftService) GetByID(_ context.Context, _ string) (*dto.ShiftResponse, error) {
	return nil, service.ErrShiftNotFound
}
func (m *mockShiftService) List(_ context.Context, _, _ string) ([]dto.ShiftResponse, error) {
	return nil, m.listErr
}
func (m *mockShiftService) Calendar(_ context.Context, _ string) ([]byte, error) {
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportLoans(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock LoanService ──

type mockLoanService struct {
	createCalls int
	createErr   error
	updateCalls int
	updatedID   string
}

func (m *mockLoanService) Create(_ context.Context, _ *form.LoanInput, _ string) (*dto.LoanResponse, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.LoanResponse{ID: testRecordID, IsOpen: true}, nil
}
func (m *mockLoanService) GetByID(_ context.Context, _ string) (*dto.LoanResponse, error) {
	return nil, service.ErrLoanNotFound
}
func (m *mockLoanService) List(_ context.Context) ([]dto.LoanResponse, error) {
	return []dto.LoanResponse{}, nil
}
func (m *mockLoanService) EditValues(_ context.Context, _ string) (map[string]string, error) {
	return nil, service.ErrLoanNotFound
}
func (m *mockLoanService) Update(_ context.Context, id string, _ *form.LoanInput, _ string) (*dto.LoanResponse, error) {
	m.updateCalls++
	m.updatedID = id
	return &dto.LoanResponse{ID: id}, nil
}

// ── Mock CourseService ──

type mockCourseService struct {
	createCalls int
	createErr   error
	getErr      error
}

func (m *mockCourseService) Create(_ context.Context, in *form.CourseInput, _ string) (*dto.CourseResponse, error) {
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.CourseResponse{ID: testRecordID, Department: in.Department, Number: in.Number, Name: in.Name}, nil
}
func (m *mockCourseService) GetByID(_ context.Context, id string) (*dto.CourseDetailResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.CourseDetailResponse{CourseResponse: dto.CourseResponse{ID: id}}, nil
}
func (m *mockCourseService) List(_ context.Context) ([]dto.CourseResponse, error) {
	return []dto.CourseResponse{}, nil
}
func (m *mockCourseService) EditValues(_ context.Context, _ string) (map[string]string, error) {
	return map[string]string{}, nil
}
func (m *mockCourseService) Update(_ context.Context, id string, _ *form.CourseInput, _ string) (*dto.CourseResponse, error) {
	return &dto.CourseResponse{ID: id}, nil
}

// ── Mock LocationService ──

type mockLocationService struct {
	createCalls  int
	deleteCalls  int
	deleteErr    error
	listInactive bool
}

func (m *mockLocationService) Create(_ context.Context, in *form.LocationInput, _ string) (*dto.LocationResponse, error) {
	m.createCalls++
	return &dto.LocationResponse{ID: testLocationID, Name: in.Name}, nil
}
func (m *mockLocationService) GetByID(_ context.Context, _ string) (*dto.LocationResponse, error) {
	return nil, service.ErrLocationNotFound
}
func (m *mockLocationService) List(_ context.Context, includeInactive bool) ([]dto.LocationResponse, error) {
	m.listInactive = includeInactive
	return []dto.LocationResponse{}, nil
}
func (m *mockLocationService) EditValues(_ context.Context, _ string) (map[string]string, error) {
	return nil, service.ErrLocationNotFound
}
func (m *mockLocationService) Update(_ context.Context, id string, _ *form.LocationInput, _ string) (*dto.LocationResponse, error) {
	return &dto.LocationResponse{ID: id}, nil
}
func (m *mockLocationService) Delete(_ context.Context, _ string, _ string) error {
	m.deleteCalls++
	return m.deleteErr
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set(middleware.CtxUserID, testUserID)
	c.Set(middleware.CtxTokenID, "test-jti")
	c.Set(middleware.CtxTokenExpiresAt, time.Now().Add(time.Hour))
}

func newRouter(authed bool) *gin.Engine {
	r := gin.New()
	if authed {
		r.Use(setAuth)
	}
	return r
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type formResponse struct {
	Code int `json:"code"`
	Data struct {
		Values  map[string]string   `json:"values"`
		Errors  map[string][]string `json:"errors"`
		Choices *dto.FormChoices    `json:"choices"`
	} `json:"data"`
}

func parseForm(t *testing.T, w *httptest.ResponseRecorder) formResponse {
	t.Helper()
	var resp formResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v, body=%s", err, w.Body.String())
	}
	return resp
}

func parseCode(w *httptest.ResponseRecorder) int {
	var resp struct {
		Code int `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Code
}

var testCookie = config.CookieConfig{Name: "lrc_session", SameSite: "Lax"}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.SessionResponse{
			Token:     "session-token",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
	h := NewAuthHandler(mock, testCookie, "/accounts/login")

	r := newRouter(false)
	r.POST("/accounts/login", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/accounts/login", url.Values{
		"username": {"alice"},
		"password": {"secret-password"},
		"next":     {"/loans"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/loans" {
		t.Errorf("expected redirect to /loans, got %s", loc)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "lrc_session" {
			found = true
			if c.Value != "session-token" {
				t.Errorf("expected cookie value session-token, got %s", c.Value)
			}
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected lrc_session cookie to be set")
	}
}

func TestAuthHandler_Login_MustChangePassword(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.SessionResponse{Token: "t", ExpiresAt: time.Now().Add(time.Hour), MustChangePassword: true},
	}
	h := NewAuthHandler(mock, testCookie, "/accounts/login")

	r := newRouter(false)
	r.POST("/accounts/login", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/accounts/login", url.Values{"username": {"alice"}, "password": {"x"}, "next": {"/loans"}}))

	if loc := w.Header().Get("Location"); loc != "/accounts/password" {
		t.Errorf("expected redirect to /accounts/password, got %s", loc)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	mock := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	h := NewAuthHandler(mock, testCookie, "/accounts/login")

	r := newRouter(false)
	r.POST("/accounts/login", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/accounts/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseForm(t, w)
	if len(resp.Data.Errors[form.NonFieldKey]) == 0 {
		t.Error("expected form-level error")
	}
	if _, ok := resp.Data.Values["password"]; ok {
		t.Error("password must not be echoed")
	}
	if resp.Data.Values["username"] != "alice" {
		t.Errorf("expected username to be echoed, got %q", resp.Data.Values["username"])
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testCookie, "/accounts/login")

	r := newRouter(false)
	r.POST("/accounts/login", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/accounts/login", url.Values{}))

	resp := parseForm(t, w)
	if resp.Code != 10001 {
		t.Errorf("expected code 10001, got %d", resp.Code)
	}
	for _, field := range []string{"username", "password"} {
		if len(resp.Data.Errors[field]) == 0 {
			t.Errorf("expected error on %s", field)
		}
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, testCookie, "/accounts/login")

	r := newRouter(true)
	r.POST("/accounts/logout", h.Logout)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/accounts/logout", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti to be blacklisted, got %q", mock.logoutJTI)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "lrc_session" && c.MaxAge >= 0 {
			t.Error("expected session cookie to be cleared")
		}
	}
}

func TestAuthHandler_ChangePassword_WrongOldPassword(t *testing.T) {
	mock := &mockAuthService{changePassErr: form.FieldErrors{"old_password": {"原密码错误"}}}
	h := NewAuthHandler(mock, testCookie, "/accounts/login")

	r := newRouter(true)
	r.POST("/accounts/password", h.ChangePassword)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/accounts/password", url.Values{
		"old_password":         {"old-password"},
		"new_password":         {"new-password-1"},
		"new_password_confirm": {"new-password-1"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseForm(t, w)
	if len(resp.Data.Errors["old_password"]) == 0 {
		t.Error("expected error on old_password")
	}
	if len(resp.Data.Values) != 0 {
		t.Errorf("password fields must not be echoed, got %v", resp.Data.Values)
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/"},
		{"/loans", "/loans"},
		{"/users/create?x=1", "/users/create?x=1"},
		{"https://evil.example.com", "/"},
		{"//evil.example.com", "/"},
		{"/\\evil.example.com", "/"},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next, "/"); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestMustGetUserID_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := MustGetUserID(c); ok {
		t.Fatal("expected ok=false")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HardwareHandler Tests
// ═══════════════════════════════════════════════════════════

func TestHardwareHandler_Create_Invalid(t *testing.T) {
	mock := &mockHardwareService{}
	h := NewHardwareHandler(mock)

	r := newRouter(true)
	r.POST("/hardware/add", h.CreateHardware)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/hardware/add", url.Values{"name": {"  "}, "is_available": {"on"}}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseForm(t, w)
	if len(resp.Data.Errors["name"]) == 0 {
		t.Error("expected error on name")
	}
	if resp.Data.Values["is_available"] != "on" {
		t.Errorf("expected submitted values to be echoed, got %v", resp.Data.Values)
	}
	if mock.createCalls != 0 {
		t.Error("service must not be called on validation failure")
	}
}

func TestHardwareHandler_Create_Success(t *testing.T) {
	mock := &mockHardwareService{}
	h := NewHardwareHandler(mock)

	r := newRouter(true)
	r.POST("/hardware/add", h.CreateHardware)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/hardware/add", url.Values{"name": {"Laptop 7"}, "is_available": {"true"}}))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/hardware" {
		t.Errorf("expected redirect to /hardware, got %s", loc)
	}
}

func TestHardwareHandler_Create_IntegrityViolation(t *testing.T) {
	mock := &mockHardwareService{createErr: pkgerrors.ErrIntegrityViolation}
	h := NewHardwareHandler(mock)

	r := newRouter(true)
	r.POST("/hardware/add", h.CreateHardware)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/hardware/add", url.Values{"name": {"Laptop 7"}}))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if code := parseCode(w); code != 10006 {
		t.Errorf("expected code 10006, got %d", code)
	}
}

func TestHardwareHandler_EditForm_NotFound(t *testing.T) {
	h := NewHardwareHandler(&mockHardwareService{valuesErr: service.ErrHardwareNotFound})

	r := newRouter(true)
	r.GET("/hardware/:id/edit", h.EditForm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hardware/"+testRecordID+"/edit", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHardwareHandler_EditForm_Prefilled(t *testing.T) {
	h := NewHardwareHandler(&mockHardwareService{values: map[string]string{"name": "Laptop 1", "is_available": "true"}})

	r := newRouter(true)
	r.GET("/hardware/:id/edit", h.EditForm)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hardware/"+testHardwareID+"/edit", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := parseForm(t, w).Data.Values["name"]; got != "Laptop 1" {
		t.Errorf("expected prefilled name, got %q", got)
	}
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_Show(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		users      *mockUserService
		auth       *mockAuthService
		wantStatus int
	}{
		{
			name:       "按 UUID 查看资料",
			path:       "/users/" + testUserID,
			users:      &mockUserService{getResult: &dto.UserResponse{ID: testUserID}},
			auth:       &mockAuthService{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "用户不存在",
			path:       "/users/" + testUserID,
			users:      &mockUserService{getErr: service.ErrUserNotFound},
			auth:       &mockAuthService{},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "非管理角色查看角色组",
			path:       "/users/Tutors",
			users:      &mockUserService{},
			auth:       &mockAuthService{allowed: false},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "角色组为空",
			path:       "/users/Tutors",
			users:      &mockUserService{groupErr: service.ErrNoUsersInGroup},
			auth:       &mockAuthService{allowed: true},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "角色组列表",
			path:       "/users/Office%20staff",
			users:      &mockUserService{groupResult: &dto.GroupListResponse{Group: "Office staff"}},
			auth:       &mockAuthService{allowed: true},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(tt.users, tt.auth, &mockChoiceService{})
			r := newRouter(true)
			r.GET("/users/:id", h.Show)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestUserHandler_Create_DuplicateUsername(t *testing.T) {
	choices := &mockChoiceService{}
	users := &mockUserService{createErr: form.FieldErrors{"username": {"用户名已存在"}}}
	h := NewUserHandler(users, &mockAuthService{}, choices)

	r := newRouter(true)
	r.POST("/users/create", h.Create)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/users/create", url.Values{
		"username": {"alice"},
		"group":    {"Tutors"},
		"password": {"secret-password"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseForm(t, w)
	if len(resp.Data.Errors["username"]) == 0 {
		t.Error("expected error on username")
	}
	if resp.Data.Choices == nil || len(resp.Data.Choices.Groups) == 0 {
		t.Error("expected choices to be re-rendered")
	}
	if choices.kinds != service.ChoiceGroups|service.ChoiceCourses {
		t.Errorf("unexpected choice kinds %v", choices.kinds)
	}
	if _, ok := resp.Data.Values["password"]; ok {
		t.Error("password must not be echoed")
	}
}

func TestUserHandler_Create_TempPassword(t *testing.T) {
	users := &mockUserService{createResult: &dto.CreateUserResponse{
		User:         dto.UserResponse{ID: testUserID, Username: "alice"},
		TempPassword: "Abc123xyz9",
	}}
	h := NewUserHandler(users, &mockAuthService{}, &mockChoiceService{})

	r := newRouter(true)
	r.POST("/users/create", h.Create)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/users/create", url.Values{"username": {"alice"}, "group": {"Tutors"}}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/users/"+testUserID {
		t.Errorf("unexpected Location %s", loc)
	}
	if !strings.Contains(w.Body.String(), "Abc123xyz9") {
		t.Error("expected temp password in body")
	}
}

func TestUserHandler_BulkCreate_MalformedLine(t *testing.T) {
	users := &mockUserService{}
	h := NewUserHandler(users, &mockAuthService{}, &mockChoiceService{})

	r := newRouter(true)
	r.POST("/users/create-bulk", h.BulkCreate)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/users/create-bulk", url.Values{
		"group":     {"Tutors"},
		"user_data": {"alice,Alice,Liddell,alice@umass.edu\nbob,Bob"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if users.bulkCalls != 0 {
		t.Error("no rows may be written when one line is malformed")
	}
}

func TestUserHandler_Edit_NoPermission(t *testing.T) {
	users := &mockUserService{canEditErr: service.ErrNoPermission}
	h := NewUserHandler(users, &mockAuthService{}, &mockChoiceService{})

	r := newRouter(true)
	r.POST("/users/:id/edit", h.Edit)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/users/"+testRecordID+"/edit", url.Values{"first_name": {"X"}}))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ShiftChangeRequestHandler Tests
// ═══════════════════════════════════════════════════════════

func TestShiftChangeRequestHandler_Approve(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{name: "审批成功", wantStatus: http.StatusSeeOther},
		{name: "重复审批", err: service.ErrAlreadyApproved, wantStatus: http.StatusConflict, wantCode: 17002},
		{name: "申请不存在", err: service.ErrShiftChangeRequestNotFound, wantStatus: http.StatusNotFound, wantCode: 17001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewShiftChangeRequestHandler(&mockRequestService{approveErr: tt.err}, &mockChoiceService{}, time.UTC)
			r := newRouter(true)
			r.POST("/shift-change-requests/approve/:id", h.Approve)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/shift-change-requests/approve/"+testRecordID, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantCode != 0 {
				if code := parseCode(w); code != tt.wantCode {
					t.Errorf("expected code %d, got %d", tt.wantCode, code)
				}
			}
		})
	}
}

func TestShiftChangeRequestHandler_ListUnknownKind(t *testing.T) {
	h := NewShiftChangeRequestHandler(&mockRequestService{listErr: service.ErrUnknownRequestKind}, &mockChoiceService{}, time.UTC)
	r := newRouter(true)
	r.GET("/shift-change-requests/:kind", h.ListRequests)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shift-change-requests/rejected", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestShiftChangeRequestHandler_CreateNotOwner(t *testing.T) {
	h := NewShiftChangeRequestHandler(&mockRequestService{createErr: service.ErrNotShiftOwner}, &mockChoiceService{}, time.UTC)
	r := newRouter(true)
	r.POST("/shifts/:id/change-request", h.CreateRequest)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/shifts/"+testRecordID+"/change-request", url.Values{
		"new_person":     {testUserID},
		"new_start_time": {"2026-03-02T10:00"},
		"new_duration":   {"1:30"},
		"new_location":   {testLocationID},
	}))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ShiftHandler / ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestShiftHandler_CreateRecurringRedirectsToList(t *testing.T) {
	mock := &mockShiftService{created: []dto.ShiftResponse{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}}
	h := NewShiftHandler(mock, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.POST("/shifts/add", h.CreateShift)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/shifts/add", url.Values{
		"person":     {testUserID},
		"location":   {testLocationID},
		"start_time": {"2026-03-02T10:00"},
		"duration":   {"60"},
		"rrule":      {"FREQ=WEEKLY;COUNT=3"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/shifts?person="+testUserID {
		t.Errorf("unexpected Location %s", loc)
	}
}

func TestShiftHandler_ListOthersForbidden(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{listErr: service.ErrNoPermission}, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.GET("/shifts", h.ListShifts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shifts?person="+testRecordID, nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestShiftHandler_Calendar(t *testing.T) {
	h := NewShiftHandler(&mockShiftService{}, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.GET("/shifts/calendar.ics", h.Calendar)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shifts/calendar.ics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected Content-Type %s", ct)
	}
}

func TestExportHandler_ExportLoans(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "loans_20260301.xlsx"}
	h := NewExportHandler(mock)

	r := newRouter(true)
	r.GET("/loans/export", h.ExportLoans)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loans/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "loans_20260301.xlsx") {
		t.Errorf("unexpected Content-Disposition %s", cd)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected Content-Type %s", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// LoanHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLoanHandler_Create_MissingStartTime(t *testing.T) {
	loans := &mockLoanService{}
	choices := &mockChoiceService{}
	h := NewLoanHandler(loans, choices, time.UTC)

	r := newRouter(true)
	r.POST("/loans/add", h.CreateLoan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/loans/add", url.Values{
		"hardware": {testHardwareID},
		"user":     {testUserID},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := parseForm(t, w)
	if len(resp.Data.Errors["start_time"]) == 0 {
		t.Errorf("expected error on start_time, got %v", resp.Data.Errors)
	}
	if resp.Data.Values["hardware"] != testHardwareID || resp.Data.Values["user"] != testUserID {
		t.Errorf("expected submitted values to be echoed, got %v", resp.Data.Values)
	}
	if choices.kinds != service.ChoiceHardware|service.ChoiceUsers {
		t.Errorf("unexpected choice kinds %v", choices.kinds)
	}
	if loans.createCalls != 0 {
		t.Error("service must not be called on validation failure")
	}
}

func TestLoanHandler_Create_Success(t *testing.T) {
	loans := &mockLoanService{}
	h := NewLoanHandler(loans, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.POST("/loans/add", h.CreateLoan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/loans/add", url.Values{
		"hardware":   {testHardwareID},
		"user":       {testUserID},
		"start_time": {"2026-03-02T10:00"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/loans" {
		t.Errorf("expected redirect to /loans, got %s", loc)
	}
	if loans.createCalls != 1 {
		t.Errorf("expected one create call, got %d", loans.createCalls)
	}
}

func TestLoanHandler_Update_ReturnBeforeStart(t *testing.T) {
	loans := &mockLoanService{}
	h := NewLoanHandler(loans, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.POST("/loans/:id/edit", h.UpdateLoan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/loans/"+testRecordID+"/edit", url.Values{
		"hardware":    {testHardwareID},
		"user":        {testUserID},
		"start_time":  {"2026-03-02T10:00"},
		"return_time": {"2026-03-02T09:00"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(parseForm(t, w).Data.Errors["return_time"]) == 0 {
		t.Error("expected error on return_time")
	}
	if loans.updateCalls != 0 {
		t.Error("service must not be called on validation failure")
	}
}

func TestLoanHandler_Update_SavesInPlace(t *testing.T) {
	loans := &mockLoanService{}
	h := NewLoanHandler(loans, &mockChoiceService{}, time.UTC)

	r := newRouter(true)
	r.POST("/loans/:id/edit", h.UpdateLoan)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/loans/"+testRecordID+"/edit", url.Values{
		"hardware":    {testHardwareID},
		"user":        {testUserID},
		"start_time":  {"2026-03-02T10:00"},
		"return_time": {"2026-03-02T12:00"},
	}))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	if loans.updatedID != testRecordID {
		t.Errorf("expected update of %s, got %q", testRecordID, loans.updatedID)
	}
}

// ═══════════════════════════════════════════════════════════
// CourseHandler / LocationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCourseHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		values     url.Values
		createErr  error
		wantStatus int
		wantCalls  int
		wantField  string
	}{
		{
			name:       "创建成功",
			values:     url.Values{"department": {"compsci"}, "number": {"187"}, "name": {"Data Structures"}},
			wantStatus: http.StatusSeeOther,
			wantCalls:  1,
		},
		{
			name:       "缺少课程名",
			values:     url.Values{"department": {"COMPSCI"}, "number": {"187"}},
			wantStatus: http.StatusBadRequest,
			wantField:  "name",
		},
		{
			name:       "课程代码重复",
			values:     url.Values{"department": {"COMPSCI"}, "number": {"187"}, "name": {"Data Structures"}},
			createErr:  form.FieldErrors{"number": {"该院系下课程号已存在"}},
			wantStatus: http.StatusBadRequest,
			wantCalls:  1,
			wantField:  "number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses := &mockCourseService{createErr: tt.createErr}
			h := NewCourseHandler(courses)

			r := newRouter(true)
			r.POST("/courses/add", h.CreateCourse)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, postForm("/courses/add", tt.values))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if courses.createCalls != tt.wantCalls {
				t.Errorf("expected %d create calls, got %d", tt.wantCalls, courses.createCalls)
			}
			if tt.wantField != "" && len(parseForm(t, w).Data.Errors[tt.wantField]) == 0 {
				t.Errorf("expected error on %s", tt.wantField)
			}
			if tt.wantStatus == http.StatusSeeOther {
				if loc := w.Header().Get("Location"); loc != "/courses/"+testRecordID {
					t.Errorf("unexpected Location %s", loc)
				}
			}
		})
	}
}

func TestCourseHandler_GetCourse_NotFound(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{getErr: service.ErrCourseNotFound})

	r := newRouter(true)
	r.GET("/courses/:id", h.GetCourse)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses/"+testRecordID, nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if code := parseCode(w); code != 21001 {
		t.Errorf("expected code 21001, got %d", code)
	}
}

func TestLocationHandler_ListAll(t *testing.T) {
	locations := &mockLocationService{}
	h := NewLocationHandler(locations)

	r := newRouter(true)
	r.GET("/locations", h.ListLocations)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/locations?all=true", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !locations.listInactive {
		t.Error("expected inactive locations to be included")
	}
}

func TestLocationHandler_Create_Invalid(t *testing.T) {
	locations := &mockLocationService{}
	h := NewLocationHandler(locations)

	r := newRouter(true)
	r.POST("/locations/add", h.CreateLocation)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, postForm("/locations/add", url.Values{"address": {"W.E.B. Du Bois Library"}}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(parseForm(t, w).Data.Errors["name"]) == 0 {
		t.Error("expected error on name")
	}
	if locations.createCalls != 0 {
		t.Error("service must not be called on validation failure")
	}
}

func TestLocationHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "删除成功", wantStatus: http.StatusSeeOther},
		{name: "地点不存在", err: service.ErrLocationNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLocationHandler(&mockLocationService{deleteErr: tt.err})

			r := newRouter(true)
			r.POST("/locations/:id/delete", h.DeleteLocation)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/locations/"+testLocationID+"/delete", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// 路径参数校验
// ═══════════════════════════════════════════════════════════

func TestHandlers_MalformedIDIsNotFound(t *testing.T) {
	hardware := &mockHardwareService{}
	loans := &mockLoanService{}
	locations := &mockLocationService{}
	requests := &mockRequestService{}
	choices := &mockChoiceService{}

	r := newRouter(true)
	r.GET("/hardware/:id/edit", NewHardwareHandler(hardware).EditForm)
	r.POST("/loans/:id/edit", NewLoanHandler(loans, choices, time.UTC).UpdateLoan)
	r.GET("/courses/:id", NewCourseHandler(&mockCourseService{}).GetCourse)
	r.POST("/locations/:id/delete", NewLocationHandler(locations).DeleteLocation)
	r.GET("/shifts/:id", NewShiftHandler(&mockShiftService{}, choices, time.UTC).GetShift)
	r.GET("/shifts", NewShiftHandler(&mockShiftService{}, choices, time.UTC).ListShifts)
	r.POST("/shift-change-requests/approve/:id", NewShiftChangeRequestHandler(requests, choices, time.UTC).Approve)
	r.GET("/users/:id/edit", NewUserHandler(&mockUserService{}, &mockAuthService{}, choices).EditForm)

	tests := []struct {
		method   string
		path     string
		wantCode int
	}{
		{http.MethodGet, "/hardware/abc/edit", 22001},
		{http.MethodPost, "/loans/abc/edit", 22101},
		{http.MethodGet, "/courses/187", 21001},
		{http.MethodPost, "/locations/1/delete", 16001},
		{http.MethodGet, "/shifts/abc", 23001},
		{http.MethodGet, "/shifts?person=abc", 20001},
		{http.MethodPost, "/shift-change-requests/approve/abc", 17001},
		{http.MethodGet, "/users/abc/edit", 20001},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", w.Code)
			}
			if code := parseCode(w); code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, code)
			}
		})
	}

	if hardware.valuesCalls != 0 || loans.updateCalls != 0 || locations.deleteCalls != 0 {
		t.Error("services must not be queried with a malformed id")
	}
}
