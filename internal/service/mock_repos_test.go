package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "uid-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ReplaceGroups(_ context.Context, user *model.User, groups []model.Group) error {
	user.Groups = groups
	return nil
}

func (m *mockUserRepo) ReplaceTutorCourses(_ context.Context, user *model.User, courses []model.Course) error {
	user.TutorCourses = courses
	return nil
}

func (m *mockUserRepo) sorted(keep func(u *model.User) bool) []model.User {
	var result []model.User
	for _, u := range m.users {
		if keep(u) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}

func (m *mockUserRepo) ListByGroup(_ context.Context, groupName string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool { return !u.IsRetired && u.InAnyGroup(groupName) }), nil
}

func (m *mockUserRepo) ListActive(_ context.Context) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool { return !u.IsRetired }), nil
}

func (m *mockUserRepo) ListSILeaders(_ context.Context, courseID string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		return !u.IsRetired && u.SICourseID != nil && *u.SICourseID == courseID
	}), nil
}

func (m *mockUserRepo) ListTutors(_ context.Context, courseID string) ([]model.User, error) {
	return m.sorted(func(u *model.User) bool {
		if u.IsRetired {
			return false
		}
		for _, c := range u.TutorCourses {
			if c.CourseID == courseID {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockUserRepo) ExistingUsernames(_ context.Context, usernames []string) ([]string, error) {
	var result []string
	for _, n := range usernames {
		for _, u := range m.users {
			if strings.EqualFold(u.Username, n) {
				result = append(result, u.Username)
			}
		}
	}
	return result, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	var n int64
	for _, u := range m.users {
		if !u.IsRetired {
			n++
		}
	}
	return n, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct {
	groups map[string]*model.Group // key: name
}

func newMockGroupRepo() *mockGroupRepo {
	m := &mockGroupRepo{groups: make(map[string]*model.Group)}
	for _, n := range model.DefaultGroups {
		m.groups[n] = &model.Group{GroupID: "gid-" + n, Name: n}
	}
	return m
}

func (m *mockGroupRepo) List(_ context.Context) ([]model.Group, error) {
	var result []model.Group
	for _, g := range m.groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockGroupRepo) GetByName(_ context.Context, name string) (*model.Group, error) {
	if g, ok := m.groups[name]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) GetByNames(_ context.Context, names []string) ([]model.Group, error) {
	var result []model.Group
	for _, n := range names {
		if g, ok := m.groups[n]; ok {
			result = append(result, *g)
		}
	}
	return result, nil
}

func (m *mockGroupRepo) EnsureExists(_ context.Context, names []string) error {
	for _, n := range names {
		if _, ok := m.groups[n]; !ok {
			m.groups[n] = &model.Group{GroupID: "gid-" + n, Name: n}
		}
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	if c.CourseID == "" {
		c.CourseID = "cid-" + c.Department + c.Number
	}
	m.courses[c.CourseID] = c
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByIDs(_ context.Context, ids []string) ([]model.Course, error) {
	var result []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) GetByCode(_ context.Context, department, number string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.Department == department && c.Number == number {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code() < result[j].Code() })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	m.courses[c.CourseID] = c
	return nil
}

// ── Mock HardwareRepository ──

type mockHardwareRepo struct {
	items map[string]*model.Hardware
}

func newMockHardwareRepo() *mockHardwareRepo {
	return &mockHardwareRepo{items: make(map[string]*model.Hardware)}
}

func (m *mockHardwareRepo) Create(_ context.Context, h *model.Hardware) error {
	if h.HardwareID == "" {
		h.HardwareID = "hw-" + h.Name
	}
	m.items[h.HardwareID] = h
	return nil
}

func (m *mockHardwareRepo) GetByID(_ context.Context, id string) (*model.Hardware, error) {
	if h, ok := m.items[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHardwareRepo) List(_ context.Context) ([]model.Hardware, error) {
	var result []model.Hardware
	for _, h := range m.items {
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockHardwareRepo) Update(_ context.Context, h *model.Hardware) error {
	m.items[h.HardwareID] = h
	return nil
}

func (m *mockHardwareRepo) CountAvailable(_ context.Context) (int64, error) {
	var n int64
	for _, h := range m.items {
		if h.IsAvailable {
			n++
		}
	}
	return n, nil
}

// ── Mock LoanRepository ──

type mockLoanRepo struct {
	loans   map[string]*model.Loan
	updates int
}

func newMockLoanRepo() *mockLoanRepo {
	return &mockLoanRepo{loans: make(map[string]*model.Loan)}
}

func (m *mockLoanRepo) Create(_ context.Context, l *model.Loan) error {
	if l.LoanID == "" {
		l.LoanID = "loan-" + l.HardwareID + "-" + l.UserID
	}
	m.loans[l.LoanID] = l
	return nil
}

func (m *mockLoanRepo) GetByID(_ context.Context, id string) (*model.Loan, error) {
	if l, ok := m.loans[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLoanRepo) List(_ context.Context) ([]model.Loan, error) {
	var result []model.Loan
	for _, l := range m.loans {
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.After(result[j].StartTime) })
	return result, nil
}

func (m *mockLoanRepo) ListOpenByUser(_ context.Context, userID string) ([]model.Loan, error) {
	var result []model.Loan
	for _, l := range m.loans {
		if l.UserID == userID && l.IsOpen() {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockLoanRepo) Update(_ context.Context, l *model.Loan) error {
	m.updates++
	m.loans[l.LoanID] = l
	return nil
}

func (m *mockLoanRepo) CountOpen(_ context.Context) (int64, error) {
	var n int64
	for _, l := range m.loans {
		if l.IsOpen() {
			n++
		}
	}
	return n, nil
}

// ── Mock LocationRepository ──

type mockLocationRepo struct {
	locations map[string]*model.Location
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: make(map[string]*model.Location)}
}

func (m *mockLocationRepo) Create(_ context.Context, loc *model.Location) error {
	if loc.LocationID == "" {
		loc.LocationID = "loc-" + loc.Name
	}
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLocationRepo) GetByID(_ context.Context, id string) (*model.Location, error) {
	if l, ok := m.locations[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLocationRepo) List(_ context.Context, includeInactive bool) ([]model.Location, error) {
	var result []model.Location
	for _, l := range m.locations {
		if !includeInactive && !l.IsActive {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockLocationRepo) Update(_ context.Context, loc *model.Location) error {
	m.locations[loc.LocationID] = loc
	return nil
}

func (m *mockLocationRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.locations, id)
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts map[string]*model.Shift
	seq    int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift)}
}

func (m *mockShiftRepo) nextID() string {
	m.seq++
	return fmt.Sprintf("shift-%03d", m.seq)
}

func (m *mockShiftRepo) Create(_ context.Context, s *model.Shift) error {
	if s.ShiftID == "" {
		s.ShiftID = m.nextID()
	}
	m.shifts[s.ShiftID] = s
	return nil
}

func (m *mockShiftRepo) CreateBatch(ctx context.Context, shifts []model.Shift) error {
	for i := range shifts {
		if err := m.Create(ctx, &shifts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context, f repository.ShiftFilters) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		if f.PersonID != "" && s.PersonID != f.PersonID {
			continue
		}
		if f.From != nil && s.StartTime.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.StartTime.Before(*f.To) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, s *model.Shift) error {
	m.shifts[s.ShiftID] = s
	return nil
}

// ── Mock ShiftChangeRequestRepository ──

type mockShiftChangeRequestRepo struct {
	reqs   map[string]*model.ShiftChangeRequest
	shifts *mockShiftRepo
}

func newMockShiftChangeRequestRepo(shifts *mockShiftRepo) *mockShiftChangeRequestRepo {
	return &mockShiftChangeRequestRepo{reqs: make(map[string]*model.ShiftChangeRequest), shifts: shifts}
}

func (m *mockShiftChangeRequestRepo) Create(_ context.Context, req *model.ShiftChangeRequest) error {
	if req.ShiftChangeRequestID == "" {
		req.ShiftChangeRequestID = "scr-" + req.ShiftID
	}
	m.reqs[req.ShiftChangeRequestID] = req
	return nil
}

func (m *mockShiftChangeRequestRepo) GetByID(_ context.Context, id string) (*model.ShiftChangeRequest, error) {
	req, ok := m.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if s, ok := m.shifts.shifts[req.ShiftID]; ok {
		req.Shift = s
	}
	return req, nil
}

func (m *mockShiftChangeRequestRepo) ListByApproved(_ context.Context, approved bool) ([]model.ShiftChangeRequest, error) {
	var result []model.ShiftChangeRequest
	for _, r := range m.reqs {
		if r.Approved == approved {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockShiftChangeRequestRepo) MarkApproved(_ context.Context, id, approverID string, at time.Time) (bool, error) {
	req, ok := m.reqs[id]
	if !ok || req.Approved {
		return false, nil
	}
	req.Approved = true
	req.ApprovedByID = &approverID
	req.ApprovedOn = &at
	return true, nil
}

func (m *mockShiftChangeRequestRepo) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, r := range m.reqs {
		if !r.Approved {
			n++
		}
	}
	return n, nil
}

// ── 测试辅助 ──

// mockRepos 单元测试用的全部 mock 仓储
type mockRepos struct {
	users     *mockUserRepo
	groups    *mockGroupRepo
	courses   *mockCourseRepo
	hardware  *mockHardwareRepo
	loans     *mockLoanRepo
	locations *mockLocationRepo
	shifts    *mockShiftRepo
	requests  *mockShiftChangeRequestRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		users:     newMockUserRepo(),
		groups:    newMockGroupRepo(),
		courses:   newMockCourseRepo(),
		hardware:  newMockHardwareRepo(),
		loans:     newMockLoanRepo(),
		locations: newMockLocationRepo(),
		shifts:    newMockShiftRepo(),
	}
	m.requests = newMockShiftChangeRequestRepo(m.shifts)
	repo := &repository.Repository{
		User:               m.users,
		Group:              m.groups,
		Course:             m.courses,
		Hardware:           m.hardware,
		Loan:               m.loans,
		Location:           m.locations,
		Shift:              m.shifts,
		ShiftChangeRequest: m.requests,
	}
	return repo, m
}

// addUser 直接写入一个用户；groups 为角色组名称
func (m *mockRepos) addUser(id, username string, groups ...string) *model.User {
	u := &model.User{
		UserID:    id,
		Username:  username,
		FirstName: "F" + username,
		LastName:  "L" + username,
		Email:     username + "@example.edu",
	}
	for _, g := range groups {
		u.Groups = append(u.Groups, *m.groups.groups[g])
	}
	m.users.users[id] = u
	return u
}

func (m *mockRepos) addLocation(id, name string) *model.Location {
	l := &model.Location{LocationID: id, Name: name, IsActive: true}
	m.locations.locations[id] = l
	return l
}
