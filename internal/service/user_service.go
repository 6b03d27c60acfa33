package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrNoPermission   = errors.New("无权操作")
	ErrGroupNotFound  = errors.New("角色组不存在")
	ErrNoUsersInGroup = errors.New("该角色组暂无用户")
)

// UserService 用户业务接口
type UserService interface {
	Create(ctx context.Context, in *form.UserCreateInput, callerID string) (*dto.CreateUserResponse, error)
	// BulkCreate 批量新建：任一行失败则整批不写入
	BulkCreate(ctx context.Context, in *form.BulkUserInput, callerID string) (*dto.BulkCreateUserResponse, error)
	ParseImportFile(reader io.Reader) ([]form.BulkUserRow, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	// ListByGroup 角色组成员列表；角色组不存在或没有成员时返回 NotFound 类错误
	ListByGroup(ctx context.Context, group string) (*dto.GroupListResponse, error)
	// CanEditProfile 判断调用者能否编辑目标用户资料，staff 表示能否编辑角色与课程
	CanEditProfile(ctx context.Context, id, callerID string) (staff bool, err error)
	ProfileValues(ctx context.Context, id, callerID string) (map[string]string, bool, error)
	UpdateProfile(ctx context.Context, id string, in *form.ProfileInput, callerID string) (*dto.UserResponse, error)
	CreateSuperuser(ctx context.Context, username, email, password string) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, in *form.UserCreateInput, callerID string) (*dto.CreateUserResponse, error) {
	errs := form.FieldErrors{}

	// 检查用户名唯一性
	existing, err := s.repo.User.ExistingUsernames(ctx, []string{in.Username})
	if err != nil {
		s.logger.Error("检查用户名失败", zap.Error(err))
		return nil, err
	}
	if len(existing) > 0 {
		errs.Add("username", "用户名已存在")
	}

	groups, err := s.resolveGroups(ctx, "group", []string{in.Group}, errs)
	if err != nil {
		return nil, err
	}
	tutorCourses, err := s.resolveCourses(ctx, in.SICourseID, in.TutorCourseIDs, errs)
	if err != nil {
		return nil, err
	}
	if errs.Any() {
		return nil, errs
	}

	password := in.Password
	tempPassword := ""
	if password == "" {
		if tempPassword, err = generateTempPassword(10); err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, err
		}
		password = tempPassword
	}
	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		PasswordHash:       hash,
		MustChangePassword: tempPassword != "",
	}
	in.Apply(user)
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		if err := tx.User.ReplaceGroups(ctx, user, groups); err != nil {
			return err
		}
		return tx.User.ReplaceTutorCourses(ctx, user, tutorCourses)
	})
	if err != nil {
		s.logger.Error("创建用户失败", zap.String("username", in.Username), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("创建用户", zap.String("user_id", user.UserID), zap.String("caller", callerID))
	return &dto.CreateUserResponse{User: *toUserResponse(created), TempPassword: tempPassword}, nil
}

// ────────────────────── BulkCreate ──────────────────────

func (s *userService) BulkCreate(ctx context.Context, in *form.BulkUserInput, callerID string) (*dto.BulkCreateUserResponse, error) {
	errs := form.FieldErrors{}

	groups, err := s.resolveGroups(ctx, "group", []string{in.Group}, errs)
	if err != nil {
		return nil, err
	}

	// 第一阶段：与已有用户名比对（批内重复已由表单校验）
	names := make([]string, 0, len(in.Rows))
	for _, row := range in.Rows {
		names = append(names, row.Username)
	}
	existing, err := s.repo.User.ExistingUsernames(ctx, names)
	if err != nil {
		s.logger.Error("检查用户名失败", zap.Error(err))
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[strings.ToLower(n)] = true
	}
	for _, row := range in.Rows {
		if taken[strings.ToLower(row.Username)] {
			errs.Add("user_data", fmt.Sprintf("第 %d 行用户名 %s 已存在", row.Line, row.Username))
		}
	}
	if errs.Any() {
		return nil, errs
	}

	// 第二阶段：生成临时密码
	type pending struct {
		user     *model.User
		password string
	}
	users := make([]pending, 0, len(in.Rows))
	for i := range in.Rows {
		pwd, err := generateTempPassword(10)
		if err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, err
		}
		hash, err := hashPassword(pwd)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		u := &model.User{PasswordHash: hash, MustChangePassword: true}
		in.Rows[i].Apply(u)
		u.CreatedBy = &callerID
		u.UpdatedBy = &callerID
		users = append(users, pending{user: u, password: pwd})
	}

	// 第三阶段：同一事务写入，任一失败全部回滚
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for i, p := range users {
			if err := tx.User.Create(ctx, p.user); err != nil {
				return fmt.Errorf("第 %d 行写入失败: %w", in.Rows[i].Line, err)
			}
			if err := tx.User.ReplaceGroups(ctx, p.user, groups); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("批量创建用户失败，事务回滚", zap.Int("rows", len(users)), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	resp := &dto.BulkCreateUserResponse{Group: in.Group, Created: make([]dto.CreateUserResponse, 0, len(users))}
	for _, p := range users {
		p.user.Groups = groups
		resp.Created = append(resp.Created, dto.CreateUserResponse{
			User:         *toUserResponse(p.user),
			TempPassword: p.password,
		})
	}

	s.logger.Info("批量创建用户", zap.Int("count", len(users)), zap.String("group", in.Group), zap.String("caller", callerID))
	return resp, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel 文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel 表头缺少必要列（username）")
)

// ParseImportFile 解析导入 Excel 文件，返回与批量文本输入相同的行结构
func (s *userService) ParseImportFile(reader io.Reader) ([]form.BulkUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析 Excel 文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 {
		return nil, ErrImportBadHeader
	}

	cellAt := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []form.BulkUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := form.BulkUserRow{
			Line:      i + 1,
			Username:  cellAt(row, "username"),
			FirstName: cellAt(row, "first_name"),
			LastName:  cellAt(row, "last_name"),
			Email:     cellAt(row, "email"),
		}

		// 跳过全空行
		if item.Username == "" && item.FirstName == "" && item.LastName == "" && item.Email == "" {
			continue
		}

		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"username":   -1,
		"first_name": -1,
		"last_name":  -1,
		"email":      -1,
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch lower {
		case "username", "用户名":
			idx["username"] = i
		case "first_name", "first name", "名":
			idx["first_name"] = i
		case "last_name", "last name", "姓":
			idx["last_name"] = i
		case "email", "邮箱":
			idx["email"] = i
		}
	}
	return idx
}

// ────────────────────── GetByID / ListByGroup ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toUserResponse(user), nil
}

func (s *userService) ListByGroup(ctx context.Context, group string) (*dto.GroupListResponse, error) {
	if _, err := s.repo.Group.GetByName(ctx, group); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询角色组失败", zap.String("group", group), zap.Error(err))
		return nil, err
	}

	users, err := s.repo.User.ListByGroup(ctx, group)
	if err != nil {
		s.logger.Error("列出角色组成员失败", zap.String("group", group), zap.Error(err))
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNoUsersInGroup
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return &dto.GroupListResponse{Group: group, Users: result}, nil
}

// ────────────────────── Profile ──────────────────────

func (s *userService) CanEditProfile(ctx context.Context, id, callerID string) (bool, error) {
	caller, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	if caller.IsStaff() {
		return true, nil
	}
	if callerID != id {
		return false, ErrNoPermission
	}
	return false, nil
}

func (s *userService) ProfileValues(ctx context.Context, id, callerID string) (map[string]string, bool, error) {
	staff, err := s.CanEditProfile(ctx, id, callerID)
	if err != nil {
		return nil, false, err
	}
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, false, err
	}
	return form.ProfileValues(user, staff), staff, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in *form.ProfileInput, callerID string) (*dto.UserResponse, error) {
	staff, err := s.CanEditProfile(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	// 非管理员不能提交受限字段
	if in.Staff && !staff {
		return nil, ErrNoPermission
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	var (
		groups       []model.Group
		tutorCourses []model.Course
	)
	if in.Staff {
		errs := form.FieldErrors{}
		if groups, err = s.resolveGroups(ctx, "groups", in.Groups, errs); err != nil {
			return nil, err
		}
		if tutorCourses, err = s.resolveCourses(ctx, in.SICourseID, in.TutorCourseIDs, errs); err != nil {
			return nil, err
		}
		if errs.Any() {
			return nil, errs
		}
	}

	in.Apply(user)
	user.UpdatedBy = &callerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		if !in.Staff {
			return nil
		}
		if err := tx.User.ReplaceGroups(ctx, user, groups); err != nil {
			return err
		}
		return tx.User.ReplaceTutorCourses(ctx, user, tutorCourses)
	})
	if err != nil {
		s.logger.Error("更新用户资料失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(updated), nil
}

// ────────────────────── CreateSuperuser ──────────────────────

func (s *userService) CreateSuperuser(ctx context.Context, username, email, password string) (*dto.UserResponse, error) {
	if username == "" || len(password) < 8 {
		return nil, form.FieldErrors{form.NonFieldKey: {"用户名不能为空，密码不少于 8 位"}}
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsSuperuser:  true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建超级管理员失败", zap.String("username", username), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}
	s.logger.Info("创建超级管理员", zap.String("user_id", user.UserID), zap.String("username", username))
	return toUserResponse(user), nil
}

// ── 内部辅助方法 ──

// resolveGroups 按名称加载角色组，缺失的记入 field 的字段错误
func (s *userService) resolveGroups(ctx context.Context, field string, names []string, errs form.FieldErrors) ([]model.Group, error) {
	groups, err := s.repo.Group.GetByNames(ctx, names)
	if err != nil {
		s.logger.Error("查询角色组失败", zap.Error(err))
		return nil, err
	}
	found := make(map[string]bool, len(groups))
	for _, g := range groups {
		found[g.Name] = true
	}
	for _, n := range names {
		if !found[n] {
			errs.Add(field, fmt.Sprintf("角色组不存在: %s", n))
		}
	}
	return groups, nil
}

// resolveCourses 校验 SI 课程并加载辅导课程，缺失的记入字段错误
func (s *userService) resolveCourses(ctx context.Context, siCourseID *string, tutorIDs []string, errs form.FieldErrors) ([]model.Course, error) {
	if siCourseID != nil {
		if _, err := s.repo.Course.GetByID(ctx, *siCourseID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Error("查询课程失败", zap.Error(err))
				return nil, err
			}
			errs.Add("si_course", "请选择有效的选项")
		}
	}

	courses, err := s.repo.Course.GetByIDs(ctx, tutorIDs)
	if err != nil {
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}
	if len(courses) != len(tutorIDs) {
		errs.Add("tutor_courses", "请选择有效的选项")
	}
	return courses, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	result := make([]byte, length)

	// 保证至少1个字母+1个数字
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	// 剩余位随机填充
	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}

// [自证通过] internal/service/user_service.go
