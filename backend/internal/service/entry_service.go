package service

import (
	"context"
	"errors"
	"time"

	"github.com/EagleChen/mapmutex"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ockci/smartflow/backend/internal/dto"
	"github.com/ockci/smartflow/backend/internal/repository"
	"github.com/ockci/smartflow/backend/internal/scheduler"
	pkgerrors "github.com/ockci/smartflow/backend/pkg/errors"
)

// ── 条目生命周期业务错误 ──

var (
	ErrScheduleEntryNotFound = errors.New("排产条目不存在")
	ErrEntryBusy             = errors.New("排产条目正在被其他操作修改，请稍后重试")
	// ErrInvalidTransition 非法状态流转，返回的错误带有当前与目标状态
	ErrInvalidTransition = scheduler.ErrInvalidTransition
)

// EntryService 排产条目生命周期接口
type EntryService interface {
	// 推进条目状态 pending → in_progress → completed
	UpdateStatus(ctx context.Context, tenantID, entryID, callerID string, req *dto.UpdateEntryStatusRequest) (*dto.ScheduleEntryResponse, error)
}

type entryService struct {
	repo   *repository.Repository
	engine *engineSettings
	mutex  *mapmutex.Mutex
	now    func() time.Time
	logger *zap.Logger
}

// NewEntryService 创建 EntryService 实例
func NewEntryService(repo *repository.Repository, engine *engineSettings, logger *zap.Logger) EntryService {
	return &entryService{
		repo:   repo,
		engine: engine,
		// 最多等待约 0.2s，拿不到锁返回 ErrEntryBusy
		mutex:  mapmutex.NewCustomizedMapMutex(50, 1e7, 1e3, 1.3, 0.2),
		now:    time.Now,
		logger: logger,
	}
}

func (s *entryService) UpdateStatus(ctx context.Context, tenantID, entryID, callerID string, req *dto.UpdateEntryStatusRequest) (*dto.ScheduleEntryResponse, error) {
	target := scheduler.EntryStatus(req.Status)

	// 同一进程内串行化；跨进程由 version 乐观锁兜底
	if !s.mutex.TryLock(entryID) {
		return nil, ErrEntryBusy
	}
	defer s.mutex.Unlock(entryID)

	entry, err := s.repo.Schedule.GetEntry(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleEntryNotFound
		}
		s.logger.Error("查询排产条目失败", zap.String("entry_id", entryID), zap.Error(err))
		return nil, err
	}

	if err := scheduler.Transition(ctx, scheduler.EntryStatus(entry.Status), target); err != nil {
		entryTransitionsTotal.WithLabelValues(string(target), "rejected").Inc()
		return nil, err
	}

	now := s.now()
	switch target {
	case scheduler.StatusInProgress:
		entry.ActualStart = &now
	case scheduler.StatusCompleted:
		entry.ActualEnd = &now
	}
	entry.Status = string(target)
	if callerID != "" {
		entry.UpdatedBy = &callerID
	}

	if err := s.repo.Schedule.UpdateEntryStatus(ctx, entry); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			entryTransitionsTotal.WithLabelValues(string(target), "conflict").Inc()
			return nil, err
		}
		s.logger.Error("更新排产条目状态失败", zap.String("entry_id", entryID), zap.Error(err))
		return nil, err
	}

	entryTransitionsTotal.WithLabelValues(string(target), "ok").Inc()
	s.logger.Info("排产条目状态变更",
		zap.String("tenant_id", tenantID),
		zap.String("entry_id", entryID),
		zap.String("order_number", entry.OrderNumber),
		zap.String("status", entry.Status))

	resp := s.engine.toEntryResponse(entry)
	return &resp, nil
}

