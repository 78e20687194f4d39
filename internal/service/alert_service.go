package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/alert"
	"github.com/lyu3239-oss/heartbeat-app/internal/models"
	"github.com/lyu3239-oss/heartbeat-app/internal/repository"
)

// EvaluateResult 按需评估结果
type EvaluateResult struct {
	Triggered bool                    `json:"triggered"`
	Throttled bool                    `json:"throttled,omitempty"`
	Results   []models.DispatchResult `json:"results,omitempty"`
}

// SweepSummary 一轮扫描的汇总
type SweepSummary struct {
	Scanned int `json:"scanned"`
	Alerted int `json:"alerted"`
}

// AlertService 紧急评估与报警分发核心
// 定时扫描和按需评估共用同一套失联判定 + 多联系人通知编排；
// 冷却门只约束定时扫描；按需评估是否受约束由 applyCooldownOnDemand 控制（默认 false）
type AlertService struct {
	usersRepo             repository.UsersRepository
	orchestrator          *alert.Orchestrator
	cooldown              *alert.CooldownGate
	applyCooldownOnDemand bool
	logger                *zap.Logger

	// now 可注入，测试用固定时钟
	now func() time.Time
}

// NewAlertService 创建 AlertService
func NewAlertService(
	usersRepo repository.UsersRepository,
	orchestrator *alert.Orchestrator,
	cooldown *alert.CooldownGate,
	applyCooldownOnDemand bool,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		usersRepo:             usersRepo,
		orchestrator:          orchestrator,
		cooldown:              cooldown,
		applyCooldownOnDemand: applyCooldownOnDemand,
		logger:                logger,
		now:                   time.Now,
	}
}

// SetClock 注入时钟（测试用）
func (s *AlertService) SetClock(now func() time.Time) {
	s.now = now
}

// EvaluateUser 按需评估单个用户：失联则立即通知紧急联系人
// 用户不存在返回 repository.ErrUserNotFound；未失联时不产生任何写入
func (s *AlertService) EvaluateUser(ctx context.Context, userID string) (*EvaluateResult, error) {
	user, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !alert.IsOverdue(user.LastCheckinDate, now) {
		return &EvaluateResult{Triggered: false}, nil
	}

	if s.applyCooldownOnDemand && !s.cooldown.Allow(user.LastAlertAt, now) {
		s.logger.Info("On-demand evaluation throttled by cooldown",
			zap.String("user_id", user.UserID),
		)
		return &EvaluateResult{Triggered: false, Throttled: true}, nil
	}

	results := s.dispatchAndRecord(ctx, user, now)
	return &EvaluateResult{Triggered: true, Results: results}, nil
}

// RunSweepOnce 对全部用户执行一轮失联扫描
// 单个用户的失败只记日志并跳过，绝不中止整轮扫描；
// 手动调用是安全且幂等的（冷却门天然抑制短时间内的重复报警）
func (s *AlertService) RunSweepOnce(ctx context.Context) (SweepSummary, error) {
	users, err := s.usersRepo.GetAllUsers(ctx)
	if err != nil {
		s.logger.Error("Sweep aborted: failed to list users", zap.Error(err))
		return SweepSummary{}, err
	}

	summary := SweepSummary{Scanned: len(users)}
	now := s.now()

	for _, user := range users {
		if !alert.IsOverdue(user.LastCheckinDate, now) {
			continue
		}

		if !s.cooldown.Allow(user.LastAlertAt, now) {
			s.logger.Info("Skipping user: already alerted within cooldown window",
				zap.String("user_id", user.UserID),
				zap.Timep("last_alert_at", user.LastAlertAt),
			)
			continue
		}

		s.logger.Warn("User has not checked in for 2+ days",
			zap.String("user_id", user.UserID),
			zap.String("username", user.Username),
		)

		s.dispatchAndRecord(ctx, user, now)
		summary.Alerted++
	}

	s.logger.Info("Sweep complete",
		zap.Int("alerted", summary.Alerted),
		zap.Int("scanned", summary.Scanned),
	)
	return summary, nil
}

// dispatchAndRecord 执行多联系人通知并推进 last_alert_at
// 通知尝试完成即推进（部分失败也算已报警）；落库失败只记日志——
// 下一轮扫描会因冷却未推进而重试，不会丢失报警
func (s *AlertService) dispatchAndRecord(ctx context.Context, user *models.User, now time.Time) []models.DispatchResult {
	results := s.orchestrator.DispatchAll(ctx, user)

	for _, r := range results {
		s.logger.Info("Dispatch result",
			zap.String("user_id", user.UserID),
			zap.Int("contact_slot", r.ContactSlot),
			zap.Bool("ok", r.OK),
			zap.String("provider", r.Provider),
			zap.String("error", r.Error),
		)
	}

	if err := s.usersRepo.UpdateLastAlertAt(ctx, user.UserID, now); err != nil {
		s.logger.Error("Failed to persist last_alert_at",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
	} else {
		t := now
		user.LastAlertAt = &t
	}

	return results
}
