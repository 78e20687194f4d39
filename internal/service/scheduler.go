package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler 每日定时扫描调度器
// 每天在固定整点触发一轮 RunSweepOnce；同一时刻最多只有一轮扫描在跑，
// 上一轮未结束时新触发直接丢弃（不排队）
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	svc    *AlertService
	hour   int
	logger *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	// now 可注入，测试用固定时钟
	now func() time.Time
}

// NewScheduler 创建调度器，hour 为每日触发的整点（本地时间，0-23）
func NewScheduler(svc *AlertService, hour int, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if hour < 0 || hour > 23 {
		hour = 10
	}
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		svc:    svc,
		hour:   hour,
		logger: logger,
		now:    time.Now,
	}
}

// Start 启动调度循环
func (s *Scheduler) Start() {
	s.logger.Info("Emergency check scheduler started",
		zap.Int("daily_hour", s.hour),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			next := NextRunAt(s.now(), s.hour)
			timer := time.NewTimer(next.Sub(s.now()))

			select {
			case <-timer.C:
				s.trigger()
			case <-s.ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

// Stop 停止调度并等待进行中的扫描结束
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// trigger 触发一轮扫描；上一轮还在跑时丢弃本次触发
func (s *Scheduler) trigger() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous sweep still running, dropping this trigger")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		s.logger.Info("Running daily emergency check")
		if _, err := s.svc.RunSweepOnce(s.ctx); err != nil {
			s.logger.Error("Daily emergency check failed", zap.Error(err))
		}
	}()
}

// NextRunAt 计算 now 之后最近一次 hour 整点的触发时间
func NextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
