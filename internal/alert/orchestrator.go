package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// Orchestrator 多联系人顺序通知编排
type Orchestrator struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewOrchestrator 创建 Orchestrator
func NewOrchestrator(dispatcher *Dispatcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// DispatchAll 按槽位顺序逐个通知用户的紧急联系人，聚合全部结果
// 槽位1始终尝试（未配置电话时产生显式的 "no phone" 结果而不是被跳过）；
// 槽位2及之后只在配置了电话时尝试。严格顺序执行保证结果顺序与槽位一致，
// 槽位1失败不会中止后续槽位
func (o *Orchestrator) DispatchAll(ctx context.Context, user *models.User) []models.DispatchResult {
	twiml := ComposeVoiceMessage(user.SpokenName(), user.Language)

	var results []models.DispatchResult
	for i, contact := range user.Contacts() {
		slot := i + 1
		if slot > 1 && !contact.Configured() {
			continue
		}
		results = append(results, o.dispatcher.Dispatch(ctx, slot, contact, twiml))
	}

	return results
}
