package alert

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// CallProvider 外呼渠道接口
// 实现方：provider.TwilioClient（真实外呼）、SimulatedProvider（控制台模拟）
type CallProvider interface {
	// Name 渠道名，写入 DispatchResult.Provider
	Name() string
	// PlaceCall 向 to 拨打一通电话并播报 twiml 内容，返回渠道侧的呼叫 ID
	PlaceCall(ctx context.Context, to, from, twiml string) (string, error)
}

// CallTimeout 单次外呼请求的超时上限（外呼是唯一会阻塞在外部 I/O 的点）
const CallTimeout = 15 * time.Second

// Dispatcher 单联系人通知执行器
// provider 在进程启动时一次性选定（Twilio 凭证齐全 → 真实外呼，否则模拟）
type Dispatcher struct {
	provider CallProvider
	from     string
	logger   *zap.Logger
}

// NewDispatcher 创建 Dispatcher
func NewDispatcher(provider CallProvider, from string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		from:     from,
		logger:   logger,
	}
}

// Dispatch 向单个联系人发起一次通知
// 电话为空是预期内的"未配置"结果（ok=false, provider=none），不是错误；
// 渠道失败（网络/鉴权/配额）被捕获并转为结果记录，不向上传播
func (d *Dispatcher) Dispatch(ctx context.Context, slot int, contact models.EmergencyContact, twiml string) models.DispatchResult {
	result := models.DispatchResult{
		ContactSlot:  slot,
		ContactName:  contact.Name,
		ContactPhone: contact.Phone,
	}

	if strings.TrimSpace(contact.Phone) == "" {
		d.logger.Info("No emergency contact phone number configured",
			zap.Int("contact_slot", slot),
		)
		result.OK = false
		result.Provider = models.ProviderNone
		result.Error = "No phone number"
		return result
	}

	callCtx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	callID, err := d.provider.PlaceCall(callCtx, contact.Phone, d.from, twiml)
	result.Provider = d.provider.Name()
	if err != nil {
		d.logger.Error("Failed to place emergency call",
			zap.Int("contact_slot", slot),
			zap.String("contact_phone", contact.Phone),
			zap.String("provider", d.provider.Name()),
			zap.Error(err),
		)
		result.OK = false
		result.Error = err.Error()
		return result
	}

	d.logger.Info("Emergency call placed",
		zap.Int("contact_slot", slot),
		zap.String("contact_name", contact.Name),
		zap.String("contact_phone", contact.Phone),
		zap.String("provider", d.provider.Name()),
		zap.String("call_id", callID),
	)
	result.OK = true
	result.CallID = callID
	return result
}

// SimulatedProvider 未配置 Twilio 时的空对象实现：只打日志，视为拨打成功
// 模拟拨打同样推进冷却（lastAlertAt）
type SimulatedProvider struct {
	logger *zap.Logger
}

// NewSimulatedProvider 创建模拟外呼渠道
func NewSimulatedProvider(logger *zap.Logger) *SimulatedProvider {
	return &SimulatedProvider{logger: logger}
}

func (p *SimulatedProvider) Name() string {
	return models.ProviderSimulated
}

func (p *SimulatedProvider) PlaceCall(_ context.Context, to, from, twiml string) (string, error) {
	callID := "sim-" + uuid.New().String()
	p.logger.Info("Emergency call simulated (Twilio not configured)",
		zap.String("to", to),
		zap.String("from", from),
		zap.String("call_id", callID),
		zap.Int("twiml_bytes", len(twiml)),
	)
	return callID, nil
}
