package alert

import "time"

// DefaultCooldown 同一用户两次报警之间的默认最小间隔
const DefaultCooldown = 24 * time.Hour

// CooldownGate 报警冷却门：抑制冷却窗口内的重复报警
// 只约束定时扫描；按需评估默认绕过（见 service.AlertService）
type CooldownGate struct {
	Window time.Duration
}

// NewCooldownGate 创建冷却门，window <= 0 时使用默认 24 小时
func NewCooldownGate(window time.Duration) *CooldownGate {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &CooldownGate{Window: window}
}

// Allow 判断是否允许再次报警
// 从未报警（lastAlertAt 为 nil）放行；距上次报警不足窗口期则抑制
func (g *CooldownGate) Allow(lastAlertAt *time.Time, now time.Time) bool {
	if lastAlertAt == nil {
		return true
	}
	return now.Sub(*lastAlertAt) >= g.Window
}
