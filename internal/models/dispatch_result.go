package models

// 拨打渠道标识
const (
	ProviderNone      = "none"      // 未配置电话，未尝试拨打
	ProviderTwilio    = "twilio"    // Twilio 真实外呼
	ProviderSimulated = "simulated" // 未配置 Twilio 时的控制台模拟
)

// DispatchResult 单个联系人的一次通知结果（临时数据，不落库）
type DispatchResult struct {
	ContactSlot  int    `json:"contact"`
	OK           bool   `json:"ok"`
	Provider     string `json:"provider"`
	ContactName  string `json:"contactName,omitempty"`
	ContactPhone string `json:"contactPhone,omitempty"`
	CallID       string `json:"callSid,omitempty"`
	Error        string `json:"error,omitempty"`
}
