package alert

import "time"

// OverdueDays 连续未打卡多少个自然日视为失联
const OverdueDays = 2

// IsOverdue 判断用户是否失联（超过 OverdueDays 个自然日未打卡）
// 从未打卡（lastCheckin 为 nil）视为失联
// 只比较自然日：lastCheckin 是纯日期值（无时间部分），按其自身的年月日取值；
// now 按自身时区取当日日期。两边都折算到同一参考零点后求日差，避免时区漂移
func IsOverdue(lastCheckin *time.Time, now time.Time) bool {
	if lastCheckin == nil {
		return true
	}

	diffDays := int(civilDate(now).Sub(civilDate(*lastCheckin)).Hours() / 24)
	return diffDays >= OverdueDays
}

// civilDate 取 t 的年月日，固定落到 UTC 零点作为参考日界
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
