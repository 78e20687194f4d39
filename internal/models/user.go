package models

import (
	"strings"
	"time"
)

// Language 用户语言偏好（影响报警电话和邮件文案）
type Language string

const (
	LanguageEN Language = "en"
	LanguageZH Language = "zh"
)

// NormalizeLanguage 规范化语言值，未识别的值回退到英文
func NormalizeLanguage(v string) Language {
	if strings.TrimSpace(strings.ToLower(v)) == string(LanguageZH) {
		return LanguageZH
	}
	return LanguageEN
}

// EmergencyContact 紧急联系人（姓名 + 电话）
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Configured 判断联系人是否配置了可拨打的电话号码
func (c EmergencyContact) Configured() bool {
	return strings.TrimSpace(c.Phone) != ""
}

// User 用户模型
// last_checkin_date 只保留日期（无时间部分）；last_alert_at 为完整时间戳
type User struct {
	UserID            string           `json:"userId"`
	Username          string           `json:"username"`
	CallName          string           `json:"callName"`
	Email             string           `json:"email"`
	Password          string           `json:"-"` // bcrypt hash，永不序列化
	EmergencyContact  EmergencyContact `json:"emergencyContact"`
	EmergencyContact2 EmergencyContact `json:"emergencyContact2"`
	LastCheckinDate   *time.Time       `json:"lastCheckinDate,omitempty"`
	LastAlertAt       *time.Time       `json:"lastAlertAt,omitempty"`
	Language          Language         `json:"language"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

// Contacts 按槽位顺序返回紧急联系人列表
// 槽位1始终在列表中（即使未配置电话）；槽位2及之后只有配置了电话才参与拨打，
// 该取舍由调度层（orchestrator）负责
func (u *User) Contacts() []EmergencyContact {
	return []EmergencyContact{u.EmergencyContact, u.EmergencyContact2}
}

// SpokenName 返回用于语音播报的名字：callName → username → 空串（由文案层兜底）
func (u *User) SpokenName() string {
	if name := strings.TrimSpace(u.CallName); name != "" {
		return name
	}
	return strings.TrimSpace(u.Username)
}
