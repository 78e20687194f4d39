package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config heartbeat-backend 配置
type Config struct {
	HTTP struct {
		Addr string
	}

	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
		MaxConns int
		MaxIdle  int
	}

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	// Twilio 外呼配置（三项齐全才启用真实外呼，否则走控制台模拟）
	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}

	// 邮件配置（验证码发送）
	Email struct {
		From         string
		ResendAPIKey string
	}

	// 报警配置
	Alert struct {
		Hour                  int  // 每日扫描触发的整点（服务器本地时间），默认 10
		CooldownHours         int  // 同一用户两次报警之间的最小间隔，默认 24
		EvaluateApplyCooldown bool // 按需评估接口是否也受冷却约束（默认 false，对齐原行为）
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":4000")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "heartbeat")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Enabled = cfg.Redis.Addr != ""
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", "")
	cfg.Twilio.FromNumber = getEnv("TWILIO_FROM_NUMBER", "")

	cfg.Email.From = getEnv("EMAIL_FROM", "")
	cfg.Email.ResendAPIKey = getEnv("RESEND_API_KEY", "")

	cfg.Alert.Hour = parseInt(getEnv("ALERT_HOUR", "10"), 10)
	cfg.Alert.CooldownHours = parseInt(getEnv("ALERT_COOLDOWN_HOURS", "24"), 24)
	cfg.Alert.EvaluateApplyCooldown = getEnv("EVALUATE_APPLY_COOLDOWN", "false") == "true"

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// GetDSN 获取数据库连接字符串
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.Database, c.Database.SSLMode)
}

// TwilioConfigured Twilio 凭证是否齐全（功能开关：真实外呼 vs 模拟）
func (c *Config) TwilioConfigured() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
