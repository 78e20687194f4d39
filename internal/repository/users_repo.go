package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// UsersRepository 用户Repository接口
// 使用强类型领域模型，不使用map[string]any
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	// UpsertUser 按主键 user_id 插入或全字段覆盖
	UpsertUser(ctx context.Context, user *models.User) error

	// UpdateLastAlertAt 单独推进 last_alert_at（行级原子写，
	// 定时扫描和按需评估可能并发触碰同一用户）
	UpdateLastAlertAt(ctx context.Context, userID string, at time.Time) error

	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
