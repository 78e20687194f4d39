package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// PostgresUsersRepo 用户仓库的 PostgreSQL 实现
type PostgresUsersRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresUsersRepo 创建用户仓库
func NewPostgresUsersRepo(db *sql.DB, logger *zap.Logger) *PostgresUsersRepo {
	return &PostgresUsersRepo{
		db:     db,
		logger: logger,
	}
}

// usersSchema users 表结构（启动时幂等建表，对齐原 sqlite 版迁移策略）
const usersSchema = `
	CREATE TABLE IF NOT EXISTS users (
		user_id           TEXT PRIMARY KEY,
		username          TEXT,
		call_name         TEXT,
		email             TEXT UNIQUE,
		password          TEXT,
		contact_name      TEXT,
		contact_phone     TEXT,
		contact_name2     TEXT,
		contact_phone2    TEXT,
		last_checkin_date DATE,
		last_alert_at     TIMESTAMPTZ,
		language          TEXT DEFAULT 'en',
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// EnsureSchema 幂等创建 users 表
func (r *PostgresUsersRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, usersSchema); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

const userColumns = `
	user_id, username, call_name, email, password,
	contact_name, contact_phone, contact_name2, contact_phone2,
	last_checkin_date, last_alert_at, language, updated_at
`

// GetUser 按 user_id 查询用户
func (r *PostgresUsersRepo) GetUser(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail 按邮箱查询用户（登录 / 找回密码）
func (r *PostgresUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetAllUsers 查询全部用户（供每日扫描遍历；顺序为存储顺序，不保证）
func (r *PostgresUsersRepo) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// UpsertUser 按主键插入或全字段覆盖
func (r *PostgresUsersRepo) UpsertUser(ctx context.Context, user *models.User) error {
	if user == nil || user.UserID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `
		INSERT INTO users (
			user_id, username, call_name, email, password,
			contact_name, contact_phone, contact_name2, contact_phone2,
			last_checkin_date, last_alert_at, language, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13
		)
		ON CONFLICT (user_id) DO UPDATE SET
			username          = EXCLUDED.username,
			call_name         = EXCLUDED.call_name,
			email             = EXCLUDED.email,
			password          = EXCLUDED.password,
			contact_name      = EXCLUDED.contact_name,
			contact_phone     = EXCLUDED.contact_phone,
			contact_name2     = EXCLUDED.contact_name2,
			contact_phone2    = EXCLUDED.contact_phone2,
			last_checkin_date = EXCLUDED.last_checkin_date,
			last_alert_at     = EXCLUDED.last_alert_at,
			language          = EXCLUDED.language,
			updated_at        = EXCLUDED.updated_at
	`

	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		user.UserID,
		nullIfEmpty(user.Username),
		nullIfEmpty(user.CallName),
		nullIfEmpty(user.Email),
		nullIfEmpty(user.Password),
		nullIfEmpty(user.EmergencyContact.Name),
		nullIfEmpty(user.EmergencyContact.Phone),
		nullIfEmpty(user.EmergencyContact2.Name),
		nullIfEmpty(user.EmergencyContact2.Phone),
		nullTime(user.LastCheckinDate),
		nullTime(user.LastAlertAt),
		string(user.Language),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateLastAlertAt 推进 last_alert_at（只前进不后退）
func (r *PostgresUsersRepo) UpdateLastAlertAt(ctx context.Context, userID string, at time.Time) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `
		UPDATE users
		SET last_alert_at = GREATEST(COALESCE(last_alert_at, $2), $2),
		    updated_at = $2
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("failed to update last_alert_at: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword 更新密码 hash
func (r *PostgresUsersRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `UPDATE users SET password = $2, updated_at = $3 WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// rowScanner 兼容 *sql.Row 和 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var username, callName, email, password sql.NullString
	var contactName, contactPhone, contactName2, contactPhone2 sql.NullString
	var lastCheckinDate, lastAlertAt sql.NullTime
	var language sql.NullString

	err := row.Scan(
		&user.UserID,
		&username,
		&callName,
		&email,
		&password,
		&contactName,
		&contactPhone,
		&contactName2,
		&contactPhone2,
		&lastCheckinDate,
		&lastAlertAt,
		&language,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Username = username.String
	user.CallName = callName.String
	user.Email = email.String
	user.Password = password.String
	user.EmergencyContact = models.EmergencyContact{Name: contactName.String, Phone: contactPhone.String}
	user.EmergencyContact2 = models.EmergencyContact{Name: contactName2.String, Phone: contactPhone2.String}
	if lastCheckinDate.Valid {
		t := lastCheckinDate.Time
		user.LastCheckinDate = &t
	}
	if lastAlertAt.Valid {
		t := lastAlertAt.Time
		user.LastAlertAt = &t
	}
	user.Language = models.NormalizeLanguage(language.String)

	return &user, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
