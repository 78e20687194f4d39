package service

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
	"github.com/lyu3239-oss/heartbeat-app/internal/repository"
	"github.com/lyu3239-oss/heartbeat-app/internal/store"
)

const (
	bcryptCost     = 10
	minPasswordLen = 6
	codeTTL        = 10 * time.Minute
)

// EmailSender 验证码邮件发送接口（provider.ResendClient 实现）
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, html, text string) error
}

// AuthError 带 HTTP 状态码和本地化文案的认证错误
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// authErr 按用户语言挑选文案
func authErr(status int, lang models.Language, en, zh string) *AuthError {
	msg := en
	if lang == models.LanguageZH {
		msg = zh
	}
	return &AuthError{Status: status, Message: msg}
}

// AuthService 认证服务接口
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*models.User, error)
	SendVerificationCode(ctx context.Context, email string, lang models.Language) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Language string `json:"language"`
}

// ResetPasswordRequest 重置密码请求（验证码方式）
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
	Language    string `json:"language"`
}

// ChangePasswordRequest 修改密码请求（已登录场景）
type ChangePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	Language        string `json:"language"`
}

// authService 实现
type authService struct {
	usersRepo repository.UsersRepository
	codes     store.CodeStore
	sender    EmailSender
	emailFrom string
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService
// sender 为 nil 或 emailFrom 为空时，验证码发送返回"未配置"错误
func NewAuthService(
	usersRepo repository.UsersRepository,
	codes store.CodeStore,
	sender EmailSender,
	emailFrom string,
	logger *zap.Logger,
) AuthService {
	return &authService{
		usersRepo: usersRepo,
		codes:     codes,
		sender:    sender,
		emailFrom: emailFrom,
		logger:    logger,
	}
}

// Register 邮箱注册
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	lang := models.NormalizeLanguage(req.Language)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if email == "" || req.Password == "" {
		return nil, authErr(http.StatusBadRequest, lang,
			"Email and password are required", "邮箱和密码为必填项")
	}
	if len(req.Password) < minPasswordLen {
		return nil, authErr(http.StatusBadRequest, lang,
			"Password must be at least 6 characters", "密码长度至少为6位")
	}

	if _, err := s.usersRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, authErr(http.StatusConflict, lang,
			"This email is already registered", "该邮箱已被注册")
	} else if err != repository.ErrUserNotFound {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	user := &models.User{
		UserID:    deriveUserID(email),
		Username:  username,
		CallName:  username,
		Email:     email,
		Password:  string(hashed),
		Language:  lang,
		UpdatedAt: time.Now(),
	}

	if err := s.usersRepo.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.UserID),
	)
	return user, nil
}

// Login 邮箱密码登录
// 不区分"邮箱不存在"和"密码错误"，统一返回 invalid credentials
func (s *authService) Login(ctx context.Context, req LoginRequest) (*models.User, error) {
	lang := models.NormalizeLanguage(req.Language)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if email == "" || req.Password == "" {
		return nil, authErr(http.StatusBadRequest, lang,
			"Please enter email and password", "请填写邮箱和密码")
	}

	user, err := s.usersRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			s.logger.Warn("Login failed: unknown email")
			return nil, authErr(http.StatusUnauthorized, lang,
				"Invalid email or password", "邮箱或密码错误")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		s.logger.Warn("Login failed: wrong password",
			zap.String("user_id", user.UserID),
		)
		return nil, authErr(http.StatusUnauthorized, lang,
			"Invalid email or password", "邮箱或密码错误")
	}

	// 登录时同步语言偏好（影响后续报警电话的语种）
	if user.Language != lang {
		user.Language = lang
		user.UpdatedAt = time.Now()
		if err := s.usersRepo.UpsertUser(ctx, user); err != nil {
			s.logger.Warn("Failed to update language preference",
				zap.String("user_id", user.UserID),
				zap.Error(err),
			)
		}
	}

	return user, nil
}

// SendVerificationCode 发送 6 位数字验证码到注册邮箱
func (s *authService) SendVerificationCode(ctx context.Context, email string, lang models.Language) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return authErr(http.StatusBadRequest, lang,
			"Please provide an email address", "请提供邮箱地址")
	}

	if _, err := s.usersRepo.GetUserByEmail(ctx, email); err != nil {
		if err == repository.ErrUserNotFound {
			return authErr(http.StatusNotFound, lang,
				"This email is not registered", "该邮箱未注册")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	code := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
	if err := s.codes.Set(ctx, email, code, codeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if s.sender == nil || s.emailFrom == "" {
		_ = s.codes.Delete(ctx, email)
		s.logger.Warn("Email service is not configured")
		return authErr(http.StatusServiceUnavailable, lang,
			"Email service is not configured yet. Please contact support.",
			"邮件服务尚未配置，请联系管理员。")
	}

	subject := pick(lang, "Your Heartbeat verification code", "您的 Heartbeat 验证码")
	html := verificationEmailHTML(lang, code)
	text := fmt.Sprintf("%s: %s. %s",
		pick(lang, "Your verification code is", "您的验证码是"),
		code,
		pick(lang, "It expires in 10 minutes.", "10 分钟后过期。"),
	)

	if err := s.sender.SendEmail(ctx, s.emailFrom, email, subject, html, text); err != nil {
		_ = s.codes.Delete(ctx, email)
		s.logger.Error("Failed to send verification email", zap.Error(err))
		return authErr(http.StatusBadGateway, lang,
			"Failed to send verification email. Please try again later.",
			"验证码发送失败，请稍后重试。")
	}

	s.logger.Info("Verification code sent")
	return nil
}

// ResetPassword 验证码重置密码
func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	lang := models.NormalizeLanguage(req.Language)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if email == "" || req.Code == "" || req.NewPassword == "" {
		return authErr(http.StatusBadRequest, lang,
			"Please fill in all fields", "请填写所有字段")
	}
	if len(req.NewPassword) < minPasswordLen {
		return authErr(http.StatusBadRequest, lang,
			"New password must be at least 6 characters", "新密码长度至少为6位")
	}

	stored, err := s.codes.Get(ctx, email)
	if err != nil {
		if err == store.ErrCodeMiss {
			// 未申请过和已过期在存储里不可区分，统一提示重新获取
			return authErr(http.StatusBadRequest, lang,
				"Code expired or not requested, please request a new one",
				"验证码已过期或未获取，请重新获取")
		}
		return fmt.Errorf("failed to load verification code: %w", err)
	}
	if stored != req.Code {
		return authErr(http.StatusBadRequest, lang,
			"Invalid verification code", "验证码错误")
	}

	user, err := s.usersRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return authErr(http.StatusNotFound, lang, "User not found", "用户不存在")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.usersRepo.UpdatePassword(ctx, user.UserID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	_ = s.codes.Delete(ctx, email)

	s.logger.Info("Password reset",
		zap.String("user_id", user.UserID),
	)
	return nil
}

// ChangePassword 修改密码（需要当前密码）
func (s *authService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	lang := models.NormalizeLanguage(req.Language)
	email := strings.TrimSpace(strings.ToLower(req.Email))

	if email == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return authErr(http.StatusBadRequest, lang,
			"Please fill in all fields", "请填写所有字段")
	}
	if len(req.NewPassword) < minPasswordLen {
		return authErr(http.StatusBadRequest, lang,
			"New password must be at least 6 characters", "新密码长度至少为6位")
	}

	user, err := s.usersRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return authErr(http.StatusNotFound, lang, "User not found", "用户不存在")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return authErr(http.StatusUnauthorized, lang,
			"Current password is incorrect", "当前密码错误")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.usersRepo.UpdatePassword(ctx, user.UserID, string(hashed)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed",
		zap.String("user_id", user.UserID),
	)
	return nil
}

// deriveUserID 由邮箱派生稳定的用户 ID（对齐 iOS 客户端的既有约定）
func deriveUserID(email string) string {
	id := strings.ReplaceAll(email, "@", "-")
	id = strings.ReplaceAll(id, ".", "-")
	return "ios-" + strings.ToLower(id)
}

func pick(lang models.Language, en, zh string) string {
	if lang == models.LanguageZH {
		return zh
	}
	return en
}

func verificationEmailHTML(lang models.Language, code string) string {
	return fmt.Sprintf(`
      <div style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; line-height: 1.5;">
        <h2>%s</h2>
        <p>%s</p>
        <p style="font-size: 24px; font-weight: bold; letter-spacing: 3px;">%s</p>
        <p>%s</p>
      </div>
    `,
		pick(lang, "Heartbeat verification code", "Heartbeat 验证码"),
		pick(lang, "Your verification code is:", "您的验证码是："),
		code,
		pick(lang, "This code expires in 10 minutes.", "验证码 10 分钟后过期。"),
	)
}
