package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
	"github.com/lyu3239-oss/heartbeat-app/internal/service"
)

// AuthHandler 认证 Handler
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler 创建认证 Handler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
// 先按路径路由再检查方法：未知路径一律 404，已知路径的非 POST 请求 405
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handle http.HandlerFunc
	switch r.URL.Path {
	case "/api/auth/register":
		handle = h.Register
	case "/api/auth/login":
		handle = h.Login
	case "/api/auth/send-code":
		handle = h.SendCode
	case "/api/auth/reset-password":
		handle = h.ResetPassword
	case "/api/auth/change-password":
		handle = h.ChangePassword
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	handle(w, r)
}

// Register 注册
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	lang := models.NormalizeLanguage(req.Language)
	Ok(w, Result{
		"message": localize(lang, "Registration successful", "注册成功"),
		"user":    user,
	})
}

// Login 登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	lang := models.NormalizeLanguage(req.Language)
	Ok(w, Result{
		"message": localize(lang, "Login successful", "登录成功"),
		"user":    user,
	})
}

// SendCode 发送验证码
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Language string `json:"language"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := models.NormalizeLanguage(req.Language)
	if err := h.authService.SendVerificationCode(r.Context(), req.Email, lang); err != nil {
		h.writeAuthError(w, err)
		return
	}

	Ok(w, Result{
		"message": localize(lang, "Verification code sent to your email", "验证码已发送到邮箱"),
	})
}

// ResetPassword 验证码重置密码
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req); err != nil {
		h.writeAuthError(w, err)
		return
	}

	lang := models.NormalizeLanguage(req.Language)
	Ok(w, Result{
		"message": localize(lang, "Password reset successful", "密码重置成功"),
	})
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), req); err != nil {
		h.writeAuthError(w, err)
		return
	}

	lang := models.NormalizeLanguage(req.Language)
	Ok(w, Result{
		"message": localize(lang, "Password changed successfully", "密码修改成功"),
	})
}

// writeAuthError 认证错误带自身的状态码和本地化文案；其余按 500 处理
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		Fail(w, authErr.Status, authErr.Message)
		return
	}
	h.logger.Error("Auth request failed", zap.Error(err))
	Fail(w, http.StatusInternalServerError, "internal error")
}

func localize(lang models.Language, en, zh string) string {
	if lang == models.LanguageZH {
		return zh
	}
	return en
}
