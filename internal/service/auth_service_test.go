package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
	"github.com/lyu3239-oss/heartbeat-app/internal/store"
)

// fakeEmailSender 记录发送内容的邮件渠道
type fakeEmailSender struct {
	sent    int
	lastTo  string
	lastSub string
	err     error
}

func (s *fakeEmailSender) SendEmail(_ context.Context, _, to, subject, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	s.lastTo = to
	s.lastSub = subject
	return nil
}

func newTestAuthService(repo *fakeUsersRepo, sender EmailSender) (AuthService, store.CodeStore) {
	codes := store.NewMemoryCodeStore()
	svc := NewAuthService(repo, codes, sender, "Heartbeat <noreply@heartbeat.app>", zap.NewNop())
	return svc, codes
}

func TestRegister_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	user, err := svc.Register(context.Background(), RegisterRequest{
		Username: "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
		Language: "en",
	})

	require.NoError(t, err)
	assert.Equal(t, "ios-alice-example-com", user.UserID)
	assert.Equal(t, "Alice", user.Username)
	assert.Equal(t, "Alice", user.CallName)
	assert.Equal(t, models.LanguageEN, user.Language)
	// 存的是 bcrypt hash，不是明文
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
	assert.Equal(t, 1, repo.upserts)
}

func TestRegister_UsernameDerivedFromEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	user, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "bob@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestRegister_ShortPassword(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: "123",
		Language: "zh",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Equal(t, "密码长度至少为6位", authErr.Message)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "another123",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusConflict, authErr.Status)
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123", Language: "en",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "secret123", Language: "en",
	})

	require.NoError(t, err)
	assert.Equal(t, "ios-alice-example-com", user.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "wrong-password",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestLogin_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "Invalid email or password", authErr.Message)
}

func TestLogin_UpdatesLanguagePreference(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123", Language: "en",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "secret123", Language: "zh",
	})

	require.NoError(t, err)
	assert.Equal(t, models.LanguageZH, user.Language)
	assert.Equal(t, models.LanguageZH, repo.users["ios-alice-example-com"].Language)
}

func TestSendVerificationCode_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	sender := &fakeEmailSender{}
	svc, codes := newTestAuthService(repo, sender)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.SendVerificationCode(context.Background(), "alice@example.com", models.LanguageEN)

	require.NoError(t, err)
	assert.Equal(t, 1, sender.sent)
	assert.Equal(t, "alice@example.com", sender.lastTo)

	code, err := codes.Get(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestSendVerificationCode_UnknownEmail(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	err := svc.SendVerificationCode(context.Background(), "nobody@example.com", models.LanguageEN)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusNotFound, authErr.Status)
}

func TestSendVerificationCode_NotConfigured(t *testing.T) {
	repo := newFakeUsersRepo()
	codes := store.NewMemoryCodeStore()
	svc := NewAuthService(repo, codes, nil, "", zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.SendVerificationCode(context.Background(), "alice@example.com", models.LanguageEN)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusServiceUnavailable, authErr.Status)

	// 未发出去的码必须删掉
	_, codeErr := codes.Get(context.Background(), "alice@example.com")
	assert.ErrorIs(t, codeErr, store.ErrCodeMiss)
}

func TestResetPassword_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	sender := &fakeEmailSender{}
	svc, codes := newTestAuthService(repo, sender)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, codes.Set(context.Background(), "alice@example.com", "123456", time.Minute))

	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email: "alice@example.com", Code: "123456", NewPassword: "newsecret",
	})
	require.NoError(t, err)

	// 新密码可登录，码被消费
	_, err = svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "newsecret",
	})
	assert.NoError(t, err)
	_, codeErr := codes.Get(context.Background(), "alice@example.com")
	assert.ErrorIs(t, codeErr, store.ErrCodeMiss)
}

func TestResetPassword_WrongCode(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, codes := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	require.NoError(t, codes.Set(context.Background(), "alice@example.com", "123456", time.Minute))

	err = svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email: "alice@example.com", Code: "654321", NewPassword: "newsecret",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
}

func TestResetPassword_NoCodeRequested(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	err := svc.ResetPassword(context.Background(), ResetPasswordRequest{
		Email: "alice@example.com", Code: "123456", NewPassword: "newsecret",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
}

func TestChangePassword_Success(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), ChangePasswordRequest{
		Email: "alice@example.com", CurrentPassword: "secret123", NewPassword: "newsecret",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email: "alice@example.com", Password: "newsecret",
	})
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrentPassword(t *testing.T) {
	repo := newFakeUsersRepo()
	svc, _ := newTestAuthService(repo, &fakeEmailSender{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email: "alice@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), ChangePasswordRequest{
		Email: "alice@example.com", CurrentPassword: "wrong", NewPassword: "newsecret",
	})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}
