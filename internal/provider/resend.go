package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultResendBaseURL Resend API 地址
const DefaultResendBaseURL = "https://api.resend.com"

type resendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type resendErrorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// ResendClient Resend 邮件发送客户端（用于验证码邮件）
type ResendClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewResendClient 创建 Resend 客户端
func NewResendClient(baseURL, apiKey string, logger *zap.Logger) *ResendClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &ResendClient{
		httpClient: client,
		logger:     logger,
	}
}

// SendEmail 发送一封邮件
func (c *ResendClient) SendEmail(ctx context.Context, from, to, subject, html, text string) error {
	var errResp resendErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(resendEmailRequest{
			From:    from,
			To:      []string{to},
			Subject: subject,
			HTML:    html,
			Text:    text,
		}).
		SetError(&errResp).
		Post("/emails")

	if err != nil {
		return fmt.Errorf("failed to call Resend API: %w", err)
	}

	if resp.IsError() {
		if errResp.Message != "" {
			return fmt.Errorf("Resend API error: %s", errResp.Message)
		}
		return fmt.Errorf("Resend API error: HTTP %d", resp.StatusCode())
	}

	c.logger.Info("Verification email sent",
		zap.String("to", to),
	)
	return nil
}
