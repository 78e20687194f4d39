package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

// DefaultTwilioBaseURL Twilio REST API 地址
const DefaultTwilioBaseURL = "https://api.twilio.com"

// twilioCallResponse Calls API 成功响应（只取需要的字段）
type twilioCallResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

// twilioErrorResponse Calls API 错误响应
type twilioErrorResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status"`
	MoreInfo string `json:"more_info"`
}

// TwilioClient Twilio 语音外呼客户端（实现 alert.CallProvider）
type TwilioClient struct {
	httpClient *resty.Client
	accountSID string
	logger     *zap.Logger
}

// NewTwilioClient 创建 Twilio 客户端
// baseURL 可注入（测试时指向 httptest server）
func NewTwilioClient(baseURL, accountSID, authToken string, logger *zap.Logger) *TwilioClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")

	return &TwilioClient{
		httpClient: client,
		accountSID: accountSID,
		logger:     logger,
	}
}

// Name 渠道名
func (c *TwilioClient) Name() string {
	return models.ProviderTwilio
}

// PlaceCall 发起一通外呼并播报 twiml
// 鉴权/配额/网络错误统一转为 error 返回，由调用方记入结果，不在此处重试
func (c *TwilioClient) PlaceCall(ctx context.Context, to, from, twiml string) (string, error) {
	var callResp twilioCallResponse
	var errResp twilioErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":    to,
			"From":  from,
			"Twiml": twiml,
		}).
		SetResult(&callResp).
		SetError(&errResp).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Calls.json", c.accountSID))

	if err != nil {
		return "", fmt.Errorf("failed to call Twilio API: %w", err)
	}

	if resp.IsError() {
		if errResp.Message != "" {
			return "", fmt.Errorf("Twilio API error: %s (code: %d)", errResp.Message, errResp.Code)
		}
		return "", fmt.Errorf("Twilio API error: HTTP %d", resp.StatusCode())
	}

	c.logger.Info("Twilio call created",
		zap.String("to", to),
		zap.String("call_sid", callResp.Sid),
		zap.String("call_status", callResp.Status),
	)

	return callResp.Sid, nil
}
