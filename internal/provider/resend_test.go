package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResendSendEmail_Success(t *testing.T) {
	var gotAuth string
	var gotBody resendEmailRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "email-id-1"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.URL, "re_test_key", zap.NewNop())

	err := client.SendEmail(context.Background(),
		"Heartbeat <noreply@heartbeat.app>", "alice@example.com",
		"Your code", "<p>123456</p>", "123456")

	require.NoError(t, err)
	assert.Equal(t, "Bearer re_test_key", gotAuth)
	assert.Equal(t, "Heartbeat <noreply@heartbeat.app>", gotBody.From)
	assert.Equal(t, []string{"alice@example.com"}, gotBody.To)
	assert.Equal(t, "Your code", gotBody.Subject)
	assert.Equal(t, "<p>123456</p>", gotBody.HTML)
}

func TestResendSendEmail_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"name": "validation_error", "message": "API key is invalid"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.URL, "bad-key", zap.NewNop())

	err := client.SendEmail(context.Background(),
		"noreply@heartbeat.app", "alice@example.com", "Your code", "<p>1</p>", "1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is invalid")
}
