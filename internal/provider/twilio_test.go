package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/models"
)

func TestTwilioPlaceCall_Success(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotTwiml string
	var gotUser, gotPass string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotTwiml = r.PostFormValue("Twiml")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "CA1234567890", "status": "queued"}`))
	}))
	defer server.Close()

	client := NewTwilioClient(server.URL, "AC-test-sid", "test-token", zap.NewNop())

	sid, err := client.PlaceCall(context.Background(),
		"+15551234567", "+15550000000", "<Response><Say>hello</Say></Response>")

	require.NoError(t, err)
	assert.Equal(t, "CA1234567890", sid)
	assert.Equal(t, "/2010-04-01/Accounts/AC-test-sid/Calls.json", gotPath)
	assert.Equal(t, "AC-test-sid", gotUser)
	assert.Equal(t, "test-token", gotPass)
	assert.Equal(t, "+15551234567", gotTo)
	assert.Equal(t, "+15550000000", gotFrom)
	assert.Equal(t, "<Response><Say>hello</Say></Response>", gotTwiml)
}

func TestTwilioPlaceCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": 21211, "message": "Invalid 'To' phone number", "status": 400}`))
	}))
	defer server.Close()

	client := NewTwilioClient(server.URL, "AC-test-sid", "test-token", zap.NewNop())

	_, err := client.PlaceCall(context.Background(), "bad-number", "+15550000000", "<Response/>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid 'To' phone number")
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioPlaceCall_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewTwilioClient(server.URL, "AC-test-sid", "test-token", zap.NewNop())

	_, err := client.PlaceCall(context.Background(), "+15551234567", "+15550000000", "<Response/>")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestTwilioClient_Name(t *testing.T) {
	client := NewTwilioClient(DefaultTwilioBaseURL, "AC-test-sid", "test-token", zap.NewNop())

	assert.Equal(t, models.ProviderTwilio, client.Name())
}
