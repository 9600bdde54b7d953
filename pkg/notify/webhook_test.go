package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/notify"
)

func TestWebhookReporter_Name(t *testing.T) {
	n := notify.NewWebhookReporter("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookReporter_Report(t *testing.T) {
	var event notify.RunEvent
	var runHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Credit-Reminder/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)
		runHeader = r.Header.Get(notify.RunHeader)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notify.NewWebhookReporter(server.URL, "")
	err := n.Report(context.Background(), &model.RunReport{RunID: "r1", Day: "2026-10-17", Delivered: 2})
	require.NoError(t, err)
	assert.Equal(t, "r1", runHeader)
	assert.Equal(t, "r1", event.ID)
	assert.Equal(t, notify.EventRunCompleted, event.Event)
	assert.Equal(t, "2026-10-17", event.Day)
	require.NotNil(t, event.Report)
	assert.Equal(t, 2, event.Report.Delivered)
}

func TestWebhookReporter_DegradedRun(t *testing.T) {
	var event notify.RunEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
	}))
	defer server.Close()

	n := notify.NewWebhookReporter(server.URL, "")
	require.NoError(t, n.Report(context.Background(), &model.RunReport{RunID: "r2", Delivered: 1, Failed: 1}))
	assert.Equal(t, notify.EventRunDegraded, event.Event)
}

func TestWebhookReporter_SignatureVerifies(t *testing.T) {
	var signature string
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(notify.SignatureHeader)
		body, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	n := notify.NewWebhookReporter(server.URL, "test-secret")
	require.NoError(t, n.Report(context.Background(), &model.RunReport{RunID: "r3"}))

	assert.Regexp(t, `^t=\d+,v1=[0-9a-f]{64}$`, signature)
	assert.NoError(t, notify.VerifySignature("test-secret", signature, body))
	assert.ErrorIs(t, notify.VerifySignature("other-secret", signature, body), notify.ErrBadSignature)
	assert.ErrorIs(t, notify.VerifySignature("test-secret", signature, append(body, ' ')), notify.ErrBadSignature)
	assert.ErrorIs(t, notify.VerifySignature("test-secret", "garbage", body), notify.ErrBadSignature)
}

func TestWebhookReporter_Unsigned(t *testing.T) {
	var hasSignature bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSignature = r.Header.Get(notify.SignatureHeader) != ""
	}))
	defer server.Close()

	n := notify.NewWebhookReporter(server.URL, "")
	require.NoError(t, n.Report(context.Background(), &model.RunReport{}))
	assert.False(t, hasSignature)
}

func TestWebhookReporter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	n := notify.NewWebhookReporter(server.URL, "")
	err := n.Report(context.Background(), &model.RunReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")
}
