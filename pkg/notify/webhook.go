package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// Webhook event names. A run with any failed delivery is reported as degraded.
const (
	EventRunCompleted = "reminder.run.completed"
	EventRunDegraded  = "reminder.run.degraded"
)

// Headers set on every webhook request. RunHeader lets receivers drop
// repeated posts of the same run.
const (
	RunHeader       = "X-Reminder-Run"
	SignatureHeader = "X-Reminder-Signature"
)

// ErrBadSignature is returned by VerifySignature for a header that does not match.
var ErrBadSignature = errors.New("webhook signature mismatch")

// WebhookReporter posts run summaries to a generic HTTP webhook.
type WebhookReporter struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

// NewWebhookReporter creates a webhook reporter. With a non-empty secret each
// request carries SignatureHeader as "t=<unix>,v1=<hex hmac-sha256 of t.body>".
func NewWebhookReporter(url, secret string) *WebhookReporter {
	return &WebhookReporter{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (w *WebhookReporter) Name() string { return "webhook" }

// RunEvent is the JSON body of a webhook post.
type RunEvent struct {
	ID     string           `json:"id"`
	Event  string           `json:"event"`
	Day    string           `json:"day"`
	DryRun bool             `json:"dry_run"`
	Report *model.RunReport `json:"report"`
}

func (w *WebhookReporter) Report(ctx context.Context, report *model.RunReport) error {
	event := RunEvent{
		ID:     report.RunID,
		Event:  EventRunCompleted,
		Day:    report.Day,
		DryRun: report.DryRun,
		Report: report,
	}
	if report.Failed > 0 {
		event.Event = EventRunDegraded
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Credit-Reminder/1.0")
	req.Header.Set(RunHeader, report.RunID)
	if w.secret != "" {
		req.Header.Set(SignatureHeader, sign(w.secret, w.now().Unix(), body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post run event %s: %w", report.RunID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// VerifySignature checks a SignatureHeader value against body. Receivers use it
// to authenticate run events.
func VerifySignature(secret, header string, body []byte) error {
	var ts int64
	var mac string
	for _, part := range strings.Split(header, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = n
		case "v1":
			mac = v
		}
	}
	if ts == 0 || mac == "" {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(sign(secret, ts, body)), []byte("t="+strconv.FormatInt(ts, 10)+",v1="+mac)) {
		return ErrBadSignature
	}
	return nil
}

func sign(secret string, ts int64, body []byte) string {
	t := strconv.FormatInt(ts, 10)
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(t + "."))
	m.Write(body)
	return "t=" + t + ",v1=" + hex.EncodeToString(m.Sum(nil))
}
