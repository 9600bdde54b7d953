package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// SlackReporter posts run summaries to a Slack incoming webhook.
type SlackReporter struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackReporter creates a Slack webhook reporter.
func NewSlackReporter(webhookURL, channel string) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackReporter) Name() string { return "slack" }

func (s *SlackReporter) Report(ctx context.Context, report *model.RunReport) error {
	color := "#36a64f" // green
	switch {
	case report.Failed > 0 && report.Delivered == 0:
		color = "#cc0000" // dark red
	case report.Failed > 0:
		color = "#ff9900" // orange
	}

	title := "Credit reminders: run finished"
	if report.DryRun {
		title = "Credit reminders: dry run finished"
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: color,
				Title: title,
				Fields: []slackField{
					{Title: "Day", Value: report.Day, Short: true},
					{Title: "Run", Value: report.RunID, Short: true},
					{Title: "Findings", Value: strconv.Itoa(report.Findings), Short: true},
					{Title: "Alerts", Value: strconv.Itoa(report.Alerts), Short: true},
					{Title: "Delivered", Value: fmt.Sprintf("%d / %d", report.Delivered, report.Recipients), Short: true},
					{Title: "Failed", Value: strconv.Itoa(report.Failed), Short: true},
				},
				Footer: "credit-reminder",
				Ts:     report.FinishedAt.Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
