package notify

import (
	"context"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// DeliveryResult describes how the gateway answered one delivery.
type DeliveryResult struct {
	ChatID      string `json:"chat_id"`
	StatusCode  int    `json:"status_code"`
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Reporter publishes a finished run's summary to an operator channel.
type Reporter interface {
	// Name returns the reporter identifier.
	Name() string

	// Report delivers the summary. Implementations must be safe for concurrent use.
	Report(ctx context.Context, report *model.RunReport) error
}
