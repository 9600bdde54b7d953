package reminder

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/notify"
)

// DefaultHeader opens every combined reminder message.
const DefaultHeader = "🔔 <b>Credit reminders:</b>"

// Gateway delivers one message to one chat.
type Gateway interface {
	Deliver(ctx context.Context, chatID, text string) (notify.DeliveryResult, error)
}

// DispatchSummary counts the outcome of one dispatch pass.
type DispatchSummary struct {
	Delivered int
	Failed    int
	Skipped   int
}

// Dispatcher sends one combined message per recipient, paced by a single
// limiter shared by every delivery.
type Dispatcher struct {
	gateway Gateway
	limiter *rate.Limiter
	header  string
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher that waits delay between deliveries.
func NewDispatcher(gateway Gateway, delay time.Duration, header string, logger *slog.Logger) *Dispatcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	if header == "" {
		header = DefaultHeader
	}
	return &Dispatcher{
		gateway: gateway,
		limiter: rate.NewLimiter(limit, 1),
		header:  header,
		logger:  logger,
	}
}

// Compose joins the header and the alert bodies with blank lines.
func Compose(header string, messages []string) string {
	return header + "\n\n" + strings.Join(messages, "\n\n")
}

// Dispatch delivers every non-empty batch. Failures are logged per recipient
// and never stop the pass; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, batches map[string][]string) DispatchSummary {
	var summary DispatchSummary

	ids := make([]string, 0, len(batches))
	for id := range batches {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, id := range ids {
		messages := batches[id]
		if len(messages) == 0 {
			continue
		}

		recipient := model.ParseIdentity(id)
		if !recipient.IsRecipient() {
			d.logger.Warn("not a chat recipient, skipped", "recipient", id)
			summary.Skipped++
			continue
		}

		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.Error("dispatch interrupted", "remaining", len(ids)-i, "error", err)
			return summary
		}

		res, err := d.gateway.Deliver(ctx, recipient.ChatID, Compose(d.header, messages))
		switch {
		case err != nil:
			d.logger.Error("delivery failed", "chat_id", recipient.ChatID, "error", err)
			summary.Failed++
		case !res.OK:
			d.logger.Warn("delivery rejected",
				"chat_id", recipient.ChatID,
				"status", res.StatusCode,
				"description", res.Description,
			)
			summary.Failed++
		default:
			d.logger.Info("reminder sent", "chat_id", recipient.ChatID, "alerts", len(messages))
			summary.Delivered++
		}
	}

	return summary
}
