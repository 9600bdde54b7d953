package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/notify"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

// Options tunes a reminder run.
type Options struct {
	// Delay is the pause enforced between consecutive deliveries.
	Delay time.Duration
	// Header opens every combined message; DefaultHeader when empty.
	Header string
	// DryRun evaluates and aggregates but delivers nothing.
	DryRun bool
}

// Engine wires discovery, evaluation, aggregation and dispatch for one run.
type Engine struct {
	store     storage.Storage
	gateway   Gateway
	reporters []notify.Reporter
	opts      Options
	logger    *slog.Logger
}

// NewEngine creates an engine. gateway may be nil when opts.DryRun is set.
func NewEngine(store storage.Storage, gateway Gateway, reporters []notify.Reporter, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		gateway:   gateway,
		reporters: reporters,
		opts:      opts,
		logger:    logger,
	}
}

// RunResult is what a run produced. Batches holds the per-recipient messages
// that were (or, in a dry run, would have been) delivered.
type RunResult struct {
	Report  model.RunReport
	Batches map[string][]string
}

// Evaluation pairs a finding with the alert it produced, if any.
type Evaluation struct {
	Finding model.Finding
	Alert   model.Alert
	Alerted bool
}

// Run performs one complete reminder pass for the given day.
func (e *Engine) Run(ctx context.Context, today time.Time) (*RunResult, error) {
	report := model.RunReport{
		RunID:     uuid.New().String(),
		Day:       today.Format(model.DateLayout),
		DryRun:    e.opts.DryRun,
		StartedAt: time.Now().UTC(),
	}
	logger := e.logger.With("run_id", report.RunID)
	logger.Info("reminder run started", "day", report.Day, "dry_run", report.DryRun)

	discoverer := NewDiscoverer(e.store, logger)
	agg := NewAggregator()
	for f := range discoverer.Findings(ctx) {
		report.Findings++
		alert, ok := Evaluate(f.Credit, today)
		if !ok {
			continue
		}
		if agg.Add(f.Recipient, alert) {
			report.Alerts++
		}
		logger.Debug("alert",
			"recipient", f.Recipient.ID,
			"credit", f.Credit.ID,
			"owner", f.Credit.OwnerID,
			"strategy", f.Strategy,
			"tier", alert.Tier,
		)
	}

	stats := discoverer.Stats()
	report.Accounts = stats.Accounts
	report.SkippedRecords = stats.SkippedRecords
	logger.Info("discovery finished",
		"accounts", stats.Accounts,
		"covered", stats.Covered,
		"linked_findings", stats.LinkedFindings,
		"ghost_findings", stats.GhostFindings,
		"skipped_records", stats.SkippedRecords,
	)

	batches := agg.Drain()
	report.Recipients = len(batches)

	if e.opts.DryRun || e.gateway == nil {
		logger.Info("dry run, nothing delivered", "recipients", report.Recipients)
	} else {
		dispatcher := NewDispatcher(e.gateway, e.opts.Delay, e.opts.Header, logger)
		summary := dispatcher.Dispatch(ctx, batches)
		report.Delivered = summary.Delivered
		report.Failed = summary.Failed
	}

	report.FinishedAt = time.Now().UTC()
	logger.Info("reminder run finished",
		"recipients", report.Recipients,
		"alerts", report.Alerts,
		"delivered", report.Delivered,
		"failed", report.Failed,
		"took", report.FinishedAt.Sub(report.StartedAt),
	)

	e.publish(ctx, logger, &report)

	return &RunResult{Report: report, Batches: batches}, ctx.Err()
}

// Scan evaluates every discovered credit without aggregating or delivering.
func (e *Engine) Scan(ctx context.Context, today time.Time) ([]Evaluation, error) {
	discoverer := NewDiscoverer(e.store, e.logger)

	var out []Evaluation
	for f := range discoverer.Findings(ctx) {
		alert, ok := Evaluate(f.Credit, today)
		out = append(out, Evaluation{Finding: f, Alert: alert, Alerted: ok})
	}
	return out, ctx.Err()
}

func (e *Engine) publish(ctx context.Context, logger *slog.Logger, report *model.RunReport) {
	for _, r := range e.reporters {
		if err := r.Report(ctx, report); err != nil {
			logger.Error("run report failed", "reporter", r.Name(), "error", err)
		}
	}
}
