package reminder

import (
	"context"
	"iter"
	"log/slog"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

// DiscoveryStats counts what one pass of Findings saw.
type DiscoveryStats struct {
	Accounts       int // recipient accounts walked
	Covered        int // recipients fully read by the linked walk
	LinkedFindings int
	GhostFindings  int
	SkippedRecords int // credit documents that could not be decoded
}

// Discoverer enumerates credit records and the recipient each belongs to.
type Discoverer struct {
	store  storage.Storage
	logger *slog.Logger
	stats  DiscoveryStats
}

// NewDiscoverer creates a discoverer over store.
func NewDiscoverer(store storage.Storage, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		store:  store,
		logger: logger,
	}
}

// Stats returns the counters of the last completed pass.
func (d *Discoverer) Stats() DiscoveryStats {
	return d.stats
}

// Findings walks recipient accounts and their linked accounts first, then scans
// every credits sub-collection for records under recipients the walk did not
// fully cover. Store failures skip the affected account or strategy and are
// logged; the sequence itself never fails.
func (d *Discoverer) Findings(ctx context.Context) iter.Seq[model.Finding] {
	return func(yield func(model.Finding) bool) {
		d.stats = DiscoveryStats{}
		covered := make(map[string]struct{})

		if !d.walkLinked(ctx, covered, yield) {
			return
		}
		d.stats.Covered = len(covered)
		d.scanGhosts(ctx, covered, yield)
	}
}

func (d *Discoverer) walkLinked(ctx context.Context, covered map[string]struct{}, yield func(model.Finding) bool) bool {
	docs, err := d.store.ListAccounts(ctx)
	if err != nil {
		d.logger.Error("linked walk skipped", "error", err)
		return true
	}

	for _, doc := range docs {
		if ctx.Err() != nil {
			return false
		}

		recipient := model.ParseIdentity(doc.ID)
		if !recipient.IsRecipient() {
			continue
		}
		d.stats.Accounts++

		acc, err := model.DecodeAccount(doc)
		if err != nil {
			d.logger.Warn("account unreadable, skipped", "account", doc.ID, "error", err)
			continue
		}

		complete := true
		for _, owner := range ResolveOwners(acc) {
			credits, err := d.store.ListCredits(ctx, owner)
			if err != nil {
				d.logger.Warn("read credits failed", "recipient", recipient.ID, "owner", owner, "error", err)
				complete = false
				continue
			}
			for _, cdoc := range credits {
				c, err := model.DecodeCredit(cdoc)
				if err != nil {
					d.logger.Debug("credit skipped", "owner", owner, "credit", cdoc.ID, "error", err)
					d.stats.SkippedRecords++
					continue
				}
				d.stats.LinkedFindings++
				if !yield(model.Finding{Recipient: recipient, Credit: c, Strategy: model.StrategyLinked}) {
					return false
				}
			}
		}

		if complete {
			covered[recipient.ID] = struct{}{}
		}
	}
	return true
}

func (d *Discoverer) scanGhosts(ctx context.Context, covered map[string]struct{}, yield func(model.Finding) bool) {
	if ctx.Err() != nil {
		return
	}
	docs, err := d.store.ScanCredits(ctx)
	if err != nil {
		d.logger.Error("credit scan skipped", "error", err)
		return
	}

	findings, rejected := FilterGhosts(covered, docs)
	for _, err := range rejected {
		d.logger.Debug("credit skipped", "error", err)
	}
	d.stats.SkippedRecords += len(rejected)

	for _, f := range findings {
		d.stats.GhostFindings++
		if !yield(f) {
			return
		}
	}
}

// FilterGhosts keeps scanned credit documents stored directly under a recipient
// that is not in covered, attributing each to that recipient. Documents under
// non-recipient accounts are dropped; undecodable ones are returned as errors.
func FilterGhosts(covered map[string]struct{}, docs []model.Document) ([]model.Finding, []error) {
	var findings []model.Finding
	var rejected []error

	for _, doc := range docs {
		owner := model.ParseIdentity(doc.Parent)
		if !owner.IsRecipient() {
			continue
		}
		if _, ok := covered[owner.ID]; ok {
			continue
		}
		c, err := model.DecodeCredit(doc)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		findings = append(findings, model.Finding{Recipient: owner, Credit: c, Strategy: model.StrategyScan})
	}
	return findings, rejected
}
