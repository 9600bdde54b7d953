package reminder

import "github.com/ogulcanaydogan/credit-reminder/pkg/model"

// Aggregator collects alert messages per recipient, keeping one copy of each
// distinct text. It is not safe for concurrent use.
type Aggregator struct {
	batches map[string]*batch
}

type batch struct {
	seen     map[string]struct{}
	messages []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{batches: make(map[string]*batch)}
}

// Add records alert for recipient and reports whether its text was new.
func (a *Aggregator) Add(recipient model.Identity, alert model.Alert) bool {
	b, ok := a.batches[recipient.ID]
	if !ok {
		b = &batch{seen: make(map[string]struct{})}
		a.batches[recipient.ID] = b
	}
	if _, dup := b.seen[alert.Message]; dup {
		return false
	}
	b.seen[alert.Message] = struct{}{}
	b.messages = append(b.messages, alert.Message)
	return true
}

// Len returns the number of recipients holding at least one message.
func (a *Aggregator) Len() int {
	return len(a.batches)
}

// Drain returns the collected messages keyed by recipient id and resets the
// aggregator. Message order within a recipient is not part of the contract.
func (a *Aggregator) Drain() map[string][]string {
	out := make(map[string][]string, len(a.batches))
	for id, b := range a.batches {
		out[id] = b.messages
	}
	a.batches = make(map[string]*batch)
	return out
}
