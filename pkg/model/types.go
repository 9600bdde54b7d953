package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RecipientPrefix marks store identities that map to a Telegram chat.
const RecipientPrefix = "tg_"

// DefaultBank is used when a credit record carries no bank name.
const DefaultBank = "Bank"

// DateLayout is the on-disk form of a credit deadline.
const DateLayout = "2006-01-02"

// ErrMalformed marks a store document whose shape cannot be decoded.
var ErrMalformed = errors.New("malformed document")

// IdentityKind distinguishes notification targets from plain accounts.
type IdentityKind int

const (
	KindOther IdentityKind = iota
	KindRecipient
)

// Identity is a store account id tagged with its kind.
type Identity struct {
	ID     string       `json:"id"`
	Kind   IdentityKind `json:"kind"`
	ChatID string       `json:"chat_id,omitempty"`
}

// ParseIdentity classifies a raw store id.
func ParseIdentity(id string) Identity {
	if chatID, ok := strings.CutPrefix(id, RecipientPrefix); ok && chatID != "" {
		return Identity{ID: id, Kind: KindRecipient, ChatID: chatID}
	}
	return Identity{ID: id, Kind: KindOther}
}

// RecipientIdentity builds the store identity for a chat id.
func RecipientIdentity(chatID string) Identity {
	return Identity{ID: RecipientPrefix + chatID, Kind: KindRecipient, ChatID: chatID}
}

// IsRecipient reports whether the identity is notified directly.
func (i Identity) IsRecipient() bool { return i.Kind == KindRecipient }

func (i Identity) String() string { return i.ID }

// Document is a raw store document together with the id of its parent document.
// Parent is empty for top-level documents. Err is set when the store listed the
// document but could not read its body.
type Document struct {
	ID     string         `json:"id"`
	Parent string         `json:"parent,omitempty"`
	Data   map[string]any `json:"data"`
	Err    error          `json:"-"`
}

// Account is a decoded users/{id} document.
type Account struct {
	ID              Identity `json:"id"`
	LinkedAccountID string   `json:"linked_account_id,omitempty"`
}

// DecodeAccount reads an account document.
func DecodeAccount(doc Document) (Account, error) {
	if doc.Err != nil {
		return Account{}, fmt.Errorf("account %s: %w", doc.ID, doc.Err)
	}
	acc := Account{ID: ParseIdentity(doc.ID)}
	raw, ok := doc.Data["linkedAccountId"]
	if !ok || raw == nil {
		return acc, nil
	}
	linked, ok := raw.(string)
	if !ok {
		return Account{}, fmt.Errorf("account %s: linkedAccountId is %T: %w", doc.ID, raw, ErrMalformed)
	}
	acc.LinkedAccountID = strings.TrimSpace(linked)
	return acc, nil
}

// Credit is a decoded credits/{id} document.
type Credit struct {
	ID       string  `json:"id"`
	OwnerID  string  `json:"owner_id"`
	Bank     string  `json:"bank"`
	Amount   float64 `json:"amount"`
	Deadline string  `json:"deadline,omitempty"`
}

// DecodeCredit reads a credit document, applying field defaults.
func DecodeCredit(doc Document) (Credit, error) {
	if doc.Err != nil {
		return Credit{}, fmt.Errorf("credit %s/%s: %w", doc.Parent, doc.ID, doc.Err)
	}
	c := Credit{ID: doc.ID, OwnerID: doc.Parent, Bank: DefaultBank}

	if raw, ok := doc.Data["bank"]; ok && raw != nil {
		bank, ok := raw.(string)
		if !ok {
			return Credit{}, fmt.Errorf("credit %s/%s: bank is %T: %w", doc.Parent, doc.ID, raw, ErrMalformed)
		}
		c.Bank = bank
	}

	if raw, ok := doc.Data["amount"]; ok && raw != nil {
		amount, err := toAmount(raw)
		if err != nil {
			return Credit{}, fmt.Errorf("credit %s/%s: %w", doc.Parent, doc.ID, err)
		}
		c.Amount = amount
	}

	switch v := doc.Data["deadline"].(type) {
	case string:
		c.Deadline = strings.TrimSpace(v)
	case time.Time:
		c.Deadline = v.Format(DateLayout)
	}

	return c, nil
}

func toAmount(raw any) (float64, error) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case int32:
		v = float64(n)
	case string:
		return ParseAmount(n)
	default:
		return 0, fmt.Errorf("amount is %T: %w", raw, ErrMalformed)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("amount %v: %w", v, ErrMalformed)
	}
	return v, nil
}

// ParseAmount reads a finite numeric string, tolerating space thousands separators.
func ParseAmount(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("amount %q: %w", s, ErrMalformed)
	}
	return v, nil
}

// Tier is the urgency bucket of an alert.
type Tier string

const (
	TierOverdue     Tier = "overdue"
	TierDueToday    Tier = "due_today"
	TierDueTomorrow Tier = "due_tomorrow"
	TierDueSoon     Tier = "due_soon"
	TierUpcoming    Tier = "upcoming"
)

// Alert is a rendered reminder for one credit.
type Alert struct {
	Tier     Tier   `json:"tier"`
	CreditID string `json:"credit_id"`
	DaysLeft int    `json:"days_left"`
	Message  string `json:"message"`
}

// Strategy names the discovery path that produced a finding.
type Strategy string

const (
	StrategyLinked Strategy = "linked"
	StrategyScan   Strategy = "scan"
)

// Finding attributes one credit record to the recipient who should hear about it.
type Finding struct {
	Recipient Identity `json:"recipient"`
	Credit    Credit   `json:"credit"`
	Strategy  Strategy `json:"strategy"`
}

// RunReport summarises one reminder run.
type RunReport struct {
	RunID          string    `json:"run_id"`
	Day            string    `json:"day"`
	DryRun         bool      `json:"dry_run"`
	Accounts       int       `json:"accounts"`
	Findings       int       `json:"findings"`
	SkippedRecords int       `json:"skipped_records"`
	Alerts         int       `json:"alerts"`
	Recipients     int       `json:"recipients"`
	Delivered      int       `json:"delivered"`
	Failed         int       `json:"failed"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Civil truncates t to its calendar date in t's location, re-expressed at UTC midnight.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
