package storage

import (
	"context"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

const (
	// UsersCollection holds one document per account.
	UsersCollection = "users"

	// CreditsCollection is the per-account sub-collection of credit records.
	CreditsCollection = "credits"
)

// Storage is the read-only view of the document store used by a reminder run.
type Storage interface {
	// ListAccounts returns every document in the users collection.
	ListAccounts(ctx context.Context) ([]model.Document, error)

	// ListCredits returns the credits sub-collection of one account.
	// The account document itself does not need to exist.
	ListCredits(ctx context.Context, ownerID string) ([]model.Document, error)

	// ScanCredits returns every credit record across all accounts,
	// each carrying the id of the account it is stored under.
	ScanCredits(ctx context.Context) ([]model.Document, error)

	// Close releases resources.
	Close() error
}
