package reminder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
	"github.com/ogulcanaydogan/credit-reminder/pkg/notify"
	"github.com/ogulcanaydogan/credit-reminder/pkg/storage"
)

var today = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func day(offset int) string {
	return today.AddDate(0, 0, offset).Format(model.DateLayout)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSeededStore(t *testing.T, snapshot string) *storage.SQLite {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	snap, err := storage.ParseSnapshot([]byte(snapshot))
	require.NoError(t, err)
	_, _, err = snap.Apply(context.Background(), db)
	require.NoError(t, err)
	return db
}

var errStore = errors.New("store unavailable")

// fakeStore wraps a real store and fails selected operations.
type fakeStore struct {
	storage.Storage
	failAccounts bool
	failScan     bool
	failOwners   map[string]bool
	listed       []string
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]model.Document, error) {
	if f.failAccounts {
		return nil, errStore
	}
	return f.Storage.ListAccounts(ctx)
}

func (f *fakeStore) ListCredits(ctx context.Context, owner string) ([]model.Document, error) {
	f.listed = append(f.listed, owner)
	if f.failOwners[owner] {
		return nil, errStore
	}
	return f.Storage.ListCredits(ctx, owner)
}

func (f *fakeStore) ScanCredits(ctx context.Context) ([]model.Document, error) {
	if f.failScan {
		return nil, errStore
	}
	return f.Storage.ScanCredits(ctx)
}

type delivery struct {
	chatID string
	text   string
	at     time.Time
}

// fakeGateway records deliveries and answers from a per-chat script.
type fakeGateway struct {
	mu         sync.Mutex
	deliveries []delivery
	rejected   map[string]int
	broken     map[string]bool
}

func (g *fakeGateway) Deliver(_ context.Context, chatID, text string) (notify.DeliveryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deliveries = append(g.deliveries, delivery{chatID: chatID, text: text, at: time.Now()})

	if g.broken[chatID] {
		return notify.DeliveryResult{ChatID: chatID}, errors.New("connection reset")
	}
	if code, ok := g.rejected[chatID]; ok {
		return notify.DeliveryResult{ChatID: chatID, StatusCode: code, Description: "Forbidden: bot was blocked by the user"}, nil
	}
	return notify.DeliveryResult{ChatID: chatID, StatusCode: 200, OK: true}, nil
}
