package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements Storage on a local SQLite database laid out like the hosted
// document store. It is used for local runs, fixtures and tests.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) ListAccounts(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		data, err := decodeBody(body)
		docs = append(docs, model.Document{ID: id, Data: data, Err: err})
	}
	return docs, rows.Err()
}

func (s *SQLite) ListCredits(ctx context.Context, ownerID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id, id, data FROM credits WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list credits for %s: %w", ownerID, err)
	}
	defer rows.Close()
	return scanCredits(rows)
}

func (s *SQLite) ScanCredits(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT owner_id, id, data FROM credits ORDER BY owner_id, id`)
	if err != nil {
		return nil, fmt.Errorf("scan credits: %w", err)
	}
	defer rows.Close()
	return scanCredits(rows)
}

// PutAccount creates or replaces a users document.
func (s *SQLite) PutAccount(ctx context.Context, id string, data map[string]any) error {
	body, err := encodeBody(data)
	if err != nil {
		return fmt.Errorf("account %s: %w", id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		id, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// PutCredit creates or replaces a credit record under ownerID.
func (s *SQLite) PutCredit(ctx context.Context, ownerID, id string, data map[string]any) error {
	body, err := encodeBody(data)
	if err != nil {
		return fmt.Errorf("credit %s/%s: %w", ownerID, id, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credits (owner_id, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner_id, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		ownerID, id, body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put credit: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanCredits(rows *sql.Rows) ([]model.Document, error) {
	var docs []model.Document
	for rows.Next() {
		var owner, id, body string
		if err := rows.Scan(&owner, &id, &body); err != nil {
			return nil, fmt.Errorf("scan credit row: %w", err)
		}
		data, err := decodeBody(body)
		docs = append(docs, model.Document{ID: id, Parent: owner, Data: data, Err: err})
	}
	return docs, rows.Err()
}

func encodeBody(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decodeBody(body string) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("decode document: %w: %w", model.ErrMalformed, err)
	}
	return data, nil
}
