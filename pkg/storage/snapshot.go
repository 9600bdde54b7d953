package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/credit-reminder/pkg/model"
)

// Snapshot is a YAML image of the document store.
//
//	users:
//	  tg_501:
//	    linkedAccountId: g_9
//	credits:
//	  g_9:
//	    abc: {bank: Mono, amount: 5000, deadline: "2026-10-22"}
//
// Credits whose owner is missing from users are stored anyway, which is how
// ghost records are reproduced locally.
type Snapshot struct {
	Users   map[string]map[string]any            `yaml:"users"`
	Credits map[string]map[string]map[string]any `yaml:"credits"`
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return snap, nil
}

// ParseSnapshot parses YAML snapshot data from raw bytes.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &snap, nil
}

// Apply writes the snapshot into db and returns how many documents it wrote.
func (s *Snapshot) Apply(ctx context.Context, db *SQLite) (accounts, credits int, err error) {
	for _, id := range sortedKeys(s.Users) {
		if err := db.PutAccount(ctx, id, normalize(s.Users[id])); err != nil {
			return accounts, credits, err
		}
		accounts++
	}

	for _, owner := range sortedKeys(s.Credits) {
		records := s.Credits[owner]
		for _, id := range sortedKeys(records) {
			if err := db.PutCredit(ctx, owner, id, normalize(records[id])); err != nil {
				return accounts, credits, err
			}
			credits++
		}
	}

	return accounts, credits, nil
}

// normalize turns YAML timestamps into the deadline string form the store uses.
func normalize(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if ts, ok := v.(time.Time); ok {
			v = ts.Format(model.DateLayout)
		}
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
