// Package jsonfile persists the restock subscription list as a single JSON
// document on local disk, read and written as a whole.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey is the fixed key the subscription list lives under. It doubles
// as the file name on disk.
const StorageKey = "buildkart.restock_subscriptions"

type document struct {
	Key        string   `json:"key"`
	ProductIDs []string `json:"productIds"`
}

// SubscriptionStore reads and writes the subscription list at
// <dir>/<StorageKey>.json. Writes go through a temp file and rename so a
// crashed write never leaves a truncated list behind; concurrent writers are
// last-writer-wins.
type SubscriptionStore struct {
	mu   sync.Mutex
	path string
}

// NewSubscriptionStore constructs a store rooted at the provided directory.
func NewSubscriptionStore(dir string) *SubscriptionStore {
	return &SubscriptionStore{path: filepath.Join(dir, StorageKey+".json")}
}

// Path returns the backing file location.
func (s *SubscriptionStore) Path() string { return s.path }

// Load returns the persisted product identifier list. A missing file is an
// empty list, not an error.
func (s *SubscriptionStore) Load(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subscription store: read %s: %w", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("subscription store: decode %s: %w", s.path, err)
	}
	return doc.ProductIDs, nil
}

// Save replaces the persisted list with the provided identifiers.
func (s *SubscriptionStore) Save(_ context.Context, productIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("subscription store: mkdir %s: %w", filepath.Dir(s.path), err)
	}

	doc := document{Key: StorageKey, ProductIDs: productIDs}
	if doc.ProductIDs == nil {
		doc.ProductIDs = []string{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("subscription store: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("subscription store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("subscription store: rename %s: %w", s.path, err)
	}
	return nil
}
