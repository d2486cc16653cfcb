package tracker

import (
	"context"
	"encoding/json"
	"fmt"

	"drive2photos/internal/domain"
	"drive2photos/internal/infra/fs"
)

// JSONStore keeps the whole ledger in one JSON object keyed by checksum and
// rewrites it atomically on every put. A ledger that fails to decode is moved
// to "<path>.corrupt" before the first rewrite replaces it.
type JSONStore struct {
	path       string
	fs         fs.OSFS
	unreadable bool
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the ledger. A missing file resolves to an empty ledger.
func (s *JSONStore) Load(ctx context.Context) (map[string]domain.TrackerEntry, error) {
	exists, err := s.fs.Exists(s.path)
	if err != nil {
		return nil, fmt.Errorf("stat tracker: %w", err)
	}
	if !exists {
		return map[string]domain.TrackerEntry{}, nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read tracker: %w", err)
	}
	entries := map[string]domain.TrackerEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.unreadable = true
		return nil, fmt.Errorf("decode tracker %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *JSONStore) Put(ctx context.Context, checksum string, entry domain.TrackerEntry, all map[string]domain.TrackerEntry) error {
	if s.unreadable {
		if err := s.fs.Rename(s.path, s.path+".corrupt"); err != nil {
			return fmt.Errorf("preserve unreadable tracker: %w", err)
		}
		s.unreadable = false
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tracker: %w", err)
	}
	if err := s.fs.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write tracker: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}
