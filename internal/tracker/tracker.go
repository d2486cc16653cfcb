// Package tracker keeps the durable checksum ledger that makes repeated
// migration runs skip content that was already uploaded.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/gofrs/flock"

	"drive2photos/internal/domain"
	"drive2photos/internal/logging"
)

// ErrLocked is returned when another process holds the run lock.
var ErrLocked = errors.New("another migration run holds the tracker lock")

// Store persists tracker entries.
type Store interface {
	Load(ctx context.Context) (map[string]domain.TrackerEntry, error)
	// Put persists one new or replaced entry. all is the full map after the
	// change, for stores that rewrite everything.
	Put(ctx context.Context, checksum string, entry domain.TrackerEntry, all map[string]domain.TrackerEntry) error
	Close() error
}

// Tracker answers duplicate queries from memory and writes through to its
// store after every recorded upload. It is not safe for concurrent use.
type Tracker struct {
	store          Store
	entries        map[string]domain.TrackerEntry
	skipDuplicates bool
	now            func() time.Time
}

// Open loads the store once. A missing or unreadable ledger is not fatal: the
// tracker starts empty and the problem is logged.
func Open(ctx context.Context, store Store, skipDuplicates bool, logger logging.Logger) *Tracker {
	entries, err := store.Load(ctx)
	if err != nil {
		logger.Warnf("Ignoring unreadable upload tracker, starting empty: %v", err)
		entries = nil
	}
	if entries == nil {
		entries = make(map[string]domain.TrackerEntry)
	}
	if skipDuplicates {
		logger.Infof("Duplicate detection enabled. %d photos already tracked.", len(entries))
	}
	return &Tracker{
		store:          store,
		entries:        entries,
		skipDuplicates: skipDuplicates,
		now:            time.Now,
	}
}

// IsDuplicate reports whether content was migrated before, by checksum or, for
// assets without one, by a previously recorded source identifier.
func (t *Tracker) IsDuplicate(checksum, sourceID string) bool {
	if !t.skipDuplicates {
		return false
	}
	if checksum != "" {
		if _, ok := t.entries[checksum]; ok {
			return true
		}
	}
	if sourceID == "" {
		return false
	}
	for _, entry := range t.entries {
		if entry.SourceID == sourceID {
			return true
		}
	}
	return false
}

// Record stores upload evidence under checksum and persists it immediately.
// Assets without a checksum are never recorded.
func (t *Tracker) Record(ctx context.Context, checksum, sourceID, destID, path string) error {
	if checksum == "" {
		return nil
	}
	entry := domain.TrackerEntry{
		SourceID:      sourceID,
		DestinationID: destID,
		Path:          path,
		UploadedAt:    t.now().UTC(),
	}
	t.entries[checksum] = entry
	if err := t.store.Put(ctx, checksum, entry, t.entries); err != nil {
		return fmt.Errorf("persist tracker entry %s: %w", checksum, err)
	}
	return nil
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the current ledger.
func (t *Tracker) Entries() map[string]domain.TrackerEntry {
	return maps.Clone(t.entries)
}

func (t *Tracker) Close() error {
	return t.store.Close()
}

// Lock takes an exclusive advisory lock next to the ledger for the duration
// of a run. The returned func releases it.
func Lock(ledgerPath string) (func() error, error) {
	lock := flock.New(ledgerPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire tracker lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}
