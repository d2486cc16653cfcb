package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"drive2photos/internal/domain"
	"drive2photos/internal/infra/fs"
)

const uploadsSchema = `CREATE TABLE IF NOT EXISTS uploads (
	checksum    TEXT PRIMARY KEY,
	file_id     TEXT NOT NULL,
	photos_id   TEXT NOT NULL,
	path        TEXT NOT NULL,
	uploaded_at TEXT NOT NULL
)`

// SQLiteStore keeps one row per checksum and upserts a single row per put.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := (fs.OSFS{}).MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure tracker directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(uploadsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create uploads table: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]domain.TrackerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT checksum, file_id, photos_id, path, uploaded_at FROM uploads`)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	entries := map[string]domain.TrackerEntry{}
	for rows.Next() {
		var (
			checksum   string
			entry      domain.TrackerEntry
			uploadedAt string
		)
		if err := rows.Scan(&checksum, &entry.SourceID, &entry.DestinationID, &entry.Path, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scan upload row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
			entry.UploadedAt = parsed
		}
		entries[checksum] = entry
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Put(ctx context.Context, checksum string, entry domain.TrackerEntry, _ map[string]domain.TrackerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (checksum, file_id, photos_id, path, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(checksum) DO UPDATE SET
			file_id = excluded.file_id,
			photos_id = excluded.photos_id,
			path = excluded.path,
			uploaded_at = excluded.uploaded_at
	`, checksum, entry.SourceID, entry.DestinationID, entry.Path, entry.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert upload %s: %w", checksum, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
