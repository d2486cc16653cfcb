package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusSuccess          Status = "SUCCESS"
	StatusSkippedDuplicate Status = "SKIPPED_DUPLICATE"
	StatusFailed           Status = "FAILED"
	StatusError            Status = "ERROR"
)

// Succeeded reports whether the status counts as a successful outcome.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusSkippedDuplicate
}

// UploadResult is the outcome for a single asset in a run.
type UploadResult struct {
	Path          string
	SourceID      string
	Timestamp     time.Time
	Success       bool
	Status        Status
	DestinationID string
	Error         string
	Checksum      string
}

// NewUploadResult stamps a result for asset with the given status. Success is
// derived from the status so the two can never disagree.
func NewUploadResult(asset Asset, status Status, at time.Time) UploadResult {
	return UploadResult{
		Path:      asset.Path,
		SourceID:  asset.ID,
		Timestamp: at,
		Success:   status.Succeeded(),
		Status:    status,
		Checksum:  asset.Checksum,
	}
}

type Album struct {
	ID    string
	Title string
}

// NewMediaItem is a registration request for previously uploaded bytes.
type NewMediaItem struct {
	UploadToken string
	FileName    string
	Description string
	AlbumID     string
}

// RunReport is the ordered record of one migration run.
type RunReport struct {
	RunID       string
	GeneratedAt time.Time
	Album       Album
	Results     []UploadResult
}

type RunCounts struct {
	Uploaded int
	Skipped  int
	Failed   int
}

func (r RunReport) Counts() RunCounts {
	var counts RunCounts
	for _, result := range r.Results {
		switch result.Status {
		case StatusSuccess:
			counts.Uploaded++
		case StatusSkippedDuplicate:
			counts.Skipped++
		case StatusFailed, StatusError:
			counts.Failed++
		}
	}
	return counts
}

// TrackerEntry is the evidence that content with a given checksum was already
// migrated.
type TrackerEntry struct {
	SourceID      string    `json:"file_id"`
	DestinationID string    `json:"photos_id"`
	Path          string    `json:"path"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Ledgers written by earlier releases carry naive local timestamps with
// microseconds and no zone offset.
var trackerTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (e *TrackerEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		SourceID      string `json:"file_id"`
		DestinationID string `json:"photos_id"`
		Path          string `json:"path"`
		UploadedAt    string `json:"uploaded_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = TrackerEntry{
		SourceID:      raw.SourceID,
		DestinationID: raw.DestinationID,
		Path:          raw.Path,
	}
	if raw.UploadedAt == "" {
		return nil
	}
	for _, layout := range trackerTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, raw.UploadedAt, time.Local); err == nil {
			e.UploadedAt = parsed
			return nil
		}
	}
	return fmt.Errorf("parse uploaded_at %q: unsupported timestamp layout", raw.UploadedAt)
}

// ServiceError is a non-success answer from a remote API. Message carries the
// server-provided text verbatim.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s failed: %d - %s", e.Op, e.StatusCode, e.Message)
}
