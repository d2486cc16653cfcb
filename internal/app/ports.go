package app

import (
	"context"
	"time"

	"drive2photos/internal/domain"
)

type Downloader interface {
	Download(ctx context.Context, id string) ([]byte, error)
}

// SourceStore is the read-only view of the hierarchical store photos come from.
type SourceStore interface {
	Downloader
	GetName(ctx context.Context, id string) (string, error)
	FindFolder(ctx context.Context, parentID, name string) (string, bool, error)
	ListPage(ctx context.Context, parentID, pageToken string) (domain.Page, error)
}

// PhotoService is the write path into the destination photo library.
type PhotoService interface {
	CreateAlbum(ctx context.Context, title string) (domain.Album, error)
	UploadBytes(ctx context.Context, data []byte, fileName, mimeType string) (string, error)
	CreateMediaItem(ctx context.Context, item domain.NewMediaItem) (string, error)
}

type Ledger interface {
	IsDuplicate(checksum, sourceID string) bool
	Record(ctx context.Context, checksum, sourceID, destID, path string) error
	Len() int
}

type ExifReader interface {
	CaptureTime(ctx context.Context, data []byte) (time.Time, error)
}
