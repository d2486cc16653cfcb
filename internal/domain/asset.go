package domain

import (
	"path"
	"time"
)

// Asset is a photo discovered in the source store. It is recorded once per
// scan and never mutated afterwards; a later scan replaces it wholesale.
type Asset struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Path         string           `json:"path"`
	MimeType     string           `json:"mimeType"`
	Size         *int64           `json:"size,omitempty,string"`
	CreatedTime  *time.Time       `json:"createdTime,omitempty"`
	ModifiedTime *time.Time       `json:"modifiedTime,omitempty"`
	Checksum     string           `json:"md5Checksum,omitempty"`
	Metadata     *CaptureMetadata `json:"metadata,omitempty"`
}

// FileName is the last segment of the asset's logical path.
func (a Asset) FileName() string {
	if a.Path == "" {
		return a.Name
	}
	return path.Base(a.Path)
}

// CaptureMetadata is the optional camera metadata the source store extracts
// from image headers.
type CaptureMetadata struct {
	Width        *int         `json:"width,omitempty"`
	Height       *int         `json:"height,omitempty"`
	Rotation     *int         `json:"rotation,omitempty"`
	CameraMake   string       `json:"cameraMake,omitempty"`
	CameraModel  string       `json:"cameraModel,omitempty"`
	ExposureTime *float64     `json:"exposureTime,omitempty"`
	Aperture     *float64     `json:"aperture,omitempty"`
	ISOSpeed     *int         `json:"isoSpeed,omitempty"`
	FocalLength  *float64     `json:"focalLength,omitempty"`
	Time         string       `json:"time,omitempty"`
	Location     *GeoLocation `json:"location,omitempty"`
}

type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Entry is one child returned by a source store listing.
type Entry struct {
	ID            string
	Name          string
	TypeMarker    string
	MimeType      string
	Size          *int64
	CreatedTime   *time.Time
	ModifiedTime  *time.Time
	Checksum      string
	ImageMetadata *CaptureMetadata
}

// Page is a single listing response. An empty NextPageToken ends the listing.
type Page struct {
	Entries       []Entry
	NextPageToken string
}

// NewAsset builds the asset record for a photo entry found at fullPath.
func NewAsset(entry Entry, fullPath string) Asset {
	return Asset{
		ID:           entry.ID,
		Name:         entry.Name,
		Path:         fullPath,
		MimeType:     entry.MimeType,
		Size:         entry.Size,
		CreatedTime:  entry.CreatedTime,
		ModifiedTime: entry.ModifiedTime,
		Checksum:     entry.Checksum,
		Metadata:     entry.ImageMetadata,
	}
}

// ScanResult accumulates the output of a walk: photos in discovery order and
// the paths of folders found to be empty.
type ScanResult struct {
	Assets       []Asset
	EmptyFolders []string
}

// TotalSize sums the known sizes of all assets.
func (r ScanResult) TotalSize() uint64 {
	var total uint64
	for _, asset := range r.Assets {
		if asset.Size != nil && *asset.Size > 0 {
			total += uint64(*asset.Size)
		}
	}
	return total
}
