// Package store reads and writes the run artifacts kept in the output
// directory: the scan result handed from the scan phase to the upload phase,
// and the per-run upload report.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"drive2photos/internal/domain"
	appErrors "drive2photos/internal/errors"
	"drive2photos/internal/infra/fs"
)

const (
	MetadataFile     = "photos_metadata.json"
	LegacyListFile   = "photos.txt"
	EmptyFoldersFile = "empty_folders.txt"
	ReportFile       = "upload_status.txt"
	TrackerJSONFile  = "uploaded_photos.json"
	TrackerDBFile    = "uploaded_photos.db"
)

// Files locates artifacts under one output directory.
type Files struct {
	Dir string
	fs  fs.OSFS
}

func New(dir string) Files {
	return Files{Dir: dir}
}

func (f Files) Path(name string) string {
	return filepath.Join(f.Dir, name)
}

// WriteScan replaces the previous scan wholesale and returns the paths written.
func (f Files) WriteScan(result domain.ScanResult) ([]string, error) {
	if err := f.fs.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, appErrors.Wrap(appErrors.Persistence, "create output directory", f.Dir, err)
	}

	assets := result.Assets
	if assets == nil {
		assets = []domain.Asset{}
	}
	metadata, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Internal, "encode scan result", "", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{LegacyListFile, formatLegacyList(result.Assets)},
		{MetadataFile, metadata},
		{EmptyFoldersFile, formatEmptyFolders(result.EmptyFolders)},
	}

	written := make([]string, 0, len(files))
	for _, file := range files {
		path := f.Path(file.name)
		if err := f.fs.WriteFileAtomic(path, file.data, 0o644); err != nil {
			return written, appErrors.Wrap(appErrors.Persistence, "write scan result", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// LoadAssets reads the last scan. The JSON file is preferred; an unreadable
// one falls back to the legacy text list. With neither present the upload
// phase cannot start.
func (f Files) LoadAssets() ([]domain.Asset, error) {
	metadataPath := f.Path(MetadataFile)
	if ok, _ := f.fs.Exists(metadataPath); ok {
		if data, err := f.fs.ReadFile(metadataPath); err == nil {
			var assets []domain.Asset
			if err := json.Unmarshal(data, &assets); err == nil {
				return assets, nil
			}
		}
	}

	legacyPath := f.Path(LegacyListFile)
	ok, err := f.fs.Exists(legacyPath)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Persistence, "stat scan result", legacyPath, err)
	}
	if !ok {
		return nil, appErrors.Wrap(appErrors.NotFound, "load scan result", legacyPath,
			fmt.Errorf("run the drive scanner first to generate this file"))
	}
	data, err := f.fs.ReadFile(legacyPath)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.Persistence, "read scan result", legacyPath, err)
	}
	return ParseLegacyList(data), nil
}

// ParseLegacyList reads id|path|mimeType[|checksum] lines, skipping comments,
// blank lines and lines with fewer than three fields.
func ParseLegacyList(data []byte) []domain.Asset {
	var assets []domain.Asset
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		asset := domain.Asset{
			ID:       parts[0],
			Path:     parts[1],
			MimeType: parts[2],
		}
		asset.Name = asset.FileName()
		if len(parts) >= 4 {
			asset.Checksum = parts[3]
		}
		assets = append(assets, asset)
	}
	return assets
}

func formatLegacyList(assets []domain.Asset) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Google Drive Photos\n")
	fmt.Fprintf(&buf, "# Total: %d photos\n", len(assets))
	buf.WriteString("# Format: file_id|path|mime_type|md5_checksum\n\n")
	for _, asset := range assets {
		fmt.Fprintf(&buf, "%s|%s|%s|%s\n", asset.ID, asset.Path, asset.MimeType, asset.Checksum)
	}
	return buf.Bytes()
}

func formatEmptyFolders(folders []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Empty Google Drive Folders\n")
	fmt.Fprintf(&buf, "# Total: %d empty folders\n\n", len(folders))
	for _, folder := range folders {
		buf.WriteString(folder)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
