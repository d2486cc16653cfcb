package app

import (
	"context"
	"errors"
	"iter"
	"strings"

	"drive2photos/internal/domain"
	appErrors "drive2photos/internal/errors"
	"drive2photos/internal/logging"
)

const (
	// RootID is the source store's identifier for the top of the tree.
	RootID = "root"
	// RootAlias is the display name used for RootID in logical paths.
	RootAlias = "My Drive"
)

// DefaultPhotoLocations is scanned when no roots are given.
var DefaultPhotoLocations = []string{"My Drive/Photos"}

// ScanProgressFunc is called after each folder listing with the running totals.
type ScanProgressFunc func(foldersScanned, photosFound int, currentPath string)

type Walker struct {
	Source     SourceStore
	Logger     logging.Logger
	OnProgress ScanProgressFunc
}

type scanState struct {
	result  domain.ScanResult
	folders int
}

// ScanPaths resolves and scans each logical path. Paths that do not resolve
// are skipped with a warning; listing failures abort the whole scan.
func (w *Walker) ScanPaths(ctx context.Context, paths []string) (domain.ScanResult, error) {
	if w.Source == nil {
		return domain.ScanResult{}, errors.New("walker requires a source store")
	}
	if len(paths) == 0 {
		paths = DefaultPhotoLocations
	}

	stop := w.Logger.Measure("Scanning source store")
	defer stop()

	w.Logger.Infof("Starting Google Drive scan of %d location(s)...", len(paths))
	state := &scanState{}
	for _, folderPath := range paths {
		w.Logger.Infof("Resolving path: %s", folderPath)
		folderID, ok := w.ResolvePath(ctx, folderPath)
		if !ok {
			w.Logger.Infof("  Skipping: Path not found")
			continue
		}
		w.Logger.Verbosef("Found folder ID %s for %s", folderID, folderPath)
		if _, _, _, err := w.scanNode(ctx, folderID, folderPath, state); err != nil {
			return state.result, err
		}
	}
	return state.result, nil
}

// ScanFolder scans a folder addressed by identifier. Its display name becomes
// the path prefix.
func (w *Walker) ScanFolder(ctx context.Context, folderID string) (domain.ScanResult, error) {
	if w.Source == nil {
		return domain.ScanResult{}, errors.New("walker requires a source store")
	}
	if folderID == "" {
		folderID = RootID
	}

	stop := w.Logger.Measure("Scanning source store")
	defer stop()

	w.Logger.Infof("Starting Google Drive scan from folder ID %s...", folderID)
	state := &scanState{}
	_, _, _, err := w.scanNode(ctx, folderID, w.folderName(ctx, folderID), state)
	return state.result, err
}

// ResolvePath walks a "/"-separated display path down from the root, one
// exact folder-name lookup per segment. A leading root alias is skipped.
func (w *Walker) ResolvePath(ctx context.Context, folderPath string) (string, bool) {
	parts := strings.Split(strings.Trim(folderPath, "/"), "/")
	if len(parts) > 0 && parts[0] == RootAlias {
		parts = parts[1:]
	}

	current := RootID
	for _, name := range parts {
		if name == "" {
			continue
		}
		id, found, err := w.Source.FindFolder(ctx, current, name)
		if err != nil {
			w.Logger.Warnf("Folder lookup failed for '%s' in path '%s': %v", name, folderPath, err)
			return "", false
		}
		if !found {
			w.Logger.Warnf("Folder not found: '%s' in path '%s'", name, folderPath)
			return "", false
		}
		current = id
	}
	return current, true
}

// ListChildren lazily yields the direct children of a folder, following page
// tokens until the listing is exhausted. A page error is yielded once and ends
// the sequence.
func (w *Walker) ListChildren(ctx context.Context, folderID string) iter.Seq2[domain.Entry, error] {
	return func(yield func(domain.Entry, error) bool) {
		pageToken := ""
		for {
			page, err := w.Source.ListPage(ctx, folderID, pageToken)
			if err != nil {
				yield(domain.Entry{}, err)
				return
			}
			for _, entry := range page.Entries {
				if !yield(entry, nil) {
					return
				}
			}
			if page.NextPageToken == "" {
				return
			}
			pageToken = page.NextPageToken
		}
	}
}

// scanNode lists a folder, records its photos and recurses into subfolders.
// It returns the counts of direct files and direct subfolders, plus whether the
// folder is empty all the way down. A child that holds no files and only empty
// folders is recorded as empty; the node itself is left for its caller to judge.
func (w *Walker) scanNode(ctx context.Context, folderID, currentPath string, state *scanState) (int, int, bool, error) {
	type subfolder struct {
		id   string
		path string
	}

	w.Logger.Verbosef("Scanning: %s", currentPath)

	fileCount := 0
	var subfolders []subfolder
	for entry, err := range w.ListChildren(ctx, folderID) {
		if err != nil {
			return 0, 0, false, appErrors.Wrap(appErrors.Listing, "list folder", currentPath, err)
		}
		fullPath := currentPath + "/" + entry.Name
		switch domain.Classify(entry) {
		case domain.Folder:
			subfolders = append(subfolders, subfolder{id: entry.ID, path: fullPath})
		case domain.Photo:
			fileCount++
			state.result.Assets = append(state.result.Assets, domain.NewAsset(entry, fullPath))
		default:
			fileCount++
		}
	}

	state.folders++
	if w.OnProgress != nil {
		w.OnProgress(state.folders, len(state.result.Assets), currentPath)
	}

	empty := fileCount == 0
	for _, sub := range subfolders {
		if err := ctx.Err(); err != nil {
			return 0, 0, false, err
		}
		_, _, subEmpty, err := w.scanNode(ctx, sub.id, sub.path, state)
		if err != nil {
			return 0, 0, false, err
		}
		if subEmpty {
			state.result.EmptyFolders = append(state.result.EmptyFolders, sub.path)
		} else {
			empty = false
		}
	}

	return fileCount, len(subfolders), empty, nil
}

// folderName returns the display name of a folder, falling back to the
// identifier when the lookup fails.
func (w *Walker) folderName(ctx context.Context, folderID string) string {
	if folderID == RootID {
		return RootAlias
	}
	name, err := w.Source.GetName(ctx, folderID)
	if err != nil || name == "" {
		w.Logger.Verbosef("Name lookup for %s failed, using the identifier: %v", folderID, err)
		return folderID
	}
	return name
}
