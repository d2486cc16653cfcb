package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drive2photos/internal/app"
	"drive2photos/internal/config"
	"drive2photos/internal/domain"
	appErrors "drive2photos/internal/errors"
	"drive2photos/internal/infra/exif"
	"drive2photos/internal/infra/fs"
	"drive2photos/internal/logging"
	"drive2photos/internal/store"
	"drive2photos/internal/tracker"
)

// hooks observe a session's progress. Nil hooks are skipped.
type hooks struct {
	scanProgress app.ScanProgressFunc
	scanDone     func(domain.ScanResult)
	album        func(domain.Album)
	asset        func(index, total int, asset domain.Asset)
	result       func(index, total int, asset domain.Asset, result domain.UploadResult)
}

type outcome struct {
	scan    *domain.ScanResult
	report  *domain.RunReport
	outputs []string
}

// session runs the scan and upload phases selected by the configuration.
type session struct {
	cfg    config.Config
	logger logging.Logger
	files  store.Files
	source app.SourceStore
	photos app.PhotoService
	exif   app.ExifReader
	hooks  hooks
}

func (s *session) run(ctx context.Context) (outcome, error) {
	var out outcome

	var assets []domain.Asset
	if !s.cfg.UploadOnly {
		result, err := s.scan(ctx)
		if err != nil {
			return out, err
		}
		out.scan = &result
		written, err := s.files.WriteScan(result)
		out.outputs = append(out.outputs, written...)
		if err != nil {
			return out, err
		}
		if s.hooks.scanDone != nil {
			s.hooks.scanDone(result)
		}
		assets = result.Assets
	}
	if s.cfg.ScanOnly {
		return out, nil
	}

	if s.cfg.UploadOnly {
		loaded, err := s.files.LoadAssets()
		if err != nil {
			return out, err
		}
		assets = loaded
	}

	report, written, err := s.upload(ctx, assets)
	out.report = report
	out.outputs = append(out.outputs, written...)
	return out, err
}

// scan picks the scan source: explicit paths, then a raw folder id, then the
// default photo locations.
func (s *session) scan(ctx context.Context) (domain.ScanResult, error) {
	walker := app.Walker{
		Source:     s.source,
		Logger:     s.logger,
		OnProgress: s.hooks.scanProgress,
	}
	switch {
	case len(s.cfg.Scan.Paths) > 0:
		s.logger.Infof("Scanning folder paths: %s", strings.Join(s.cfg.Scan.Paths, ", "))
		return walker.ScanPaths(ctx, s.cfg.Scan.Paths)
	case s.cfg.Scan.FolderID != "":
		s.logger.Infof("Starting from folder ID: %s", s.cfg.Scan.FolderID)
		return walker.ScanFolder(ctx, s.cfg.Scan.FolderID)
	default:
		s.logger.Infof("Scanning default photo locations: %s", strings.Join(app.DefaultPhotoLocations, ", "))
		return walker.ScanPaths(ctx, nil)
	}
}

func (s *session) upload(ctx context.Context, assets []domain.Asset) (*domain.RunReport, []string, error) {
	if err := (fs.OSFS{}).MkdirAll(s.files.Dir, 0o755); err != nil {
		return nil, nil, appErrors.Wrap(appErrors.Persistence, "create output directory", s.files.Dir, err)
	}

	ledgerPath, ledgerStore, err := s.openLedger()
	if err != nil {
		return nil, nil, err
	}
	unlock, err := tracker.Lock(ledgerPath)
	if err != nil {
		_ = ledgerStore.Close()
		return nil, nil, appErrors.Wrap(appErrors.Persistence, "lock upload tracker", ledgerPath+".lock", err)
	}
	defer unlock()

	ledger := tracker.Open(ctx, ledgerStore, s.cfg.Upload.SkipDuplicates, s.logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			s.logger.Warnf("Could not close upload tracker: %v", err)
		}
	}()

	pipeline := app.Pipeline{
		Source:   s.source,
		Photos:   s.photos,
		Tracker:  ledger,
		Exif:     s.exif,
		Logger:   s.logger,
		OnAlbum:  s.hooks.album,
		OnAsset:  s.hooks.asset,
		OnResult: s.hooks.result,
	}
	report, runErr := pipeline.Run(ctx, assets, s.cfg.Upload.Album)
	if report.Album.ID == "" && len(report.Results) == 0 {
		return nil, nil, runErr
	}

	written := []string{ledgerPath}
	path, err := s.files.WriteReport(report)
	if err != nil {
		return &report, written, errors.Join(runErr, err)
	}
	written = append([]string{path}, written...)
	return &report, written, runErr
}

func (s *session) openLedger() (string, tracker.Store, error) {
	switch s.cfg.Tracker.Backend {
	case config.TrackerSQLite:
		path := s.files.Path(store.TrackerDBFile)
		db, err := tracker.OpenSQLiteStore(path)
		if err != nil {
			return "", nil, appErrors.Wrap(appErrors.Persistence, "open upload tracker", path, err)
		}
		return path, db, nil
	case config.TrackerJSON, "":
		path := s.files.Path(store.TrackerJSONFile)
		return path, tracker.NewJSONStore(path), nil
	default:
		return "", nil, appErrors.Wrap(appErrors.InvalidConfig, "open upload tracker", "",
			fmt.Errorf("unknown tracker backend %q", s.cfg.Tracker.Backend))
	}
}

func newExifReader() app.ExifReader {
	return exif.Reader{}
}
