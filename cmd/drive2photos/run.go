package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"drive2photos/internal/auth"
	"drive2photos/internal/config"
	"drive2photos/internal/domain"
	"drive2photos/internal/infra/drive"
	"drive2photos/internal/infra/photos"
	"drive2photos/internal/logging"
	"drive2photos/internal/presentation"
	"drive2photos/internal/store"
	"drive2photos/internal/tui"
)

func run(ctx context.Context, cfg config.Config, stdout io.Writer, useTUI bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(stdout, cfg.Verbose)
	printer := presentation.Printer{Writer: stdout, Verbose: cfg.Verbose}

	printer.PrintBanner("Google Drive to Photos Migration Tool")

	// Consent prompts print to the terminal, so clients are authorized
	// before any progress view takes over the screen.
	authorizer := auth.Authorizer{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		TokenDir:     cfg.Google.TokenDir,
		Timeout:      time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		Logger:       logger,
	}
	driveHTTP, err := authorizer.DriveClient(ctx)
	if err != nil {
		return err
	}
	sess := &session{
		cfg:    cfg,
		files:  store.New(cfg.Output.Dir),
		source: drive.NewClient(drive.DefaultBaseURL, driveHTTP),
		exif:   newExifReader(),
	}
	if !cfg.ScanOnly {
		photosHTTP, err := authorizer.PhotosClient(ctx)
		if err != nil {
			return err
		}
		sess.photos = photos.NewClient(photos.DefaultBaseURL, photosHTTP)
	}

	var out outcome
	if useTUI {
		out, err = runWithTUI(ctx, sess, cfg)
	} else {
		out, err = runPlain(ctx, sess, logger, printer)
	}
	printer.PrintOutputFiles(out.outputs)
	return err
}

func runPlain(ctx context.Context, sess *session, logger logging.Logger, printer presentation.Printer) (outcome, error) {
	uploadBanner := func() {
		printer.PrintBanner("STEP 2: Uploading to Google Photos")
	}

	sess.logger = logger
	sess.hooks = hooks{
		scanDone: func(result domain.ScanResult) {
			printer.PrintScanSummary(result)
			fmt.Fprintln(printer.Writer)
			if !sess.cfg.ScanOnly {
				uploadBanner()
			}
		},
		album: func(domain.Album) {
			fmt.Fprintln(printer.Writer)
		},
		result: printer.PrintResult,
	}

	if sess.cfg.UploadOnly {
		uploadBanner()
	} else {
		printer.PrintBanner("STEP 1: Scanning Google Drive")
	}

	out, err := sess.run(ctx)
	if out.report != nil {
		printer.PrintRunSummary(*out.report)
	}
	if err == nil {
		fmt.Fprintln(printer.Writer)
		printer.PrintBanner("Migration complete!")
	}
	return out, err
}

type sessionDone struct {
	out outcome
	err error
}

func runWithTUI(ctx context.Context, sess *session, cfg config.Config) (outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := tui.NewModel(tui.Config{
		Source:     scanSourceLabel(cfg),
		OutputDir:  cfg.Output.Dir,
		UploadOnly: cfg.UploadOnly,
		Verbose:    cfg.Verbose,
		Cancel:     cancel,
	})
	program := tea.NewProgram(model, tea.WithContext(ctx))

	// Log lines would tear the interactive view; the report files are the
	// record of the run.
	sess.logger = logging.Discard()
	sess.hooks = hooks{
		scanProgress: func(folders, photos int, path string) {
			program.Send(tui.ScanProgressMsg{Folders: folders, Photos: photos, Path: path})
		},
		scanDone: func(result domain.ScanResult) {
			program.Send(tui.ScanDoneMsg{Result: result})
		},
		album: func(album domain.Album) {
			program.Send(tui.AlbumMsg{Album: album})
		},
		asset: func(index, total int, asset domain.Asset) {
			program.Send(tui.UploadStartMsg{Index: index, Total: total, File: asset.FileName()})
		},
		result: func(index, total int, _ domain.Asset, result domain.UploadResult) {
			program.Send(tui.UploadResultMsg{Index: index, Total: total, Result: result})
		},
	}

	done := make(chan sessionDone, 1)
	go func() {
		out, err := sess.run(ctx)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
		} else {
			program.Send(tui.RunDoneMsg{Report: out.report})
		}
		done <- sessionDone{out: out, err: err}
	}()

	_, progErr := program.Run()
	cancel()
	result := <-done
	if result.err == nil && progErr != nil && ctx.Err() == nil {
		return result.out, progErr
	}
	return result.out, result.err
}

func scanSourceLabel(cfg config.Config) string {
	switch {
	case cfg.UploadOnly:
		return store.New(cfg.Output.Dir).Path(store.MetadataFile)
	case len(cfg.Scan.Paths) > 0:
		return strings.Join(cfg.Scan.Paths, ", ")
	case cfg.Scan.FolderID != "":
		return "folder " + cfg.Scan.FolderID
	default:
		return "default photo locations"
	}
}
