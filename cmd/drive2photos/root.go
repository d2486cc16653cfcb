package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"drive2photos/internal/config"
)

type options struct {
	configPath       string
	paths            string
	folderID         string
	album            string
	outputDir        string
	noSkipDuplicates bool
	scanOnly         bool
	uploadOnly       bool
	verbose          bool
	noTUI            bool
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "drive2photos",
		Short:         "Migrate photos from Google Drive to Google Photos",
		Long:          "Scans Google Drive folders for photos and empty folders, then uploads every photo found into a new Google Photos album, skipping content uploaded by earlier runs.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			useTUI := !cfg.NoTUI && stdoutIsTerminal()
			return run(cmd.Context(), cfg, cmd.OutOrStdout(), useTUI)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default ~/.config/drive2photos/config.toml)")
	flags.BoolVar(&opts.scanOnly, "scan-only", false, "Only scan Google Drive (skip upload)")
	flags.BoolVar(&opts.uploadOnly, "upload-only", false, "Only upload to Photos (use the existing scan result)")
	flags.StringVar(&opts.album, "album", "", `Name of the Google Photos album to create (default "Drive Import YYYY-MM-DD HH:MM")`)
	flags.StringVar(&opts.paths, "paths", "", `Comma-separated folder paths to scan (e.g. "My Drive/Photos,My Drive/Pictures")`)
	flags.StringVar(&opts.folderID, "folder-id", "", "Scan a Drive folder by ID instead of by path")
	flags.BoolVar(&opts.noSkipDuplicates, "no-skip-duplicates", false, "Disable duplicate detection (upload all photos even if already uploaded)")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Directory for scan results, upload status and the upload tracker")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVar(&opts.noTUI, "no-tui", false, "Print plain progress lines even on a terminal")

	return cmd
}

// loadConfig merges the config file, the environment and explicitly set
// flags, in increasing precedence.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg, _, _, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(&cfg, cmd, opts)

	if err := cfg.Normalize(); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, cmd *cobra.Command, opts options) {
	flags := cmd.Flags()
	if flags.Changed("paths") {
		cfg.Scan.Paths = config.ParsePaths(opts.paths)
	}
	if flags.Changed("folder-id") {
		cfg.Scan.FolderID = opts.folderID
	}
	if flags.Changed("album") {
		cfg.Upload.Album = opts.album
	}
	if flags.Changed("output") {
		cfg.Output.Dir = opts.outputDir
	}
	if opts.noSkipDuplicates {
		cfg.Upload.SkipDuplicates = false
	}
	if opts.verbose {
		cfg.Verbose = true
	}
	cfg.ScanOnly = opts.scanOnly
	cfg.UploadOnly = opts.uploadOnly
	cfg.NoTUI = opts.noTUI
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
