package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	appErrors "drive2photos/internal/errors"
)

const (
	TrackerJSON   = "json"
	TrackerSQLite = "sqlite"

	defaultConfigPath = "~/.config/drive2photos/config.toml"
)

type Google struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	TokenDir     string `toml:"token_dir"`
}

type Scan struct {
	Paths    []string `toml:"paths"`
	FolderID string   `toml:"folder_id"`
}

type Upload struct {
	Album          string `toml:"album"`
	SkipDuplicates bool   `toml:"skip_duplicates"`
}

type Tracker struct {
	Backend string `toml:"backend"`
}

type HTTP struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type Output struct {
	Dir string `toml:"dir"`
}

// Config is the merged run configuration. File values are overridden by the
// environment, and command line flags are applied on top by the caller.
type Config struct {
	Google  Google  `toml:"google"`
	Scan    Scan    `toml:"scan"`
	Upload  Upload  `toml:"upload"`
	Tracker Tracker `toml:"tracker"`
	HTTP    HTTP    `toml:"http"`
	Output  Output  `toml:"output"`

	ScanOnly   bool `toml:"-"`
	UploadOnly bool `toml:"-"`
	Verbose    bool `toml:"-"`
	NoTUI      bool `toml:"-"`
}

func Default() Config {
	return Config{
		Google:  Google{TokenDir: "~/.config/drive2photos"},
		Upload:  Upload{SkipDuplicates: true},
		Tracker: Tracker{Backend: TrackerJSON},
		HTTP:    HTTP{TimeoutSeconds: 300},
		Output:  Output{Dir: "output"},
	}
}

// Load reads the TOML file at path, or the default location when path is
// empty, then applies environment overrides. A missing file is not an error.
// It returns the resolved file path and whether the file existed.
func Load(path string) (Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, "", false, appErrors.Wrap(appErrors.InvalidConfig, "resolve config", path, err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return Config{}, "", false, appErrors.Wrap(appErrors.InvalidConfig, "open config", resolvedPath, err)
		}
		defer file.Close()

		if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, "", false, appErrors.Wrap(appErrors.InvalidConfig, "parse config", resolvedPath, err)
		}
	}

	cfg.applyEnv()
	return cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnv() {
	if v := envOrEmpty("GOOGLE_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := envOrEmpty("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Google.ClientSecret = v
	}
	if v := envOrEmpty("GOOGLE_DRIVE_FOLDER_ID"); v != "" {
		c.Scan.FolderID = v
	}
	if v := envOrEmpty("DRIVE2PHOTOS_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
	if envTruthy("DRIVE2PHOTOS_VERBOSE") {
		c.Verbose = true
	}
}

// Normalize trims values and expands home-relative paths.
func (c *Config) Normalize() error {
	c.Google.ClientID = strings.TrimSpace(c.Google.ClientID)
	c.Google.ClientSecret = strings.TrimSpace(c.Google.ClientSecret)
	c.Scan.FolderID = strings.TrimSpace(c.Scan.FolderID)
	c.Upload.Album = strings.TrimSpace(c.Upload.Album)
	c.Tracker.Backend = strings.ToLower(strings.TrimSpace(c.Tracker.Backend))
	if c.Tracker.Backend == "" {
		c.Tracker.Backend = TrackerJSON
	}
	c.Scan.Paths = cleanPaths(c.Scan.Paths)

	var err error
	if c.Google.TokenDir, err = ExpandPath(c.Google.TokenDir); err != nil {
		return appErrors.Wrap(appErrors.InvalidConfig, "expand token dir", c.Google.TokenDir, err)
	}
	if c.Output.Dir, err = ExpandPath(c.Output.Dir); err != nil {
		return appErrors.Wrap(appErrors.InvalidConfig, "expand output dir", c.Output.Dir, err)
	}
	return nil
}

// Validate ensures the configuration is usable before any remote work starts.
func (c *Config) Validate() error {
	if c.ScanOnly && c.UploadOnly {
		return invalid(errors.New("cannot use --scan-only and --upload-only together"))
	}
	if c.Google.ClientID == "" || c.Google.ClientSecret == "" {
		return invalid(errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set (environment or config file)"))
	}
	switch c.Tracker.Backend {
	case TrackerJSON, TrackerSQLite:
	default:
		return invalid(fmt.Errorf("unknown tracker backend %q (use %q or %q)", c.Tracker.Backend, TrackerJSON, TrackerSQLite))
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return invalid(fmt.Errorf("http timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds))
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return invalid(errors.New("output directory must not be empty"))
	}
	return nil
}

func invalid(err error) error {
	return appErrors.Wrap(appErrors.InvalidConfig, "validate config", "", err)
}

// ParsePaths splits a comma separated list, trimming entries and dropping
// empty ones.
func ParsePaths(raw string) []string {
	return cleanPaths(strings.Split(raw, ","))
}

func cleanPaths(paths []string) []string {
	var cleaned []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Abs(filepath.Clean(pathValue))
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
