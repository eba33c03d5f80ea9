package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
)

// Config is the typed projection of the persisted Record. Every field
// has a documented default; required fields depend on the engine.
type Config struct {
	Source string
	Dest   string
	Engine string

	Bucket     string
	KeyID      string
	AppKey     string
	Versioning bool

	ExcludeFile string
	Transfers   int
	Checkers    int
	FastList    bool
	ExtraArgs   []string

	LogFile          string
	LogLevel         string
	LogRetentionDays int

	InstallDir  string
	DownloadURL string

	ScheduleTime      string
	ScheduleFrequency string
	ScheduleDay       string
	RunAs             string
	TaskName          string

	Notify        bool
	SkipUnchanged bool
	ProbeDest     bool
	HistoryKeep   int
}

// Default returns a Config populated with every hard-coded default.
func Default() *Config {
	return &Config{
		Engine:            DefaultEngine,
		Versioning:        DefaultVersioning,
		ExcludeFile:       DefaultExcludePath(),
		Transfers:         DefaultTransfers,
		Checkers:          DefaultCheckers,
		FastList:          DefaultFastList,
		LogFile:           DefaultLogPath(),
		LogLevel:          DefaultLogLevel,
		LogRetentionDays:  DefaultLogRetentionDays,
		InstallDir:        DefaultInstallDir(),
		DownloadURL:       DefaultDownloadURL(runtime.GOOS, runtime.GOARCH),
		ScheduleTime:      DefaultScheduleTime,
		ScheduleFrequency: DefaultScheduleFrequency,
		ScheduleDay:       DefaultScheduleDay,
		RunAs:             DefaultRunAs,
		TaskName:          DefaultTaskName,
		ProbeDest:         true,
		HistoryKeep:       DefaultHistoryKeep,
	}
}

// FromRecord projects a raw Record onto a Config. Unknown keys are
// ignored; malformed numeric and boolean values fall back to defaults.
func FromRecord(rec Record) *Config {
	cfg := Default()

	str := func(key string, dst *string) {
		if v, ok := rec[key]; ok && v != "" {
			*dst = v
		}
	}

	str("SOURCE_PATH", &cfg.Source)
	str("DEST_PATH", &cfg.Dest)
	str("ENGINE", &cfg.Engine)
	str("B2_BUCKET", &cfg.Bucket)
	str("B2_KEY_ID", &cfg.KeyID)
	str("B2_APP_KEY", &cfg.AppKey)
	str("EXCLUDE_FILE", &cfg.ExcludeFile)
	str("LOG_FILE", &cfg.LogFile)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("INSTALL_DIR", &cfg.InstallDir)
	str("DOWNLOAD_URL", &cfg.DownloadURL)
	str("SCHEDULE_TIME", &cfg.ScheduleTime)
	str("SCHEDULE_FREQUENCY", &cfg.ScheduleFrequency)
	str("SCHEDULE_DAY", &cfg.ScheduleDay)
	str("RUN_AS", &cfg.RunAs)
	str("TASK_NAME", &cfg.TaskName)

	cfg.Versioning = parseBool(rec["VERSIONING"], cfg.Versioning)
	cfg.FastList = parseBool(rec["FAST_LIST"], cfg.FastList)
	cfg.Notify = parseBool(rec["NOTIFY"], cfg.Notify)
	cfg.SkipUnchanged = parseBool(rec["SKIP_UNCHANGED"], cfg.SkipUnchanged)
	cfg.ProbeDest = parseBool(rec["PROBE_DEST"], cfg.ProbeDest)

	cfg.Transfers = parseInt(rec["TRANSFERS"], cfg.Transfers)
	cfg.Checkers = parseInt(rec["CHECKERS"], cfg.Checkers)
	cfg.LogRetentionDays = parseInt(rec["LOG_RETENTION_DAYS"], cfg.LogRetentionDays)
	cfg.HistoryKeep = parseInt(rec["HISTORY_KEEP"], cfg.HistoryKeep)

	if v := rec["EXTRA_ARGS"]; v != "" {
		cfg.ExtraArgs = strings.Fields(v)
	}

	return cfg
}

// ToRecord converts the Config back into the flat Record form used for
// persistence.
func (c *Config) ToRecord() Record {
	return Record{
		"SOURCE_PATH":        c.Source,
		"DEST_PATH":          c.Dest,
		"ENGINE":             c.Engine,
		"B2_BUCKET":          c.Bucket,
		"B2_KEY_ID":          c.KeyID,
		"B2_APP_KEY":         c.AppKey,
		"VERSIONING":         formatBool(c.Versioning),
		"EXCLUDE_FILE":       c.ExcludeFile,
		"TRANSFERS":          strconv.Itoa(c.Transfers),
		"CHECKERS":           strconv.Itoa(c.Checkers),
		"FAST_LIST":          formatBool(c.FastList),
		"EXTRA_ARGS":         strings.Join(c.ExtraArgs, " "),
		"LOG_FILE":           c.LogFile,
		"LOG_LEVEL":          c.LogLevel,
		"LOG_RETENTION_DAYS": strconv.Itoa(c.LogRetentionDays),
		"INSTALL_DIR":        c.InstallDir,
		"DOWNLOAD_URL":       c.DownloadURL,
		"SCHEDULE_TIME":      c.ScheduleTime,
		"SCHEDULE_FREQUENCY": c.ScheduleFrequency,
		"SCHEDULE_DAY":       c.ScheduleDay,
		"RUN_AS":             c.RunAs,
		"TASK_NAME":          c.TaskName,
		"NOTIFY":             formatBool(c.Notify),
		"SKIP_UNCHANGED":     formatBool(c.SkipUnchanged),
		"PROBE_DEST":         formatBool(c.ProbeDest),
		"HISTORY_KEEP":       strconv.Itoa(c.HistoryKeep),
	}
}

// Load reads the persisted Record at path, exports it into the process
// environment, and projects it onto a validated Config.
func Load(path string) (*Config, error) {
	rec, err := LoadRecord(path)
	if err != nil {
		return nil, err
	}

	cfg := FromRecord(rec)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save validates the Config and persists it as a Record.
func Save(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return SaveRecord(path, cfg.ToRecord())
}

// Validate checks the fields the sync runner depends on. Validation
// errors name the offending key.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New("SOURCE_PATH must not be empty")
	}

	switch c.Engine {
	case EngineRclone:
		if c.Dest == "" {
			return errors.New("DEST_PATH must not be empty for the rclone engine")
		}
	case EngineB2:
		if c.Bucket == "" {
			return errors.New("B2_BUCKET must not be empty for the b2 engine")
		}
		if c.KeyID == "" {
			return errors.New("B2_KEY_ID must not be empty for the b2 engine")
		}
		if c.AppKey == "" {
			return errors.New("B2_APP_KEY must not be empty for the b2 engine")
		}
	default:
		return fmt.Errorf("ENGINE must be %q or %q, got %q", EngineRclone, EngineB2, c.Engine)
	}

	if c.Transfers < 1 {
		return errors.New("TRANSFERS must be at least 1")
	}

	return nil
}

// parseBool accepts true/false/yes/no/1/0 case-insensitively; anything
// else, including the empty string, yields the fallback.
func parseBool(v string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true
	case "false", "no", "0":
		return false
	default:
		return fallback
	}
}

func parseInt(v string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ConfigDir returns $XDG_CONFIG_HOME/b2up/ for the config and exclusion files.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "b2up")
}

// DataDir returns $XDG_DATA_HOME/b2up/ for installed tools and history.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "b2up")
}

// StateDir returns $XDG_STATE_HOME/b2up/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "b2up")
}

// CacheDir returns $XDG_CACHE_HOME/b2up/ for the upload state index.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "b2up")
}

// DefaultConfigPath returns the default location of the persisted config.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "b2up.env")
}

// DefaultExcludePath returns the default location of the exclusion list.
func DefaultExcludePath() string {
	return filepath.Join(ConfigDir(), "exclude_patterns.txt")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "b2up.log")
}

// DefaultInstallDir returns where the bootstrap installs external tools.
func DefaultInstallDir() string {
	return filepath.Join(DataDir(), "bin")
}

// DefaultHistoryDir returns where per-run records are written.
func DefaultHistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultStateIndexDir returns the upload fingerprint store location.
func DefaultStateIndexDir() string {
	return filepath.Join(CacheDir(), "index")
}

// EnsureDir creates the given directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}
