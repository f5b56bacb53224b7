package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/randalmurphal/eventmanager/pkg/eventmanager/journal"
)

// EnvPrefix prefixes every environment variable read by SettingsFromEnv.
const EnvPrefix = "EVENTMANAGER_"

// Journal drivers.
const (
	DriverNone   = ""
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultJournalPath is the SQLite file used when no path is configured.
const DefaultJournalPath = "eventmanager-faults.db"

// ErrInvalidSettings indicates settings that fail validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the event manager's runtime knobs.
type Settings struct {
	// Metrics enables OpenTelemetry metrics.
	Metrics bool `env:"METRICS"`
	// Tracing enables OpenTelemetry spans.
	Tracing bool `env:"TRACING"`
	// SlowHandlerThreshold logs handlers that run longer. Zero disables it.
	SlowHandlerThreshold time.Duration `env:"SLOW_HANDLER_THRESHOLD"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// Journal configures the fault journal.
	Journal JournalSettings `envPrefix:"JOURNAL_"`
}

// JournalSettings configure the fault journal.
type JournalSettings struct {
	// Driver is "", "memory" or "sqlite". Empty disables the journal.
	Driver string `env:"DRIVER"`
	// Path is the SQLite database file.
	Path string `env:"PATH" envDefault:"eventmanager-faults.db"`
	// RecordRecovered also journals failures absorbed by Graceful handlers.
	RecordRecovered bool `env:"RECORD_RECOVERED"`
}

// DefaultSettings returns settings with every feature off and info logging.
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		Journal: JournalSettings{
			Path: DefaultJournalPath,
		},
	}
}

// SettingsFromConfig reads settings from a loaded configuration, falling
// back to DefaultSettings for missing keys.
//
// Example YAML:
//
//	metrics: true
//	slow_handler_threshold: 250ms
//	journal:
//	  driver: sqlite
//	  path: /var/lib/app/faults.db
func SettingsFromConfig(cfg Config) (Settings, error) {
	d := DefaultSettings()
	s := Settings{
		Metrics:              cfg.Bool("metrics", d.Metrics),
		Tracing:              cfg.Bool("tracing", d.Tracing),
		SlowHandlerThreshold: cfg.Duration("slow_handler_threshold", d.SlowHandlerThreshold),
		LogLevel:             cfg.String("log_level", d.LogLevel),
		Journal: JournalSettings{
			Driver:          cfg.String("journal.driver", d.Journal.Driver),
			Path:            cfg.String("journal.path", d.Journal.Path),
			RecordRecovered: cfg.Bool("journal.record_recovered", d.Journal.RecordRecovered),
		},
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// SettingsFromEnv reads settings from EVENTMANAGER_* environment variables.
func SettingsFromEnv() (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings for unsupported values.
func (s Settings) Validate() error {
	var errs []error
	if s.SlowHandlerThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: slow_handler_threshold must not be negative", ErrInvalidSettings))
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidSettings, err))
	}
	switch s.Journal.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite:
		if s.Journal.Path == "" {
			errs = append(errs, fmt.Errorf("%w: journal.path is required for the sqlite driver", ErrInvalidSettings))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown journal driver %q", ErrInvalidSettings, s.Journal.Driver))
	}
	return errors.Join(errs...)
}

// Logger builds a JSON logger writing to w at the configured level.
// An unparseable level falls back to info.
func (s Settings) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenJournal builds the configured journal. It returns nil, nil when the
// journal is disabled. The caller owns the returned journal.
func (s Settings) OpenJournal() (journal.Journal, error) {
	switch s.Journal.Driver {
	case DriverNone:
		return nil, nil
	case DriverMemory:
		return journal.NewMemoryJournal(), nil
	case DriverSQLite:
		path := s.Journal.Path
		if path == "" {
			path = DefaultJournalPath
		}
		j, err := journal.NewSQLiteJournal(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal %s: %w", path, err)
		}
		return j, nil
	default:
		return nil, fmt.Errorf("%w: unknown journal driver %q", ErrInvalidSettings, s.Journal.Driver)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
