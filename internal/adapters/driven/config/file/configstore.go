// Package file loads parcelcal configuration from a TOML file, with
// environment fallbacks for per-retailer credentials so secrets can stay
// out of the file entirely.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Defaults applied when the file leaves a field unset.
const (
	DefaultOutput         = "output/deliveries.ics"
	DefaultIntervalHours  = 24
	DefaultTimeoutMinutes = 10
	DefaultMaxPages       = 3
)

// Config is the full run configuration.
type Config struct {
	// Output is where the generated calendar file goes.
	Output string `toml:"output"`

	// IntervalHours controls how often the daemon re-runs the pipeline.
	IntervalHours int `toml:"interval_hours"`

	// SourceTimeoutMinutes bounds one source's authenticate/fetch cycle.
	SourceTimeoutMinutes int `toml:"source_timeout_minutes"`

	// DataDir holds scheduler state; empty means ~/.parcelcal/data.
	DataDir string `toml:"data_dir"`

	// Sources maps retailer name to its configuration.
	Sources map[string]SourceConfig `toml:"sources"`
}

// SourceConfig configures one retailer source.
type SourceConfig struct {
	// BaseURL is the storefront root, e.g. "https://www.example-store.in".
	BaseURL string `toml:"base_url"`

	// Email and Password are the login credential pair. Both empty means
	// the source is skipped for the run.
	Email    string `toml:"email"`
	Password string `toml:"password"`

	// TOTPSecret is the optional time-based one-time-password seed for
	// accounts with two-factor login.
	TOTPSecret string `toml:"totp_secret"`

	// MaxPages is the order-history page ceiling.
	MaxPages int `toml:"max_pages"`
}

// HasCredentials reports whether the credential pair is present.
func (s SourceConfig) HasCredentials() bool {
	return s.Email != "" && s.Password != ""
}

// Store loads and watches the configuration file.
type Store struct {
	mu       sync.RWMutex
	filePath string
	config   Config
}

// NewStore creates a config store for the given path. If path is empty,
// defaults to ~/.parcelcal/config.toml. A missing file is not an error;
// the store starts with defaults and env-supplied credentials.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".parcelcal", "config.toml")
	}

	s := &Store{filePath: path}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := s.config
	cfg.Sources = make(map[string]SourceConfig, len(s.config.Sources))
	for name, src := range s.config.Sources {
		cfg.Sources[name] = src
	}
	return cfg
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the file, applies defaults and environment fallbacks.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg Config
	data, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", s.filePath, err)
		}
	case os.IsNotExist(err):
		// No config file yet - that's fine, start with defaults
	default:
		return err
	}

	applyDefaults(&cfg)
	applyEnvCredentials(&cfg)
	s.config = cfg
	return nil
}

// applyDefaults fills unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.IntervalHours <= 0 {
		cfg.IntervalHours = DefaultIntervalHours
	}
	if cfg.SourceTimeoutMinutes <= 0 {
		cfg.SourceTimeoutMinutes = DefaultTimeoutMinutes
	}
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]SourceConfig)
	}
	for name, src := range cfg.Sources {
		if src.MaxPages <= 0 {
			src.MaxPages = DefaultMaxPages
		}
		cfg.Sources[name] = src
	}
}

// applyEnvCredentials fills missing credentials from the environment:
// AMAZON_EMAIL, AMAZON_PASSWORD, AMAZON_TOTP_SECRET for a source named
// "amazon", and so on.
func applyEnvCredentials(cfg *Config) {
	for name, src := range cfg.Sources {
		prefix := envPrefix(name)
		if src.Email == "" {
			src.Email = os.Getenv(prefix + "_EMAIL")
		}
		if src.Password == "" {
			src.Password = os.Getenv(prefix + "_PASSWORD")
		}
		if src.TOTPSecret == "" {
			src.TOTPSecret = os.Getenv(prefix + "_TOTP_SECRET")
		}
		cfg.Sources[name] = src
	}
}

// envPrefix converts a source name to its environment variable prefix.
func envPrefix(name string) string {
	upper := strings.ToUpper(name)
	return strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, upper)
}
