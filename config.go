package keepalive

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration for a Scheduler or Group.
//
// All duration fields accept standard Go duration strings like "500ms", "2s", "1m".
// The keep-alive interval itself is not configured here: it belongs to the
// connection (Connection.KeepAliveInterval).
type Config struct {
	// GuardTagPrefix prefixes the connection ID to form the sleep guard tag.
	// The tag shows up in platform inhibitor listings (e.g. `systemd-inhibit --list`).
	GuardTagPrefix string `yaml:"guardTagPrefix"`

	// GuardAcquireTimeout bounds how long a firing waits for a sleep guard.
	// A firing that cannot acquire its guard in time still sends its probe.
	GuardAcquireTimeout time.Duration `yaml:"guardAcquireTimeout"`

	// MaxGuardHold releases a guard whose probe has not completed after this long.
	// 0 disables the limit and the guard stays held until the probe completes.
	MaxGuardHold time.Duration `yaml:"maxGuardHold"`

	// RearmOnFire re-arms the timer at the full keep-alive interval right after
	// each firing. When false the collaborator re-arms through Schedule, usually
	// from its own traffic or probe-completion path.
	RearmOnFire bool `yaml:"rearmOnFire"`

	// StaggerWindow spreads first firings of a Group's connections.
	// Each connection's first timer fires up to StaggerWindow early, by an
	// offset derived from its ID. 0 disables staggering.
	StaggerWindow time.Duration `yaml:"staggerWindow"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		GuardTagPrefix:      "keepalive.ping.",
		GuardAcquireTimeout: 2 * time.Second,
		MaxGuardHold:        0,
		RearmOnFire:         false,
		StaggerWindow:       0,
	}
}

// ApplyDefaults fills in missing configuration values with production defaults.
//
// Zero MaxGuardHold, RearmOnFire, and StaggerWindow are valid choices and are
// left untouched.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.GuardTagPrefix == "" {
		cfg.GuardTagPrefix = defaults.GuardTagPrefix
	}
	if cfg.GuardAcquireTimeout == 0 {
		cfg.GuardAcquireTimeout = defaults.GuardAcquireTimeout
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - GuardAcquireTimeout > 0
//   - MaxGuardHold >= 0
//   - StaggerWindow >= 0
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.GuardAcquireTimeout <= 0 {
		return fmt.Errorf("%w: GuardAcquireTimeout must be > 0, got %v", ErrInvalidConfig, cfg.GuardAcquireTimeout)
	}

	if cfg.MaxGuardHold < 0 {
		return fmt.Errorf("%w: MaxGuardHold must be >= 0, got %v", ErrInvalidConfig, cfg.MaxGuardHold)
	}

	if cfg.StaggerWindow < 0 {
		return fmt.Errorf("%w: StaggerWindow must be >= 0, got %v", ErrInvalidConfig, cfg.StaggerWindow)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewScheduler() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.MaxGuardHold > 0 && cfg.MaxGuardHold < time.Second {
		logger.Warn(
			"MaxGuardHold is very short, guards may be released before slow probes complete",
			"maxGuardHold", cfg.MaxGuardHold,
			"recommended", "1s or higher",
		)
	}

	if cfg.GuardAcquireTimeout > 10*time.Second {
		logger.Warn(
			"GuardAcquireTimeout is long, a stuck inhibitor service delays every heartbeat",
			"guardAcquireTimeout", cfg.GuardAcquireTimeout,
			"recommended", "2s",
		)
	}

	if cfg.GuardTagPrefix == "" {
		logger.Warn("GuardTagPrefix is empty, guard tags will be bare connection IDs")
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with short timeouts for tests
//
// Example:
//
//	cfg := keepalive.TestConfig()
//	cfg.RearmOnFire = true
//	s, err := keepalive.NewScheduler(&cfg)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.GuardAcquireTimeout = 200 * time.Millisecond // 10x faster
	cfg.MaxGuardHold = 2 * time.Second               // bound leaks from stuck fakes

	return cfg
}

// LoadConfig loads configuration from a YAML file.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration with defaults applied
//   - error: Error if file cannot be read, parsed, or validated
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses a YAML document into a Config, applies defaults, and validates it.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Config: Parsed configuration with defaults applied
//   - error: Error if the document cannot be parsed or is invalid
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
