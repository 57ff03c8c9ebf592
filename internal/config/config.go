// Package config loads tool configuration from a YAML file and the
// environment. Environment variables win over file values, so CI and
// one-off shells need no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"drupaledit/internal/backend"
)

// Config holds all drupaledit configuration.
type Config struct {
	// Backend forces "terminus" or "browser"; empty means pick from
	// whichever credentials are present.
	Backend string `yaml:"backend"`

	Terminus TerminusConfig `yaml:"terminus"`
	Browser  BrowserConfig  `yaml:"browser"`

	// ChangelogPath receives the session's change export. Empty
	// disables saving.
	ChangelogPath string `yaml:"changelog_path"`
}

// TerminusConfig holds Pantheon access settings.
type TerminusConfig struct {
	Site         string `yaml:"site"`
	Env          string `yaml:"env"`
	MachineToken string `yaml:"machine_token"`
	BinPath      string `yaml:"bin_path"`
	Timeout      string `yaml:"timeout"`
}

// BrowserConfig holds admin-UI login settings.
type BrowserConfig struct {
	BaseURL        string `yaml:"base_url"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Headless       *bool  `yaml:"headless"`
	ScreenshotsDir string `yaml:"screenshots_dir"`
	BrowserBin     string `yaml:"browser_bin"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	headless := true
	return &Config{
		Terminus: TerminusConfig{
			Env: "dev",
		},
		Browser: BrowserConfig{
			Headless:       &headless,
			ScreenshotsDir: "screenshots",
		},
	}
}

// Load reads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DRUPALEDIT_BACKEND"); v != "" {
		c.Backend = v
	}

	if v := os.Getenv("PANTHEON_SITE"); v != "" {
		c.Terminus.Site = v
	}
	if v := os.Getenv("PANTHEON_ENV"); v != "" {
		c.Terminus.Env = v
	}
	if v := os.Getenv("PANTHEON_MACHINE_TOKEN"); v != "" {
		c.Terminus.MachineToken = v
	}

	if v := os.Getenv("DRUPAL_BASE_URL"); v != "" {
		c.Browser.BaseURL = v
	}
	if v := os.Getenv("DRUPAL_USERNAME"); v != "" {
		c.Browser.Username = v
	}
	if v := os.Getenv("DRUPAL_PASSWORD"); v != "" {
		c.Browser.Password = v
	}
}

// ErrNoBackend is the fatal "nothing to work with" condition: no
// explicit backend choice and not enough credentials to infer one.
var ErrNoBackend = fmt.Errorf("no usable backend configuration: set PANTHEON_SITE (plus PANTHEON_MACHINE_TOKEN if terminus is not logged in) or DRUPAL_BASE_URL, DRUPAL_USERNAME and DRUPAL_PASSWORD")

// Resolve decides which backend to use. An explicit choice is
// validated; otherwise Pantheon access wins over browser credentials.
func (c *Config) Resolve() (backend.Kind, error) {
	switch c.Backend {
	case string(backend.KindTerminus):
		if c.Terminus.Site == "" {
			return "", fmt.Errorf("terminus backend selected but no site configured: set PANTHEON_SITE")
		}
		return backend.KindTerminus, nil
	case string(backend.KindBrowser):
		if c.Browser.BaseURL == "" || c.Browser.Username == "" || c.Browser.Password == "" {
			return "", fmt.Errorf("browser backend selected but credentials are incomplete: set DRUPAL_BASE_URL, DRUPAL_USERNAME and DRUPAL_PASSWORD")
		}
		return backend.KindBrowser, nil
	case "":
		if c.Terminus.Site != "" {
			return backend.KindTerminus, nil
		}
		if c.Browser.BaseURL != "" && c.Browser.Username != "" && c.Browser.Password != "" {
			return backend.KindBrowser, nil
		}
		return "", ErrNoBackend
	default:
		return "", fmt.Errorf("unknown backend %q: expected terminus or browser", c.Backend)
	}
}

// TerminusTimeout parses the configured drush timeout, zero when unset
// or invalid.
func (c *Config) TerminusTimeout() time.Duration {
	if c.Terminus.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Terminus.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// BrowserHeadless reports the headless setting, default true.
func (c *Config) BrowserHeadless() bool {
	if c.Browser.Headless == nil {
		return true
	}
	return *c.Browser.Headless
}
