// ABOUTME: Configuration loading and parsing for sgu-admin
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Endpoints used when no config file overrides them.
const (
	DefaultLocalURL  = "http://127.0.0.1:8000"
	DefaultPublicURL = "https://api.agamjain.online/sgu"
)

// DefaultHideAfter is how long a notification stays visible.
const DefaultHideAfter = 4 * time.Second

// Storage drivers
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config represents the complete sgu-admin configuration
type Config struct {
	API     APIConfig     `yaml:"api" toml:"api"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Notify  NotifyConfig  `yaml:"notify" toml:"notify"`
}

// APIConfig holds the remote catalog API endpoints
type APIConfig struct {
	LocalURL  string `yaml:"local_url" toml:"local_url"`
	PublicURL string `yaml:"public_url" toml:"public_url"`
	// Host is the hostname the console pretends to run on; it decides
	// between LocalURL and PublicURL. Empty means the machine hostname.
	Host string `yaml:"host" toml:"host"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// StorageConfig holds durable token storage configuration
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// NotifyConfig holds notification channel timing
type NotifyConfig struct {
	HideAfter    time.Duration `yaml:"-" toml:"-"`
	HideAfterRaw string        `yaml:"hide_after" toml:"hide_after"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			LocalURL:  DefaultLocalURL,
			PublicURL: DefaultPublicURL,
		},
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   filepath.Join(configDir(), "sgu-admin"),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Notify: NotifyConfig{
			HideAfter: DefaultHideAfter,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Unset fields keep their Default() values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default() otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Path returns the config file location.
// Priority: SGU_CONFIG env var > XDG_CONFIG_HOME/sgu-admin/config.yaml > ~/.config/sgu-admin/config.yaml
func Path() string {
	if envPath := os.Getenv("SGU_CONFIG"); envPath != "" {
		return envPath
	}
	return filepath.Join(configDir(), "sgu-admin", "config.yaml")
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		dir = filepath.Join(homeDir, ".config")
	}
	return dir
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := validateURL("api.local_url", c.API.LocalURL); err != nil {
		return err
	}
	if err := validateURL("api.public_url", c.API.PublicURL); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of file, sqlite, memory (got %q)", c.Storage.Driver)
	}

	if c.Notify.HideAfter <= 0 {
		return fmt.Errorf("notify.hide_after must be positive")
	}

	return nil
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", field)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.API.TimeoutRaw != "" {
		cfg.API.Timeout, err = time.ParseDuration(cfg.API.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing api.timeout %q: %w", cfg.API.TimeoutRaw, err)
		}
	}

	if cfg.Notify.HideAfterRaw != "" {
		cfg.Notify.HideAfter, err = time.ParseDuration(cfg.Notify.HideAfterRaw)
		if err != nil {
			return fmt.Errorf("parsing notify.hide_after %q: %w", cfg.Notify.HideAfterRaw, err)
		}
	}

	return nil
}

// BaseURL returns the API endpoint for the configured host.
func (c *Config) BaseURL() string {
	host := c.API.Host
	if host == "" {
		host, _ = os.Hostname()
	}
	return SelectBaseURL(host, c.API.LocalURL, c.API.PublicURL)
}

// SelectBaseURL routes loopback hosts to localURL and every other host to publicURL.
func SelectBaseURL(host, localURL, publicURL string) string {
	if IsLoopback(host) {
		return localURL
	}
	return publicURL
}

// IsLoopback reports whether host names the local machine.
func IsLoopback(host string) bool {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
