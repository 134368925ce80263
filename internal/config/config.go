package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override file configuration.
const (
	EnvBackendURL     = "INTENTDESK_BACKEND_URL"
	EnvBind           = "INTENTDESK_BIND"
	EnvPort           = "INTENTDESK_PORT"
	EnvTimezone       = "INTENTDESK_TIMEZONE"
	EnvRequestTimeout = "INTENTDESK_REQUEST_TIMEOUT"
)

// Config holds application configuration.
type Config struct {
	// BackendURL is the base address of the intent REST backend, without the
	// /intent resource path.
	BackendURL string `json:"backend_url"`

	// Bind and Port select the console listen address.
	Bind string `json:"bind"`
	Port int    `json:"port"`

	// DisplayTimezone is the IANA zone used to render timestamps.
	DisplayTimezone string `json:"display_timezone"`

	// RequestTimeout bounds each backend request (Go duration, e.g. "30s").
	// Empty means no timeout.
	RequestTimeout string `json:"request_timeout,omitempty"`

	// SessionTTL is how long an idle console session keeps its view state.
	SessionTTL string `json:"session_ttl"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// BackendDBPath is the SQLite file used by the development backend.
	// Relative paths are resolved against the base directory.
	BackendDBPath string `json:"backend_db_path,omitempty"`

	// BackendPort is the listen port of the development backend.
	BackendPort int `json:"backend_port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BackendURL:      "http://localhost:5000",
		Bind:            "127.0.0.1",
		Port:            8080,
		DisplayTimezone: "Europe/Oslo",
		SessionTTL:      "12h",
		BackendDBPath:   "devbackend.db",
		BackendPort:     5000,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.intentdesk.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.intentdesk) and
// project (.intentdesk) directories. The project config is found by walking
// upward from startDir. Project values take precedence for scalars; arrays
// are merged (deduplicated). Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .intentdesk/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".intentdesk", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		BackendURL:      firstString(overlay.BackendURL, base.BackendURL),
		Bind:            firstString(overlay.Bind, base.Bind),
		Port:            firstInt(overlay.Port, base.Port),
		DisplayTimezone: firstString(overlay.DisplayTimezone, base.DisplayTimezone),
		RequestTimeout:  firstString(overlay.RequestTimeout, base.RequestTimeout),
		SessionTTL:      firstString(overlay.SessionTTL, base.SessionTTL),
		DisabledTools:   mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		BackendDBPath:   firstString(overlay.BackendDBPath, base.BackendDBPath),
		BackendPort:     firstInt(overlay.BackendPort, base.BackendPort),
	}
}

// LoadEnvFiles loads KEY=VALUE pairs from .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment values onto cfg. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackendURL); ok && strings.TrimSpace(v) != "" {
		cfg.BackendURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvBind); ok && strings.TrimSpace(v) != "" {
		cfg.Bind = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	if v, ok := lookup(EnvTimezone); ok && strings.TrimSpace(v) != "" {
		cfg.DisplayTimezone = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRequestTimeout); ok {
		cfg.RequestTimeout = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks the fields that the console cannot run without.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend_url must be an absolute URL, got %q", c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.BackendPort < 1 || c.BackendPort > 65535 {
		return fmt.Errorf("backend_port must be between 1 and 65535, got %d", c.BackendPort)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.SessionIdle(); err != nil {
		return err
	}
	return nil
}

// Location resolves DisplayTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("display_timezone: %w", err)
	}
	return loc, nil
}

// Timeout parses RequestTimeout. Zero means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("request_timeout", c.RequestTimeout)
}

// SessionIdle parses SessionTTL.
func (c *Config) SessionIdle() (time.Duration, error) {
	return parseDuration("session_ttl", c.SessionTTL)
}

// DBPath resolves BackendDBPath against baseDir.
func (c *Config) DBPath(baseDir string) string {
	switch {
	case c.BackendDBPath == "":
		return filepath.Join(baseDir, "devbackend.db")
	case filepath.IsAbs(c.BackendDBPath):
		return c.BackendDBPath
	default:
		return filepath.Join(baseDir, c.BackendDBPath)
	}
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must be non-negative", field)
	}
	return d, nil
}

func firstString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
