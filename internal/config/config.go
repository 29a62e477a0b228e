// Package config provides configuration management for the splitter service.
// Values come from built-in defaults, then an optional TOML file, then
// SPLITTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"

	"github.com/heimdex/heimdex-splitter/internal/indexparse"
)

const (
	// Default values
	DefaultPort              = 8787
	DefaultHost              = "127.0.0.1"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultDataDir           = ".heimdex-splitter"
	DefaultFFmpegPath        = "ffmpeg"
	DefaultFFmpegTimeout     = 30 * time.Minute
	DefaultMaxConcurrentJobs = 2
	DefaultMaxUploadBytes    = 20 * 1000 * 1000 * 1000 // 20GB
	DefaultJobTTL            = 24 * time.Hour
	DefaultIndexStrategy     = indexparse.StrategyBlock

	// Environment variable names
	EnvConfigFile        = "SPLITTER_CONFIG"
	EnvPort              = "SPLITTER_PORT"
	EnvHost              = "SPLITTER_HOST"
	EnvLogLevel          = "SPLITTER_LOG_LEVEL"
	EnvLogFormat         = "SPLITTER_LOG_FORMAT"
	EnvDataDir           = "SPLITTER_DATA_DIR"
	EnvFFmpegPath        = "SPLITTER_FFMPEG_PATH"
	EnvFFmpegTimeout     = "SPLITTER_FFMPEG_TIMEOUT"
	EnvMaxConcurrentJobs = "SPLITTER_MAX_CONCURRENT_JOBS"
	EnvMaxUploadBytes    = "SPLITTER_MAX_UPLOAD_BYTES"
	EnvJobTTL            = "SPLITTER_JOB_TTL"
	EnvIndexStrategy     = "SPLITTER_INDEX_STRATEGY"
	EnvHeadless          = "SPLITTER_HEADLESS"
	EnvCORSOrigin        = "SPLITTER_CORS_ORIGIN"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	Host() string
	Addr() string
	LogLevel() string
	LogFormat() string
	DataDir() string
	FFmpegPath() string
	FFmpegTimeout() time.Duration
	MaxConcurrentJobs() int
	MaxUploadBytes() int64
	JobTTL() time.Duration
	IndexStrategy() string
	Headless() bool
	CORSOrigin() string
}

// EnvConfig is the layered configuration. The name is kept from when the
// environment was its only source.
type EnvConfig struct {
	port              int
	host              string
	logLevel          string
	logFormat         string
	dataDir           string
	ffmpegPath        string
	ffmpegTimeout     time.Duration
	maxConcurrentJobs int
	maxUploadBytes    int64
	jobTTL            time.Duration
	indexStrategy     string
	headless          bool
	corsOrigin        string

	file string
}

// fileConfig mirrors the TOML keys. Pointers distinguish absent keys from
// zero values.
type fileConfig struct {
	Port              *int    `toml:"port"`
	Host              *string `toml:"host"`
	LogLevel          *string `toml:"log_level"`
	LogFormat         *string `toml:"log_format"`
	DataDir           *string `toml:"data_dir"`
	FFmpegPath        *string `toml:"ffmpeg_path"`
	FFmpegTimeout     *string `toml:"ffmpeg_timeout"`
	MaxConcurrentJobs *int    `toml:"max_concurrent_jobs"`
	MaxUploadBytes    *string `toml:"max_upload_bytes"`
	JobTTL            *string `toml:"job_ttl"`
	IndexStrategy     *string `toml:"index_strategy"`
	Headless          *bool   `toml:"headless"`
	CORSOrigin        *string `toml:"cors_origin"`
}

// New loads configuration without an explicit file; SPLITTER_CONFIG is
// still honored.
func New() (*EnvConfig, error) {
	return Load("")
}

// Load builds the configuration. path, or SPLITTER_CONFIG when path is
// empty, names a TOML file that must exist. Environment variables override
// file values.
func Load(path string) (*EnvConfig, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	dataDir, err := expandHome(cfg.dataDir)
	if err != nil {
		return nil, err
	}
	cfg.dataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *EnvConfig {
	return &EnvConfig{
		port:              DefaultPort,
		host:              DefaultHost,
		logLevel:          DefaultLogLevel,
		logFormat:         DefaultLogFormat,
		dataDir:           defaultDataDir(),
		ffmpegPath:        DefaultFFmpegPath,
		ffmpegTimeout:     DefaultFFmpegTimeout,
		maxConcurrentJobs: DefaultMaxConcurrentJobs,
		maxUploadBytes:    DefaultMaxUploadBytes,
		jobTTL:            DefaultJobTTL,
		indexStrategy:     DefaultIndexStrategy,
	}
}

func (c *EnvConfig) loadFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&c.port, fc.Port)
	setIf(&c.host, fc.Host)
	setIf(&c.logLevel, fc.LogLevel)
	setIf(&c.logFormat, fc.LogFormat)
	setIf(&c.dataDir, fc.DataDir)
	setIf(&c.ffmpegPath, fc.FFmpegPath)
	setIf(&c.maxConcurrentJobs, fc.MaxConcurrentJobs)
	setIf(&c.indexStrategy, fc.IndexStrategy)
	setIf(&c.headless, fc.Headless)
	setIf(&c.corsOrigin, fc.CORSOrigin)

	if fc.FFmpegTimeout != nil {
		if c.ffmpegTimeout, err = parseDuration("ffmpeg_timeout", *fc.FFmpegTimeout); err != nil {
			return err
		}
	}
	if fc.JobTTL != nil {
		if c.jobTTL, err = parseDuration("job_ttl", *fc.JobTTL); err != nil {
			return err
		}
	}
	if fc.MaxUploadBytes != nil {
		if c.maxUploadBytes, err = parseBytes("max_upload_bytes", *fc.MaxUploadBytes); err != nil {
			return err
		}
	}

	c.file = path
	return nil
}

func (c *EnvConfig) loadEnv() error {
	var err error

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		if c.port, err = strconv.Atoi(p); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.host = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.logLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.logFormat = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.dataDir = v
	}
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		c.ffmpegPath = v
	}
	if v := os.Getenv(EnvFFmpegTimeout); v != "" {
		if c.ffmpegTimeout, err = parseDuration(EnvFFmpegTimeout, v); err != nil {
			return err
		}
	}
	if v := os.Getenv(EnvMaxConcurrentJobs); v != "" {
		if c.maxConcurrentJobs, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxConcurrentJobs, err)
		}
	}
	if v := os.Getenv(EnvMaxUploadBytes); v != "" {
		if c.maxUploadBytes, err = parseBytes(EnvMaxUploadBytes, v); err != nil {
			return err
		}
	}
	if v := os.Getenv(EnvJobTTL); v != "" {
		if c.jobTTL, err = parseDuration(EnvJobTTL, v); err != nil {
			return err
		}
	}
	if v := os.Getenv(EnvIndexStrategy); v != "" {
		c.indexStrategy = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		if c.headless, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
	}
	if v := os.Getenv(EnvCORSOrigin); v != "" {
		c.corsOrigin = v
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *EnvConfig) Validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port)
	}
	switch strings.ToLower(c.logFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log_format %q: must be json or text", c.logFormat)
	}
	if strings.TrimSpace(c.dataDir) == "" {
		return errors.New("data_dir must not be empty")
	}
	if strings.TrimSpace(c.ffmpegPath) == "" {
		return errors.New("ffmpeg_path must not be empty")
	}
	if c.ffmpegTimeout < 0 {
		return errors.New("ffmpeg_timeout must not be negative")
	}
	if c.maxConcurrentJobs < 1 {
		return fmt.Errorf("invalid max_concurrent_jobs %d: must be at least 1", c.maxConcurrentJobs)
	}
	if c.maxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.jobTTL < 0 {
		return errors.New("job_ttl must not be negative")
	}
	if _, err := indexparse.Lookup(c.indexStrategy); err != nil {
		return fmt.Errorf("invalid index_strategy: %w", err)
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// Host returns the interface the HTTP server binds to
func (c *EnvConfig) Host() string {
	return c.host
}

// Addr returns host:port for the listener
func (c *EnvConfig) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) LogFormat() string {
	return c.logFormat
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFmpegTimeout bounds a single ffmpeg invocation. Zero means no limit.
func (c *EnvConfig) FFmpegTimeout() time.Duration {
	return c.ffmpegTimeout
}

func (c *EnvConfig) MaxConcurrentJobs() int {
	return c.maxConcurrentJobs
}

func (c *EnvConfig) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// JobTTL is how long finished jobs are kept. Zero keeps them forever.
func (c *EnvConfig) JobTTL() time.Duration {
	return c.jobTTL
}

func (c *EnvConfig) IndexStrategy() string {
	return c.indexStrategy
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// CORSOrigin is the single browser origin allowed cross-origin access.
// Empty disables CORS headers.
func (c *EnvConfig) CORSOrigin() string {
	return c.corsOrigin
}

// File returns the config file that was loaded, if any.
func (c *EnvConfig) File() string {
	return c.file
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func parseBytes(name, value string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return int64(n), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
