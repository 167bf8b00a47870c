package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	AudioDir string `toml:"audio_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Timing contains configuration for word-timing encoding and lookup caches.
type Timing struct {
	SegmentDurationSeconds float64 `toml:"segment_duration_seconds"`
	CompressionLevel       int     `toml:"compression_level"`
	SegmentCacheSize       int     `toml:"segment_cache_size"`
	SegmentCacheTTLSeconds int     `toml:"segment_cache_ttl_seconds"`
	WordCountCacheSize     int     `toml:"word_count_cache_size"`
	WordCountTTLSeconds    int     `toml:"word_count_ttl_seconds"`
}

// Reader contains configuration for paginated read-along pages.
type Reader struct {
	DefaultPageSize     int `toml:"default_page_size"`
	MaxPageSize         int `toml:"max_page_size"`
	TextCacheSize       int `toml:"text_cache_size"`
	TextCacheTTLSeconds int `toml:"text_cache_ttl_seconds"`
}

// Playlist contains configuration for HLS playlist synthesis.
type Playlist struct {
	FileName          string   `toml:"file_name"`
	SegmentPrefix     string   `toml:"segment_prefix"`
	SegmentExtensions []string `toml:"segment_extensions"`
}

// Workers bounds CPU-bound work such as blob decoding and tokenization.
type Workers struct {
	CPU int `toml:"cpu"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for readalong.
//
// Configuration sections by subsystem:
//   - Paths: database, audio segment and log directories plus the API bind address
//   - Timing: segment duration, blob compression level and lookup cache bounds
//   - Reader: page sizes and source-text token cache bounds
//   - Playlist: segment file naming and playlist file name
//   - Workers: concurrency limit for CPU-bound work
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Timing   Timing   `toml:"timing"`
	Reader   Reader   `toml:"reader"`
	Playlist Playlist `toml:"playlist"`
	Workers  Workers  `toml:"workers"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/readalong/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("readalong.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for server and CLI operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.AudioDir, c.Paths.LogDir, c.LockDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "readalong.db")
}

// LockDir returns the directory holding cross-process writer locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// SegmentDuration returns the timeline segment duration as a time.Duration.
func (c *Config) SegmentDuration() time.Duration {
	return time.Duration(c.Timing.SegmentDurationSeconds * float64(time.Second))
}

// SegmentCacheTTL returns the per-segment word cache TTL.
func (c *Config) SegmentCacheTTL() time.Duration {
	return time.Duration(c.Timing.SegmentCacheTTLSeconds) * time.Second
}

// WordCountTTL returns the total word count cache TTL.
func (c *Config) WordCountTTL() time.Duration {
	return time.Duration(c.Timing.WordCountTTLSeconds) * time.Second
}

// TextCacheTTL returns the source-text token cache TTL.
func (c *Config) TextCacheTTL() time.Duration {
	return time.Duration(c.Reader.TextCacheTTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
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
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultDataDir() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "readalong")
	}
	return defaultDataDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
