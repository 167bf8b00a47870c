package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTiming()
	c.normalizeReader()
	c.normalizePlaylist()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	c.Paths.DataDir = strings.TrimSpace(c.Paths.DataDir)
	if c.Paths.DataDir == "" {
		if value, ok := os.LookupEnv("READALONG_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.DataDir = strings.TrimSpace(value)
		} else {
			c.Paths.DataDir = defaultDataDir()
		}
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	c.Paths.AudioDir = strings.TrimSpace(c.Paths.AudioDir)
	if c.Paths.AudioDir == "" {
		if value, ok := os.LookupEnv("READALONG_AUDIO_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.AudioDir = strings.TrimSpace(value)
		} else {
			c.Paths.AudioDir = filepath.Join(c.Paths.DataDir, defaultAudioSubdir)
		}
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, defaultLogSubdir)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if value, ok := os.LookupEnv("READALONG_API_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIBind = strings.TrimSpace(value)
	}
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if value, ok := os.LookupEnv("READALONG_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = strings.TrimSpace(value)
	}
	return nil
}

func (c *Config) normalizeTiming() {
	if c.Timing.SegmentDurationSeconds == 0 {
		c.Timing.SegmentDurationSeconds = defaultSegmentDuration
	}
	if c.Timing.SegmentCacheSize == 0 {
		c.Timing.SegmentCacheSize = defaultSegmentCacheSize
	}
	if c.Timing.SegmentCacheTTLSeconds == 0 {
		c.Timing.SegmentCacheTTLSeconds = defaultSegmentCacheTTLSeconds
	}
	if c.Timing.WordCountCacheSize == 0 {
		c.Timing.WordCountCacheSize = defaultWordCountCacheSize
	}
	if c.Timing.WordCountTTLSeconds == 0 {
		c.Timing.WordCountTTLSeconds = defaultWordCountTTLSeconds
	}
}

func (c *Config) normalizeReader() {
	if c.Reader.DefaultPageSize == 0 {
		c.Reader.DefaultPageSize = defaultPageSize
	}
	if c.Reader.MaxPageSize == 0 {
		c.Reader.MaxPageSize = defaultMaxPageSize
	}
	if c.Reader.TextCacheSize == 0 {
		c.Reader.TextCacheSize = defaultTextCacheSize
	}
	if c.Reader.TextCacheTTLSeconds == 0 {
		c.Reader.TextCacheTTLSeconds = defaultTextCacheTTLSeconds
	}
}

func (c *Config) normalizePlaylist() {
	c.Playlist.FileName = strings.TrimSpace(c.Playlist.FileName)
	if c.Playlist.FileName == "" {
		c.Playlist.FileName = defaultPlaylistFileName
	}
	c.Playlist.SegmentPrefix = strings.TrimSpace(c.Playlist.SegmentPrefix)
	if c.Playlist.SegmentPrefix == "" {
		c.Playlist.SegmentPrefix = defaultSegmentPrefix
	}
	exts := make([]string, 0, len(c.Playlist.SegmentExtensions))
	seen := make(map[string]struct{}, len(c.Playlist.SegmentExtensions))
	for _, ext := range c.Playlist.SegmentExtensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultSegmentExtensions...)
	}
	c.Playlist.SegmentExtensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
