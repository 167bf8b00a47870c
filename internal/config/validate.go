package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateReader(); err != nil {
		return err
	}
	if err := c.validatePlaylist(); err != nil {
		return err
	}
	if c.Workers.CPU < 0 {
		return errors.New("workers.cpu must be >= 0 (0 selects GOMAXPROCS)")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Timing.SegmentDurationSeconds <= 0 {
		return errors.New("timing.segment_duration_seconds must be positive")
	}
	if c.Timing.CompressionLevel < -1 || c.Timing.CompressionLevel > 9 {
		return errors.New("timing.compression_level must be between -1 and 9")
	}
	return ensurePositiveMap(map[string]int{
		"timing.segment_cache_size":        c.Timing.SegmentCacheSize,
		"timing.segment_cache_ttl_seconds": c.Timing.SegmentCacheTTLSeconds,
		"timing.word_count_cache_size":     c.Timing.WordCountCacheSize,
		"timing.word_count_ttl_seconds":    c.Timing.WordCountTTLSeconds,
	})
}

func (c *Config) validateReader() error {
	if err := ensurePositiveMap(map[string]int{
		"reader.default_page_size":      c.Reader.DefaultPageSize,
		"reader.max_page_size":          c.Reader.MaxPageSize,
		"reader.text_cache_size":        c.Reader.TextCacheSize,
		"reader.text_cache_ttl_seconds": c.Reader.TextCacheTTLSeconds,
	}); err != nil {
		return err
	}
	if c.Reader.DefaultPageSize > c.Reader.MaxPageSize {
		return errors.New("reader.default_page_size must not exceed reader.max_page_size")
	}
	return nil
}

func (c *Config) validatePlaylist() error {
	if strings.ContainsAny(c.Playlist.FileName, `/\`) {
		return fmt.Errorf("playlist.file_name %q must be a bare file name", c.Playlist.FileName)
	}
	if !strings.HasSuffix(strings.ToLower(c.Playlist.FileName), ".m3u8") {
		return errors.New("playlist.file_name must end in .m3u8")
	}
	if strings.ContainsAny(c.Playlist.SegmentPrefix, `/\`) {
		return errors.New("playlist.segment_prefix must not contain path separators")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
