package testsupport

import (
	"path/filepath"
	"testing"

	"readalong/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSegmentDuration overrides the timeline segment length in seconds.
func WithSegmentDuration(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timing.SegmentDurationSeconds = seconds
	}
}

// WithPageSize overrides the default reader page size.
func WithPageSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reader.DefaultPageSize = size
	}
}

// WithCacheTTLSeconds sets every cache TTL to seconds.
func WithCacheTTLSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Timing.SegmentCacheTTLSeconds = seconds
		b.cfg.Timing.WordCountTTLSeconds = seconds
		b.cfg.Reader.TextCacheTTLSeconds = seconds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
