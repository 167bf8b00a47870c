package playlist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"readalong/internal/config"
	"readalong/internal/keylock"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/textutil"
)

// Cleanup statuses.
const (
	CleanupCleaned        = "cleaned"
	CleanupNothingToClean = "nothing_to_clean"
	CleanupPartial        = "partial"
)

// DurationSource reports a track's total narrated duration in seconds.
type DurationSource interface {
	TrackDuration(ctx context.Context, trackID string) (float64, error)
}

// Status describes the playlist state of a voice.
type Status struct {
	SegmentCount     int    `json:"segment_count"`
	ExpectedSegments int    `json:"expected_segments"`
	PlaylistExists   bool   `json:"playlist_exists"`
	Ready            bool   `json:"ready"`
	PlaylistPath     string `json:"playlist_path"`
}

// CleanupResult summarizes a voice cleanup.
type CleanupResult struct {
	Status          string   `json:"status"`
	SegmentsRemoved int      `json:"segments_removed"`
	PlaylistRemoved bool     `json:"playlist_removed"`
	Failures        []string `json:"failures,omitempty"`
	BytesFreed      int64    `json:"bytes_freed"`
}

// Options configures a Builder.
type Options struct {
	AudioRoot         string
	LockDir           string
	SegmentDuration   float64
	FileName          string
	SegmentPrefix     string
	SegmentExtensions []string
}

// OptionsFromConfig maps config onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AudioRoot:         cfg.Paths.AudioDir,
		LockDir:           cfg.LockDir(),
		SegmentDuration:   cfg.Timing.SegmentDurationSeconds,
		FileName:          cfg.Playlist.FileName,
		SegmentPrefix:     cfg.Playlist.SegmentPrefix,
		SegmentExtensions: cfg.Playlist.SegmentExtensions,
	}
}

// Builder manages playlists under one audio root.
type Builder struct {
	opts      Options
	durations DurationSource
	locks     *keylock.FileLocker
	segmentRe *regexp.Regexp
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New validates opts and returns a Builder.
func New(opts Options, durations DurationSource, logger *slog.Logger, m *metrics.Metrics) (*Builder, error) {
	if opts.AudioRoot == "" {
		return nil, errors.New("playlist builder requires an audio root")
	}
	if opts.SegmentDuration <= 0 {
		return nil, fmt.Errorf("segment duration %v must be positive", opts.SegmentDuration)
	}
	if opts.FileName == "" {
		opts.FileName = "playlist.m3u8"
	}
	if opts.SegmentPrefix == "" {
		opts.SegmentPrefix = "segment_"
	}
	if len(opts.SegmentExtensions) == 0 {
		opts.SegmentExtensions = []string{"ts"}
	}
	if opts.LockDir == "" {
		opts.LockDir = filepath.Join(opts.AudioRoot, ".locks")
	}
	exts := make([]string, 0, len(opts.SegmentExtensions))
	for _, ext := range opts.SegmentExtensions {
		exts = append(exts, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(opts.SegmentPrefix) + `(\d+)\.(` + strings.Join(exts, "|") + `)$`)

	return &Builder{
		opts:      opts,
		durations: durations,
		locks:     keylock.NewFileLocker(opts.LockDir),
		segmentRe: re,
		logger:    logging.NewComponentLogger(logger, "playlist"),
		metrics:   m,
	}, nil
}

// VoiceDir returns the directory holding a voice's audio.
func (b *Builder) VoiceDir(trackID, voiceID string) (string, error) {
	if err := textutil.ValidateID("track", trackID); err != nil {
		return "", services.Wrap(services.ErrValidation, "playlist", "voice dir", err.Error(), nil)
	}
	if err := textutil.ValidateID("voice", voiceID); err != nil {
		return "", services.Wrap(services.ErrValidation, "playlist", "voice dir", err.Error(), nil)
	}
	return filepath.Join(b.opts.AudioRoot, trackID, voiceID), nil
}

// PlaylistPath returns where the voice's playlist lives.
func (b *Builder) PlaylistPath(trackID, voiceID string) (string, error) {
	dir, err := b.VoiceDir(trackID, voiceID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, b.opts.FileName), nil
}

// SegmentName formats the file name of segment index with ext.
func (b *Builder) SegmentName(index int, ext string) string {
	return fmt.Sprintf("%s%03d.%s", b.opts.SegmentPrefix, index, strings.TrimPrefix(ext, "."))
}

type segmentFile struct {
	index int
	name  string
	ext   string
}

// segments lists recognised segment files ordered by index. When two files
// share an index the extension listed first in config wins.
func (b *Builder) segments(dir string) ([]segmentFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(b.opts.SegmentExtensions))
	for i, ext := range b.opts.SegmentExtensions {
		rank[strings.TrimPrefix(ext, ".")] = i
	}
	byIndex := make(map[int]segmentFile)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		m := b.segmentRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		sf := segmentFile{index: idx, name: entry.Name(), ext: m[2]}
		if prev, ok := byIndex[idx]; ok && rank[prev.ext] <= rank[sf.ext] {
			continue
		}
		byIndex[idx] = sf
	}
	out := make([]segmentFile, 0, len(byIndex))
	for _, sf := range byIndex {
		out = append(out, sf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out, nil
}

func lockKey(trackID, voiceID string) string {
	return trackID + "@" + voiceID + ".playlist"
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
