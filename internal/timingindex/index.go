package timingindex

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"readalong/internal/config"
	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/timing"
	"readalong/internal/words"
)

// Lookup statuses.
const (
	StatusFound             = "found"
	StatusNotFoundInSegment = "not_found_in_segment"
	StatusNoWordsInSegment  = "no_words_in_segment"
	StatusError             = "error"
)

const (
	segmentsCache            = "segments"
	wordCountCache           = "word_counts"
	defaultSegmentDuration   = 30.0
	defaultSegmentCacheSize  = 2048
	defaultWordCountCacheLen = 1024
)

// LookupResult is the outcome of a word-at-time query. Pointer fields are nil
// when no word was selected.
type LookupResult struct {
	WordIndex    *int     `json:"word_index"`
	SegmentIndex *int     `json:"segment_index"`
	Word         string   `json:"word,omitempty"`
	StartTime    *float64 `json:"start_time"`
	EndTime      *float64 `json:"end_time"`
	Status       string   `json:"status"`
	Error        string   `json:"error,omitempty"`
	ErrorKind    string   `json:"error_kind,omitempty"`
}

// Options configures an Index.
type Options struct {
	SegmentDuration  float64
	SegmentCacheSize int
	SegmentCacheTTL  time.Duration
	CountCacheSize   int
	CountCacheTTL    time.Duration
}

// OptionsFromConfig maps the timing config section onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SegmentDuration:  cfg.Timing.SegmentDurationSeconds,
		SegmentCacheSize: cfg.Timing.SegmentCacheSize,
		SegmentCacheTTL:  cfg.SegmentCacheTTL(),
		CountCacheSize:   cfg.Timing.WordCountCacheSize,
		CountCacheTTL:    cfg.WordCountTTL(),
	}
}

type pairKey struct {
	track string
	voice string
}

type segmentKey struct {
	pairKey
	segment int
}

// Index is a process-owned lookup engine. Create one per process and share it.
type Index struct {
	src     words.Source
	segDur  float64
	logger  *slog.Logger
	metrics *metrics.Metrics

	segments *expirable.LRU[segmentKey, []timing.Word]
	counts   *expirable.LRU[pairKey, int]
	group    singleflight.Group

	// generation changes on every invalidation; fetches that started under an
	// older generation do not populate the cache.
	generation atomic.Uint64
}

// New builds an Index over src.
func New(src words.Source, opts Options, logger *slog.Logger, m *metrics.Metrics) *Index {
	if opts.SegmentDuration <= 0 {
		opts.SegmentDuration = defaultSegmentDuration
	}
	if opts.SegmentCacheSize <= 0 {
		opts.SegmentCacheSize = defaultSegmentCacheSize
	}
	if opts.CountCacheSize <= 0 {
		opts.CountCacheSize = defaultWordCountCacheLen
	}
	return &Index{
		src:      src,
		segDur:   opts.SegmentDuration,
		logger:   logging.NewComponentLogger(logger, "timingindex"),
		metrics:  m,
		segments: expirable.NewLRU[segmentKey, []timing.Word](opts.SegmentCacheSize, nil, opts.SegmentCacheTTL),
		counts:   expirable.NewLRU[pairKey, int](opts.CountCacheSize, nil, opts.CountCacheTTL),
	}
}

// SegmentDuration returns the timeline segment length in seconds.
func (ix *Index) SegmentDuration() float64 {
	return ix.segDur
}

// SegmentFor maps a timestamp to its segment index.
func (ix *Index) SegmentFor(t float64) int {
	return int(math.Floor(t / ix.segDur))
}

// Lookup finds the word spoken at t seconds. It never returns an error;
// failures are reported through Status and Error.
func (ix *Index) Lookup(ctx context.Context, trackID, voiceID string, t float64) LookupResult {
	started := time.Now()
	result := ix.lookup(ctx, trackID, voiceID, t)
	ix.metrics.ObserveLookup(result.Status, time.Since(started))
	return result
}

func (ix *Index) lookup(ctx context.Context, trackID, voiceID string, t float64) LookupResult {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return LookupResult{Status: StatusError, Error: fmt.Sprintf("invalid time %v: must be a finite value >= 0", t)}
	}
	segment := ix.SegmentFor(t)
	result := LookupResult{SegmentIndex: &segment}

	segWords, err := ix.segmentWords(ctx, trackID, voiceID, segment)
	if err != nil {
		logging.WithContext(ctx, ix.logger).Debug("lookup failed",
			logging.Track(trackID),
			logging.Voice(voiceID),
			logging.Segment(segment),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		result.Status = StatusError
		result.Error = err.Error()
		result.ErrorKind = services.Kind(err)
		return result
	}
	if len(segWords) == 0 {
		result.Status = StatusNoWordsInSegment
		return result
	}

	i := Search(segWords, t)
	if i < 0 {
		result.Status = StatusNotFoundInSegment
		return result
	}
	w := segWords[i]
	result.Status = StatusFound
	result.WordIndex = &w.WordIndex
	result.Word = w.Word
	result.StartTime = &w.StartTime
	result.EndTime = &w.EndTime
	return result
}

// Search returns the index of the word active at t in a start-sorted slice:
// the word whose [start, end) holds t, otherwise the last word starting at or
// before t. It returns -1 when t precedes every word.
func Search(ws []timing.Word, t float64) int {
	last := sort.Search(len(ws), func(i int) bool { return ws[i].StartTime > t }) - 1
	if last < 0 {
		return -1
	}
	if ws[last].Contains(t) {
		return last
	}
	// t is past the end of the latest-starting word; a longer predecessor that
	// overlaps it may still be sounding.
	if last > 0 && ws[last-1].Contains(t) {
		return last - 1
	}
	return last
}

func (ix *Index) segmentWords(ctx context.Context, trackID, voiceID string, segment int) ([]timing.Word, error) {
	key := segmentKey{pairKey: pairKey{track: trackID, voice: voiceID}, segment: segment}
	if cached, ok := ix.segments.Get(key); ok {
		ix.metrics.CacheHit(segmentsCache)
		return cached, nil
	}
	ix.metrics.CacheMiss(segmentsCache)

	gen := ix.generation.Load()
	flightKey := fmt.Sprintf("seg\x00%s\x00%s\x00%d", trackID, voiceID, segment)
	v, err, _ := ix.group.Do(flightKey, func() (any, error) {
		fetched, err := ix.overlapping(ctx, trackID, voiceID, segment)
		if err != nil {
			return nil, err
		}
		if ix.generation.Load() == gen {
			ix.segments.Add(key, fetched)
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]timing.Word), nil
}

// overlapping returns the words sounding within [segment*dur, (segment+1)*dur).
// Rows are bucketed by start time, so words that start in the previous segment
// and run past the boundary are carried over ahead of the segment's own words.
// Words longer than a whole segment are not carried further back.
func (ix *Index) overlapping(ctx context.Context, trackID, voiceID string, segment int) ([]timing.Word, error) {
	own, err := ix.src.FetchRawWords(ctx, trackID, voiceID, &segment)
	if err != nil || segment == 0 {
		return own, err
	}
	prev := segment - 1
	before, err := ix.src.FetchRawWords(ctx, trackID, voiceID, &prev)
	if err != nil {
		return nil, err
	}
	boundary := float64(segment) * ix.segDur
	var carried []timing.Word
	for _, w := range before {
		if w.EndTime > boundary {
			carried = append(carried, w)
		}
	}
	if len(carried) == 0 {
		return own, nil
	}
	return append(carried, own...), nil
}

// TotalWordCount returns the number of timed words for the voice, cached
// separately from segment arrays.
func (ix *Index) TotalWordCount(ctx context.Context, trackID, voiceID string) (int, error) {
	key := pairKey{track: trackID, voice: voiceID}
	if n, ok := ix.counts.Get(key); ok {
		ix.metrics.CacheHit(wordCountCache)
		return n, nil
	}
	ix.metrics.CacheMiss(wordCountCache)

	gen := ix.generation.Load()
	v, err, _ := ix.group.Do("count\x00"+trackID+"\x00"+voiceID, func() (any, error) {
		n, err := ix.src.CountWords(ctx, trackID, voiceID)
		if err != nil {
			return 0, err
		}
		if ix.generation.Load() == gen {
			ix.counts.Add(key, n)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Invalidate drops every cached entry for (trackID, voiceID). An empty voiceID
// drops every voice of the track.
func (ix *Index) Invalidate(trackID, voiceID string) int {
	ix.generation.Add(1)
	removed := 0
	for _, key := range ix.segments.Keys() {
		if key.track == trackID && (voiceID == "" || key.voice == voiceID) {
			if ix.segments.Remove(key) {
				removed++
			}
		}
	}
	ix.metrics.CacheInvalidated(segmentsCache, removed)

	countRemoved := 0
	for _, key := range ix.counts.Keys() {
		if key.track == trackID && (voiceID == "" || key.voice == voiceID) {
			if ix.counts.Remove(key) {
				countRemoved++
			}
		}
	}
	ix.metrics.CacheInvalidated(wordCountCache, countRemoved)
	return removed + countRemoved
}

// Clear empties both caches.
func (ix *Index) Clear() {
	ix.generation.Add(1)
	n := ix.segments.Len()
	ix.segments.Purge()
	ix.metrics.CacheInvalidated(segmentsCache, n)
	n = ix.counts.Len()
	ix.counts.Purge()
	ix.metrics.CacheInvalidated(wordCountCache, n)
}

// CachedSegments reports how many segment arrays are cached.
func (ix *Index) CachedSegments() int {
	return ix.segments.Len()
}
