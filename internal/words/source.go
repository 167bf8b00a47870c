// Package words supplies decoded word timings and source text to the lookup
// and reader layers.
package words

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"readalong/internal/logging"
	"readalong/internal/metrics"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/timing"
	"readalong/internal/workpool"
)

// Source fetches raw word timings and text for a (track, voice) pair.
type Source interface {
	// FetchRawWords returns the words of one segment, or the whole voice when
	// segment is nil, ordered by start time.
	FetchRawWords(ctx context.Context, trackID, voiceID string, segment *int) ([]timing.Word, error)
	// CountWords returns the total timed words stored for the voice.
	CountWords(ctx context.Context, trackID, voiceID string) (int, error)
	// SourceText returns the full text the voice narrates.
	SourceText(ctx context.Context, trackID string) (string, error)
}

// RangeFetcher is implemented by sources that can return a window of words
// without decoding the whole voice.
type RangeFetcher interface {
	FetchRange(ctx context.Context, trackID, voiceID string, offset, limit int) ([]timing.Word, error)
}

// FetchRange returns up to limit words starting at the global word offset.
func FetchRange(ctx context.Context, src Source, trackID, voiceID string, offset, limit int) ([]timing.Word, error) {
	if offset < 0 || limit < 0 {
		return nil, services.Wrap(services.ErrValidation, "words", "fetch range", "offset and limit must be >= 0", nil)
	}
	if rf, ok := src.(RangeFetcher); ok {
		return rf.FetchRange(ctx, trackID, voiceID, offset, limit)
	}
	all, err := src.FetchRawWords(ctx, trackID, voiceID, nil)
	if err != nil {
		return nil, err
	}
	return window(all, offset, limit), nil
}

func window(all []timing.Word, offset, limit int) []timing.Word {
	if offset >= len(all) || limit == 0 {
		return []timing.Word{}
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

// StoreSource reads timing blobs from the SQLite store.
type StoreSource struct {
	store   *store.Store
	pool    *workpool.Pool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewStoreSource wires a store-backed Source. pool and m may be nil.
func NewStoreSource(st *store.Store, pool *workpool.Pool, logger *slog.Logger, m *metrics.Metrics) *StoreSource {
	return &StoreSource{
		store:   st,
		pool:    pool,
		logger:  logging.NewComponentLogger(logger, "words"),
		metrics: m,
	}
}

// FetchRawWords implements Source.
func (s *StoreSource) FetchRawWords(ctx context.Context, trackID, voiceID string, segment *int) ([]timing.Word, error) {
	if err := s.requireVoice(ctx, "fetch raw words", trackID, voiceID); err != nil {
		return nil, err
	}
	rows, err := s.store.WordTimings(ctx, trackID, voiceID, segment)
	if err != nil {
		return nil, err
	}
	out := []timing.Word{}
	for _, row := range rows {
		decoded, err := s.decode(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

// FetchRange implements RangeFetcher using the stored per-row word counts to
// skip blobs outside the window.
func (s *StoreSource) FetchRange(ctx context.Context, trackID, voiceID string, offset, limit int) ([]timing.Word, error) {
	if err := s.requireVoice(ctx, "fetch range", trackID, voiceID); err != nil {
		return nil, err
	}
	rows, err := s.store.WordTimings(ctx, trackID, voiceID, nil)
	if err != nil {
		return nil, err
	}
	out := []timing.Word{}
	if limit == 0 {
		return out, nil
	}
	end := offset + limit
	base := 0
	for _, row := range rows {
		rowEnd := base + row.WordCount
		if rowEnd <= offset {
			base = rowEnd
			continue
		}
		if base >= end {
			break
		}
		decoded, err := s.decode(ctx, row)
		if err != nil {
			return nil, err
		}
		if len(decoded) != row.WordCount {
			logging.WarnWithContext(s.logger, "timing row word count disagrees with blob", "timing_aggregate_drift",
				logging.Track(trackID),
				logging.Voice(voiceID),
				logging.Segment(row.SegmentIndex),
				logging.Int("stored_count", row.WordCount),
				logging.Int("decoded_count", len(decoded)),
				logging.String(logging.FieldErrorHint, "re-ingest the voice timings"),
				logging.String(logging.FieldImpact, "page boundaries may shift"),
			)
		}
		lo := max(offset-base, 0)
		hi := min(end-base, len(decoded))
		if lo < hi {
			out = append(out, decoded[lo:hi]...)
		}
		base += len(decoded)
	}
	return out, nil
}

// CountWords implements Source from the stored aggregates.
func (s *StoreSource) CountWords(ctx context.Context, trackID, voiceID string) (int, error) {
	if err := s.requireVoice(ctx, "count words", trackID, voiceID); err != nil {
		return 0, err
	}
	return s.store.WordTimingCount(ctx, trackID, voiceID)
}

// requireVoice fails with ErrNotFound for an unknown track, or for a voice
// that has neither timings nor audio segments on the track.
func (s *StoreSource) requireVoice(ctx context.Context, op, trackID, voiceID string) error {
	if _, err := s.store.GetTrack(ctx, trackID); err != nil {
		return err
	}
	ok, err := s.store.HasVoice(ctx, trackID, voiceID)
	if err != nil {
		return err
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "words", op, fmt.Sprintf("voice %q on track %q", voiceID, trackID), nil)
	}
	return nil
}

// SourceText implements Source.
func (s *StoreSource) SourceText(ctx context.Context, trackID string) (string, error) {
	return s.store.TrackSourceText(ctx, trackID)
}

// decode unpacks one row. Corrupt and legacy blobs surface as ErrUnavailable
// so readers degrade to untimed output; the blob itself is left untouched.
func (s *StoreSource) decode(ctx context.Context, row store.WordTimingRow) ([]timing.Word, error) {
	decoded, err := workpool.Do(ctx, s.pool, func() ([]timing.Word, error) {
		return timing.Unpack(row.Blob)
	})
	if err == nil {
		s.metrics.ObserveDecode("ok")
		return decoded, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	attrs := []logging.Attr{
		logging.Track(row.TrackID),
		logging.Voice(row.VoiceID),
		logging.Segment(row.SegmentIndex),
		logging.Error(err),
	}
	switch {
	case errors.Is(err, timing.ErrLegacyFormat):
		s.metrics.ObserveDecode("legacy")
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "run 'readalong migrate-legacy'"),
			logging.String(logging.FieldImpact, "voice served without word highlighting"),
		)
		logging.WarnWithContext(s.logger, "legacy timing blob needs migration", "timing_blob_legacy", attrs...)
		return nil, err
	case errors.Is(err, services.ErrCorrupt):
		s.metrics.ObserveDecode("corrupt")
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "re-ingest timings for this voice"),
			logging.String(logging.FieldImpact, "voice served without word highlighting"),
			logging.Alert("corrupt_timing_blob"),
		)
		logging.WarnWithContext(s.logger, "corrupt timing blob", "timing_blob_corrupt", attrs...)
		return nil, services.Wrap(services.ErrUnavailable, "words", "decode", "timing blob unreadable", err)
	default:
		return nil, err
	}
}
