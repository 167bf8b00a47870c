package playlist

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"readalong/internal/logging"
	"readalong/internal/services"
	"readalong/internal/store"
)

// SegmentRecorder persists the audio segment rows behind a voice's playlist.
// A DurationSource that also implements it gets a row per expected segment
// whenever a playlist is written, and an empty set after cleanup.
type SegmentRecorder interface {
	ReplaceVoiceSegments(ctx context.Context, trackID, voiceID string, segs []store.VoiceSegment) error
}

// voiceSegmentRows marks segments with a file on disk ready and the rest
// pending.
func voiceSegmentRows(trackID, voiceID, dir string, names []string, durations []float64, present map[int]string) []store.VoiceSegment {
	rows := make([]store.VoiceSegment, len(names))
	for i, name := range names {
		status := store.VoiceSegmentPending
		if _, ok := present[i]; ok {
			status = store.VoiceSegmentReady
		}
		rows[i] = store.VoiceSegment{
			TrackID:      trackID,
			VoiceID:      voiceID,
			SegmentIndex: i,
			Path:         filepath.Join(dir, name),
			Duration:     durations[i],
			Status:       status,
		}
	}
	return rows
}

func (b *Builder) recordSegments(ctx context.Context, logger *slog.Logger, trackID, voiceID string, rows []store.VoiceSegment) {
	rec, ok := b.durations.(SegmentRecorder)
	if !ok {
		return
	}
	err := rec.ReplaceVoiceSegments(ctx, trackID, voiceID, rows)
	if err == nil || errors.Is(err, services.ErrNotFound) {
		return
	}
	logging.WarnWithContext(logger, "failed to record voice segments", "voice_segments_record_failed",
		logging.Int("segments", len(rows)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run playlist cleanup and ensure again"),
		logging.String(logging.FieldImpact, "track details may report stale audio segments"),
	)
}
