package ingest

import (
	"context"

	"readalong/internal/logging"
	"readalong/internal/services"
	"readalong/internal/store"
	"readalong/internal/timing"
	"readalong/internal/workpool"
)

// MigrateLegacy re-encodes the voice's legacy-layout blobs in the current
// layout. Segment metadata comes from the row, word indexes from the running
// count of earlier rows. Current rows are kept as stored.
func (s *Service) MigrateLegacy(ctx context.Context, trackID, voiceID string) (MigrationSummary, error) {
	summary := MigrationSummary{TrackID: trackID, VoiceID: voiceID}
	if voiceID == "" {
		return summary, services.Wrap(services.ErrValidation, "ingest", "migrate legacy", "voice id is required", nil)
	}
	if err := validateIDs(trackID, voiceID); err != nil {
		return summary, err
	}
	ctx = services.WithVoiceID(services.WithTrackID(ctx, trackID), voiceID)

	unlock, err := s.lock(ctx, trackID, voiceID, "ingest")
	if err != nil {
		return summary, err
	}
	defer unlock()

	rows, err := s.store.WordTimings(ctx, trackID, voiceID, nil)
	if err != nil {
		return summary, err
	}
	base := 0
	for i, row := range rows {
		if row.FormatVersion >= int(timing.VersionCurrent) {
			base += row.WordCount
			continue
		}
		migrated, err := s.migrateRow(ctx, row, base)
		if err != nil {
			return summary, err
		}
		rows[i] = migrated
		base += migrated.WordCount
		summary.RowsMigrated++
		summary.Words += migrated.WordCount
	}
	if summary.RowsMigrated == 0 {
		return summary, nil
	}

	if err := s.store.ReplaceWordTimings(ctx, trackID, voiceID, rows); err != nil {
		return summary, err
	}
	s.invalidate(trackID, voiceID)

	logging.WithContext(ctx, s.logger).Info("legacy timings migrated",
		logging.String(logging.FieldEventType, "timing_migrated"),
		logging.Int("rows", summary.RowsMigrated),
		logging.Int("words", summary.Words),
	)
	return summary, nil
}

func (s *Service) migrateRow(ctx context.Context, row store.WordTimingRow, base int) (store.WordTimingRow, error) {
	words, err := workpool.Do(ctx, s.pool, func() ([]timing.Word, error) {
		return timing.Unpack(row.Blob, timing.AllowLegacy())
	})
	if err != nil {
		return row, services.Wrap(services.ErrCorrupt, "ingest", "migrate legacy", "decode legacy blob", err)
	}
	for i := range words {
		words[i].SegmentIndex = timing.IntPtr(row.SegmentIndex)
		words[i].SegmentOffset = max(0, words[i].StartTime-float64(row.SegmentIndex)*s.segDur)
		words[i].WordIndex = base + i
	}
	enc, err := workpool.Do(ctx, s.pool, func() (timing.Encoded, error) {
		return s.codec.Pack(words)
	})
	if err != nil {
		return row, err
	}
	row.FormatVersion = int(timing.VersionCurrent)
	row.Blob = enc.Blob
	row.RawSize = enc.RawSize
	row.Aggregates = enc.Aggregates
	return row, nil
}

// MigrateAll migrates every voice that still holds legacy blobs. It stops at
// the first failure and returns the summaries completed so far.
func (s *Service) MigrateAll(ctx context.Context) ([]MigrationSummary, error) {
	pairs, err := s.store.LegacyTimingVoices(ctx, int(timing.VersionCurrent))
	if err != nil {
		return nil, err
	}
	out := make([]MigrationSummary, 0, len(pairs))
	for _, pair := range pairs {
		summary, err := s.MigrateLegacy(ctx, pair[0], pair[1])
		if err != nil {
			return out, err
		}
		out = append(out, summary)
	}
	return out, nil
}
