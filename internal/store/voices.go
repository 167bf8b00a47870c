package store

import (
	"context"
	"database/sql"
	"fmt"

	"readalong/internal/services"
)

// ReplaceVoiceSegments swaps the audio segment rows for a voice.
func (s *Store) ReplaceVoiceSegments(ctx context.Context, trackID, voiceID string, segs []VoiceSegment) error {
	for i, seg := range segs {
		status := seg.Status
		if status == "" {
			status = VoiceSegmentPending
		}
		if !status.Valid() {
			return services.Wrap(services.ErrValidation, "store", "replace voice segments",
				fmt.Sprintf("segment %d has invalid status %q", i, seg.Status), nil)
		}
		if seg.Duration < 0 {
			return services.Wrap(services.ErrValidation, "store", "replace voice segments",
				fmt.Sprintf("segment %d has negative duration", i), nil)
		}
	}
	if _, err := s.GetTrack(ctx, trackID); err != nil {
		return err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM voice_segments WHERE track_id = ? AND voice_id = ?", trackID, voiceID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO voice_segments
			(track_id, voice_id, segment_index, path, duration, status) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, seg := range segs {
			status := seg.Status
			if status == "" {
				status = VoiceSegmentPending
			}
			if _, err := stmt.ExecContext(ctx, trackID, voiceID, seg.SegmentIndex, seg.Path, seg.Duration, string(status)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "store", "replace voice segments", trackID+"/"+voiceID, err)
	}
	return nil
}

// VoiceSegments returns the audio segment rows for a voice ordered by index.
func (s *Store) VoiceSegments(ctx context.Context, trackID, voiceID string) ([]VoiceSegment, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT track_id, voice_id, segment_index, path, duration, status
		FROM voice_segments WHERE track_id = ? AND voice_id = ? ORDER BY segment_index`, trackID, voiceID)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "voice segments", trackID+"/"+voiceID, err)
	}
	defer rows.Close()

	var segs []VoiceSegment
	for rows.Next() {
		var (
			seg    VoiceSegment
			status string
		)
		if err := rows.Scan(&seg.TrackID, &seg.VoiceID, &seg.SegmentIndex, &seg.Path, &seg.Duration, &status); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "voice segments", "scan", err)
		}
		seg.Status = VoiceSegmentStatus(status)
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}
