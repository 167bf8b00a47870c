package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"readalong/internal/services"
)

// ReplaceTextSegments swaps the track's text segments for segs in one
// transaction. Indexes must be contiguous from zero.
func (s *Store) ReplaceTextSegments(ctx context.Context, trackID string, segs []TextSegment) error {
	for i, seg := range segs {
		if seg.SegmentIndex != i {
			return services.Wrap(services.ErrValidation, "store", "replace text segments",
				fmt.Sprintf("segment %d has index %d", i, seg.SegmentIndex), nil)
		}
		if seg.EndTime < seg.StartTime {
			return services.Wrap(services.ErrValidation, "store", "replace text segments",
				fmt.Sprintf("segment %d ends before it starts", i), nil)
		}
		if i > 0 && seg.StartTime < segs[i-1].EndTime {
			return services.Wrap(services.ErrValidation, "store", "replace text segments",
				fmt.Sprintf("segment %d overlaps its predecessor", i), nil)
		}
	}
	if _, err := s.GetTrack(ctx, trackID); err != nil {
		return err
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM text_segments WHERE track_id = ?", trackID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO text_segments
			(track_id, segment_index, start_time, end_time, duration, text_blob, word_count, preview_text)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, seg := range segs {
			if _, err := stmt.ExecContext(ctx, trackID, seg.SegmentIndex, seg.StartTime, seg.EndTime,
				seg.Duration, seg.TextBlob, seg.WordCount, seg.PreviewText); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "store", "replace text segments", trackID, err)
	}
	return nil
}

// ListTextSegments returns a track's text segments ordered by index.
func (s *Store) ListTextSegments(ctx context.Context, trackID string) ([]TextSegment, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT track_id, segment_index, start_time, end_time,
		duration, text_blob, word_count, preview_text FROM text_segments WHERE track_id = ? ORDER BY segment_index`, trackID)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "list text segments", trackID, err)
	}
	defer rows.Close()

	var segs []TextSegment
	for rows.Next() {
		var seg TextSegment
		if err := rows.Scan(&seg.TrackID, &seg.SegmentIndex, &seg.StartTime, &seg.EndTime,
			&seg.Duration, &seg.TextBlob, &seg.WordCount, &seg.PreviewText); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "list text segments", "scan", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

// TrackSourceText returns the track's inline source text, or the joined text
// of its segments when no inline copy was stored.
func (s *Store) TrackSourceText(ctx context.Context, trackID string) (string, error) {
	track, err := s.GetTrack(ctx, trackID)
	if err != nil {
		return "", err
	}
	if track.SourceText != "" {
		return track.SourceText, nil
	}
	segs, err := s.ListTextSegments(ctx, trackID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, seg := range segs {
		text, err := DecompressText(seg.TextBlob)
		if err != nil {
			return "", fmt.Errorf("segment %d: %w", seg.SegmentIndex, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
