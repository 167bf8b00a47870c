package store

import (
	"context"
	"database/sql"
	"fmt"

	"readalong/internal/services"
)

const wordTimingColumns = "track_id, voice_id, segment_index, format_version, blob, raw_size, word_count, first_word_time, last_word_time, total_duration, updated_at"

// ReplaceWordTimings removes every timing row for (trackID, voiceID) and
// inserts rows in the same transaction.
func (s *Store) ReplaceWordTimings(ctx context.Context, trackID, voiceID string, rows []WordTimingRow) error {
	if voiceID == "" {
		return services.Wrap(services.ErrValidation, "store", "replace word timings", "voice id is required", nil)
	}
	seen := make(map[int]struct{}, len(rows))
	for _, row := range rows {
		if row.SegmentIndex < 0 {
			return services.Wrap(services.ErrValidation, "store", "replace word timings",
				fmt.Sprintf("negative segment index %d", row.SegmentIndex), nil)
		}
		if _, dup := seen[row.SegmentIndex]; dup {
			return services.Wrap(services.ErrValidation, "store", "replace word timings",
				fmt.Sprintf("duplicate segment index %d", row.SegmentIndex), nil)
		}
		seen[row.SegmentIndex] = struct{}{}
	}
	if _, err := s.GetTrack(ctx, trackID); err != nil {
		return err
	}

	now := nowString()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM word_timings WHERE track_id = ? AND voice_id = ?", trackID, voiceID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO word_timings ("+wordTimingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, row := range rows {
			version := row.FormatVersion
			if version == 0 {
				version = 2
			}
			blob := row.Blob
			if blob == nil {
				blob = []byte{}
			}
			if _, err := stmt.ExecContext(ctx, trackID, voiceID, row.SegmentIndex, version, blob, row.RawSize,
				row.WordCount, row.FirstWordTime, row.LastWordTime, row.TotalDuration, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "store", "replace word timings", trackID+"/"+voiceID, err)
	}
	return nil
}

// WordTimings returns timing rows for a voice ordered by segment. A non-nil
// segment restricts the result to that segment.
func (s *Store) WordTimings(ctx context.Context, trackID, voiceID string, segment *int) ([]WordTimingRow, error) {
	query := "SELECT " + wordTimingColumns + " FROM word_timings WHERE track_id = ? AND voice_id = ?"
	args := []any{trackID, voiceID}
	if segment != nil {
		query += " AND segment_index = ?"
		args = append(args, *segment)
	}
	query += " ORDER BY segment_index"

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "word timings", trackID+"/"+voiceID, err)
	}
	defer rows.Close()

	var out []WordTimingRow
	for rows.Next() {
		var (
			row        WordTimingRow
			updatedRaw string
		)
		if err := rows.Scan(&row.TrackID, &row.VoiceID, &row.SegmentIndex, &row.FormatVersion, &row.Blob,
			&row.RawSize, &row.WordCount, &row.FirstWordTime, &row.LastWordTime, &row.TotalDuration, &updatedRaw); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "word timings", "scan", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			row.UpdatedAt = updated
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// WordTimingCount sums the stored word counts for a voice.
func (s *Store) WordTimingCount(ctx context.Context, trackID, voiceID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COALESCE(SUM(word_count), 0) FROM word_timings WHERE track_id = ? AND voice_id = ?",
		trackID, voiceID,
	).Scan(&total)
	if err != nil {
		return 0, services.Wrap(services.ErrIOFailure, "store", "word timing count", trackID+"/"+voiceID, err)
	}
	return total, nil
}

// LegacyTimingVoices lists (track, voice) pairs that still hold rows in an
// older blob format.
func (s *Store) LegacyTimingVoices(ctx context.Context, currentVersion int) ([][2]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT DISTINCT track_id, voice_id FROM word_timings WHERE format_version < ? ORDER BY track_id, voice_id",
		currentVersion)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "legacy timings", "", err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "legacy timings", "scan", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}
