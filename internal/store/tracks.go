package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"readalong/internal/services"
)

const trackColumns = "id, title, source_text, total_duration, created_at, updated_at"

// CreateTrack inserts a new track. IDs must be unique.
func (s *Store) CreateTrack(ctx context.Context, track Track) (*Track, error) {
	track.ID = strings.TrimSpace(track.ID)
	if track.ID == "" {
		return nil, services.Wrap(services.ErrValidation, "store", "create track", "track id is required", nil)
	}
	if track.TotalDuration < 0 {
		return nil, services.Wrap(services.ErrValidation, "store", "create track", "total duration must be >= 0", nil)
	}
	now := nowString()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM tracks WHERE id = ?", track.ID).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			return services.Wrap(services.ErrValidation, "store", "create track", fmt.Sprintf("track %q already exists", track.ID), nil)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (id, title, source_text, total_duration, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			track.ID, track.Title, track.SourceText, track.TotalDuration, now, now,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrIOFailure, "store", "create track", track.ID, err)
	}
	return s.GetTrack(ctx, track.ID)
}

// GetTrack returns the track or an ErrNotFound-marked error.
func (s *Store) GetTrack(ctx context.Context, id string) (*Track, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+trackColumns+" FROM tracks WHERE id = ?", id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "get track", fmt.Sprintf("track %q", id), nil)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "get track", id, err)
	}
	return track, nil
}

// ListTracks returns every track ordered by id.
func (s *Store) ListTracks(ctx context.Context) ([]*Track, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), "SELECT "+trackColumns+" FROM tracks ORDER BY id")
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "list tracks", "", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "list tracks", "scan", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// DeleteTrack removes a track and, through cascades, every row that hangs off it.
// It reports whether a track was removed.
func (s *Store) DeleteTrack(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM tracks WHERE id = ?", id)
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "store", "delete track", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "store", "delete track", id, err)
	}
	return n > 0, nil
}

// TrackDuration returns the total narrated duration of a track in seconds.
func (s *Store) TrackDuration(ctx context.Context, id string) (float64, error) {
	track, err := s.GetTrack(ctx, id)
	if err != nil {
		return 0, err
	}
	return track.TotalDuration, nil
}

// SetTrackDuration overwrites the track's total duration.
func (s *Store) SetTrackDuration(ctx context.Context, id string, duration float64) error {
	if duration < 0 {
		return services.Wrap(services.ErrValidation, "store", "set duration", "duration must be >= 0", nil)
	}
	return s.updateTrack(ctx, "set duration", id,
		"UPDATE tracks SET total_duration = ?, updated_at = ? WHERE id = ?", duration, nowString(), id)
}

// ExtendTrackDuration raises the total duration to at least duration.
func (s *Store) ExtendTrackDuration(ctx context.Context, id string, duration float64) error {
	return s.updateTrack(ctx, "extend duration", id,
		"UPDATE tracks SET total_duration = MAX(total_duration, ?), updated_at = ? WHERE id = ?", duration, nowString(), id)
}

// SetTrackSourceText replaces the inline source text of a track.
func (s *Store) SetTrackSourceText(ctx context.Context, id, text string) error {
	return s.updateTrack(ctx, "set source text", id,
		"UPDATE tracks SET source_text = ?, updated_at = ? WHERE id = ?", text, nowString(), id)
}

func (s *Store) updateTrack(ctx context.Context, op, id, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return services.Wrap(services.ErrIOFailure, "store", op, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "store", op, fmt.Sprintf("track %q", id), nil)
	}
	return nil
}

// TrackVoices lists voice ids that have timings or audio segments for a track.
func (s *Store) TrackVoices(ctx context.Context, trackID string) ([]string, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT voice_id FROM word_timings WHERE track_id = ?
		UNION
		SELECT voice_id FROM voice_segments WHERE track_id = ?
		ORDER BY voice_id`, trackID, trackID)
	if err != nil {
		return nil, services.Wrap(services.ErrIOFailure, "store", "track voices", trackID, err)
	}
	defer rows.Close()

	var voices []string
	for rows.Next() {
		var voice string
		if err := rows.Scan(&voice); err != nil {
			return nil, services.Wrap(services.ErrIOFailure, "store", "track voices", "scan", err)
		}
		voices = append(voices, voice)
	}
	return voices, rows.Err()
}

// HasVoice reports whether a voice has timing or audio segment rows for a track.
func (s *Store) HasVoice(ctx context.Context, trackID, voiceID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT EXISTS (SELECT 1 FROM word_timings WHERE track_id = ? AND voice_id = ?)
			OR EXISTS (SELECT 1 FROM voice_segments WHERE track_id = ? AND voice_id = ?)`,
		trackID, voiceID, trackID, voiceID).Scan(&exists)
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "store", "has voice", trackID+"/"+voiceID, err)
	}
	return exists, nil
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track      Track
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&track.ID, &track.Title, &track.SourceText, &track.TotalDuration, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		track.UpdatedAt = updated
	}
	return &track, nil
}
