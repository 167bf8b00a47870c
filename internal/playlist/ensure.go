package playlist

import (
	"context"

	"readalong/internal/fileutil"
	"readalong/internal/logging"
	"readalong/internal/services"
)

// EnsurePlaylist writes the voice's playlist when it is missing and the
// preconditions hold: at least one segment file on disk and a positive track
// duration. It reports whether a playlist exists afterwards. An existing
// playlist is never rewritten.
func (b *Builder) EnsurePlaylist(ctx context.Context, trackID, voiceID string) (bool, error) {
	path, err := b.PlaylistPath(trackID, voiceID)
	if err != nil {
		return false, err
	}
	if exists, err := fileExists(path); err != nil {
		return false, services.Wrap(services.ErrIOFailure, "playlist", "ensure", "stat playlist", err)
	} else if exists {
		b.metrics.ObservePlaylist("ensure", "exists")
		return true, nil
	}

	unlock, err := b.locks.Lock(ctx, lockKey(trackID, voiceID))
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "playlist", "ensure", "lock voice directory", err)
	}
	defer unlock()

	created, err := b.ensureLocked(ctx, trackID, voiceID, path)
	switch {
	case err != nil:
		b.metrics.ObservePlaylist("ensure", "error")
	case created:
		b.metrics.ObservePlaylist("ensure", "created")
	default:
		b.metrics.ObservePlaylist("ensure", "skipped")
	}
	if err != nil {
		return false, err
	}
	if created {
		return true, nil
	}
	return fileExists(path)
}

func (b *Builder) ensureLocked(ctx context.Context, trackID, voiceID, path string) (bool, error) {
	logger := logging.WithContext(ctx, b.logger).With(
		logging.Track(trackID),
		logging.Voice(voiceID),
	)
	if exists, err := fileExists(path); err != nil || exists {
		return false, err
	}

	dir, _ := b.VoiceDir(trackID, voiceID)
	segs, err := b.segments(dir)
	if err != nil {
		return false, services.Wrap(services.ErrIOFailure, "playlist", "ensure", "list segments", err)
	}
	if len(segs) == 0 {
		logger.Debug("no segment files yet; playlist not written")
		return false, nil
	}

	total, err := b.durations.TrackDuration(ctx, trackID)
	if err != nil {
		return false, err
	}
	if total <= 0 {
		logging.WarnWithContext(logger, "track duration unknown; playlist not written", "playlist_duration_missing",
			logging.Int("segment_files", len(segs)),
			logging.String(logging.FieldErrorHint, "ingest word timings or set the track duration"),
			logging.String(logging.FieldImpact, "voice cannot be streamed yet"),
		)
		return false, nil
	}

	expected := ExpectedSegments(total, b.opts.SegmentDuration)
	if len(segs) < expected {
		logging.WarnWithContext(logger, "fewer segment files than the duration implies", "playlist_segments_missing",
			logging.Int("segment_files", len(segs)),
			logging.Int("expected_segments", expected),
			logging.String(logging.FieldErrorHint, "finish synthesis before streaming"),
			logging.String(logging.FieldImpact, "players may stall on missing segments"),
		)
	}

	ext := segs[0].ext
	names := make([]string, expected)
	byIndex := make(map[int]string, len(segs))
	for _, s := range segs {
		byIndex[s.index] = s.name
	}
	for i := range names {
		if name, ok := byIndex[i]; ok {
			names[i] = name
		} else {
			names[i] = b.SegmentName(i, ext)
		}
	}

	body, err := BuildPlaylist(total, b.opts.SegmentDuration, names)
	if err != nil {
		return false, err
	}
	if err := fileutil.WriteFileAtomic(path, []byte(body), 0o644); err != nil {
		return false, services.Wrap(services.ErrIOFailure, "playlist", "ensure", "write playlist", err)
	}
	b.recordSegments(ctx, logger, trackID, voiceID,
		voiceSegmentRows(trackID, voiceID, dir, names, SegmentDurations(total, b.opts.SegmentDuration), byIndex))
	logger.Info("playlist written",
		logging.String(logging.FieldEventType, "playlist_written"),
		logging.Int("segments", expected),
		logging.Float64("total_duration", total),
		logging.String("path", path),
	)
	return true, nil
}

// Status reports segment files, expected segments and whether the playlist
// is ready to stream.
func (b *Builder) Status(ctx context.Context, trackID, voiceID string) (Status, error) {
	path, err := b.PlaylistPath(trackID, voiceID)
	if err != nil {
		return Status{}, err
	}
	dir, _ := b.VoiceDir(trackID, voiceID)
	segs, err := b.segments(dir)
	if err != nil {
		return Status{}, services.Wrap(services.ErrIOFailure, "playlist", "status", "list segments", err)
	}
	exists, err := fileExists(path)
	if err != nil {
		return Status{}, services.Wrap(services.ErrIOFailure, "playlist", "status", "stat playlist", err)
	}
	total, err := b.durations.TrackDuration(ctx, trackID)
	if err != nil {
		return Status{}, err
	}
	expected := ExpectedSegments(total, b.opts.SegmentDuration)
	return Status{
		SegmentCount:     len(segs),
		ExpectedSegments: expected,
		PlaylistExists:   exists,
		Ready:            exists && expected > 0 && len(segs) >= expected,
		PlaylistPath:     path,
	}, nil
}
