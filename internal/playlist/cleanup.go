package playlist

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"readalong/internal/fileutil"
	"readalong/internal/logging"
	"readalong/internal/services"
)

// Cleanup removes a voice's segment files and playlist, then any directories
// left empty below the audio root. Individual failures are logged and
// collected; the remaining files are still attempted.
func (b *Builder) Cleanup(ctx context.Context, trackID, voiceID string) (CleanupResult, error) {
	dir, err := b.VoiceDir(trackID, voiceID)
	if err != nil {
		return CleanupResult{}, err
	}
	unlock, err := b.locks.Lock(ctx, lockKey(trackID, voiceID))
	if err != nil {
		return CleanupResult{}, services.Wrap(services.ErrIOFailure, "playlist", "cleanup", "lock voice directory", err)
	}
	defer unlock()

	logger := logging.WithContext(ctx, b.logger).With(
		logging.Track(trackID),
		logging.Voice(voiceID),
	)
	result := CleanupResult{}
	fail := func(path string, err error) {
		result.Failures = append(result.Failures, filepath.Base(path)+": "+err.Error())
		logging.WarnWithContext(logger, "failed to remove voice file", "cleanup_remove_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the audio directory"),
			logging.String(logging.FieldImpact, "disk space not fully reclaimed"),
		)
	}

	entries, err := os.ReadDir(dir)
	dirExists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return CleanupResult{}, services.Wrap(services.ErrIOFailure, "playlist", "cleanup", "list voice directory", err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			fail(dir, err)
			break
		}
		name := entry.Name()
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, name)
		switch {
		case b.segmentRe.MatchString(name):
			freed, err := fileutil.RemoveFile(path)
			if err != nil {
				fail(path, err)
				continue
			}
			result.SegmentsRemoved++
			result.BytesFreed += freed
		case name == b.opts.FileName:
			freed, err := fileutil.RemoveFile(path)
			if err != nil {
				fail(path, err)
				continue
			}
			result.PlaylistRemoved = true
			result.BytesFreed += freed
		case strings.HasPrefix(name, "."+b.opts.FileName+".tmp-"):
			freed, err := fileutil.RemoveFile(path)
			if err != nil {
				fail(path, err)
				continue
			}
			result.BytesFreed += freed
		}
	}

	if dirExists {
		if err := fileutil.RemoveEmptyDirs(dir, b.opts.AudioRoot); err != nil {
			fail(dir, err)
		}
	}

	switch {
	case len(result.Failures) > 0:
		result.Status = CleanupPartial
	case result.SegmentsRemoved == 0 && !result.PlaylistRemoved:
		result.Status = CleanupNothingToClean
	default:
		result.Status = CleanupCleaned
	}
	if len(result.Failures) == 0 {
		b.recordSegments(ctx, logger, trackID, voiceID, nil)
	}
	b.metrics.ObservePlaylist("cleanup", result.Status)
	b.metrics.AddBytesFreed(result.BytesFreed)
	logger.Info("voice cleanup finished",
		logging.String(logging.FieldEventType, "voice_cleanup"),
		logging.String("status", result.Status),
		logging.Int("segments_removed", result.SegmentsRemoved),
		logging.Bool("playlist_removed", result.PlaylistRemoved),
		logging.Int64("bytes_freed", result.BytesFreed),
	)
	return result, nil
}
