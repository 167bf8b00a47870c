package api

import (
	"time"

	"github.com/dustin/go-humanize"

	"readalong/internal/playlist"
	"readalong/internal/store"
	"readalong/internal/timing"
)

// FromTrack converts a store track to its API representation.
func FromTrack(track *store.Track) TrackSummary {
	if track == nil {
		return TrackSummary{}
	}
	return TrackSummary{
		ID:            track.ID,
		Title:         track.Title,
		TotalDuration: track.TotalDuration,
		CreatedAt:     formatTime(track.CreatedAt),
		UpdatedAt:     formatTime(track.UpdatedAt),
	}
}

// FromTracks converts a slice of store tracks.
func FromTracks(tracks []*store.Track) []TrackSummary {
	out := make([]TrackSummary, 0, len(tracks))
	for _, track := range tracks {
		if track == nil {
			continue
		}
		out = append(out, FromTrack(track))
	}
	return out
}

// FromTimingRows folds a voice's timing rows into a summary.
func FromTimingRows(voiceID string, rows []store.WordTimingRow) VoiceSummary {
	summary := VoiceSummary{VoiceID: voiceID, Segments: len(rows)}
	for _, row := range rows {
		summary.Words += row.WordCount
		summary.RawBytes += row.RawSize
		summary.StoredBytes += len(row.Blob)
		summary.LastWordTime = max(summary.LastWordTime, row.LastWordTime)
		if row.FormatVersion < int(timing.VersionCurrent) {
			summary.LegacyRows++
		}
	}
	summary.CompressionRatio = timing.CompressionRatio(summary.RawBytes, summary.StoredBytes)
	return summary
}

func countAudio(segs []store.VoiceSegment) (total, ready int) {
	for _, seg := range segs {
		if seg.Status == store.VoiceSegmentReady {
			ready++
		}
	}
	return len(segs), ready
}

// FromPlaylistStatus converts a playlist status for a voice.
func FromPlaylistStatus(trackID, voiceID string, status playlist.Status) PlaylistStatus {
	return PlaylistStatus{
		TrackID:          trackID,
		VoiceID:          voiceID,
		SegmentCount:     status.SegmentCount,
		ExpectedSegments: status.ExpectedSegments,
		PlaylistExists:   status.PlaylistExists,
		Ready:            status.Ready,
		PlaylistPath:     status.PlaylistPath,
	}
}

// FromCleanup converts a cleanup result for a voice.
func FromCleanup(trackID, voiceID string, result playlist.CleanupResult) CleanupResponse {
	return CleanupResponse{
		TrackID:         trackID,
		VoiceID:         voiceID,
		Status:          result.Status,
		SegmentsRemoved: result.SegmentsRemoved,
		PlaylistRemoved: result.PlaylistRemoved,
		BytesFreed:      result.BytesFreed,
		BytesFreedHuman: humanize.IBytes(uint64(max(result.BytesFreed, 0))),
		Failures:        result.Failures,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
