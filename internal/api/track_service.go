package api

import (
	"context"

	"readalong/internal/reader"
	"readalong/internal/store"
)

// TrackReader abstracts the persistence queries needed for track views.
type TrackReader interface {
	ListTracks(ctx context.Context) ([]*store.Track, error)
	GetTrack(ctx context.Context, id string) (*store.Track, error)
	TrackVoices(ctx context.Context, trackID string) ([]string, error)
	ListTextSegments(ctx context.Context, trackID string) ([]store.TextSegment, error)
	WordTimings(ctx context.Context, trackID, voiceID string, segment *int) ([]store.WordTimingRow, error)
	VoiceSegments(ctx context.Context, trackID, voiceID string) ([]store.VoiceSegment, error)
}

// TrackService exposes read-only track operations returning API DTOs.
type TrackService struct {
	store TrackReader
}

// NewTrackService constructs a TrackService around the provided reader.
func NewTrackService(store TrackReader) *TrackService {
	if store == nil {
		return nil
	}
	return &TrackService{store: store}
}

// List returns every track.
func (s *TrackService) List(ctx context.Context) ([]TrackSummary, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	tracks, err := s.store.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	return FromTracks(tracks), nil
}

// Describe returns a track with per-voice statistics.
func (s *TrackService) Describe(ctx context.Context, id string) (*TrackDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	track, err := s.store.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	segs, err := s.store.ListTextSegments(ctx, id)
	if err != nil {
		return nil, err
	}
	voices, err := s.store.TrackVoices(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &TrackDetail{
		Track:        FromTrack(track),
		TextSegments: len(segs),
		Voices:       make([]VoiceSummary, 0, len(voices)),
	}
	if track.SourceText != "" {
		detail.SourceWords = reader.CountWords(track.SourceText)
	} else {
		for _, seg := range segs {
			detail.SourceWords += seg.WordCount
		}
	}
	for _, voice := range voices {
		rows, err := s.store.WordTimings(ctx, id, voice, nil)
		if err != nil {
			return nil, err
		}
		summary := FromTimingRows(voice, rows)
		audio, err := s.store.VoiceSegments(ctx, id, voice)
		if err != nil {
			return nil, err
		}
		summary.AudioSegments, summary.AudioReady = countAudio(audio)
		detail.Voices = append(detail.Voices, summary)
	}
	return detail, nil
}
