package store

import (
	"time"

	"readalong/internal/timing"
)

// Track is a narrated text with zero or more voices.
type Track struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	SourceText    string    `json:"source_text,omitempty"`
	TotalDuration float64   `json:"total_duration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TextSegment is one synthesis chunk of a track's source text.
type TextSegment struct {
	TrackID      string  `json:"track_id"`
	SegmentIndex int     `json:"segment_index"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	Duration     float64 `json:"duration"`
	TextBlob     []byte  `json:"-"`
	WordCount    int     `json:"word_count"`
	PreviewText  string  `json:"preview_text"`
}

// WordTimingRow is one persisted timing blob covering a single segment of a voice.
type WordTimingRow struct {
	TrackID       string `json:"track_id"`
	VoiceID       string `json:"voice_id"`
	SegmentIndex  int    `json:"segment_index"`
	FormatVersion int    `json:"format_version"`
	Blob          []byte `json:"-"`
	RawSize       int    `json:"raw_size"`
	timing.Aggregates
	UpdatedAt time.Time `json:"updated_at"`
}

// CompressionRatio reports raw bytes per stored byte for the row.
func (r WordTimingRow) CompressionRatio() float64 {
	return timing.CompressionRatio(r.RawSize, len(r.Blob))
}

// VoiceSegmentStatus tracks synthesis progress of one audio segment.
type VoiceSegmentStatus string

const (
	VoiceSegmentPending VoiceSegmentStatus = "pending"
	VoiceSegmentReady   VoiceSegmentStatus = "ready"
	VoiceSegmentError   VoiceSegmentStatus = "error"
)

// Valid reports whether the status is one the schema accepts.
func (s VoiceSegmentStatus) Valid() bool {
	switch s {
	case VoiceSegmentPending, VoiceSegmentReady, VoiceSegmentError:
		return true
	}
	return false
}

// VoiceSegment is a synthesized audio file for one segment of a voice.
type VoiceSegment struct {
	TrackID      string             `json:"track_id"`
	VoiceID      string             `json:"voice_id"`
	SegmentIndex int                `json:"segment_index"`
	Path         string             `json:"path"`
	Duration     float64            `json:"duration"`
	Status       VoiceSegmentStatus `json:"status"`
}
