package timing

import "math"

// Word is one timed word of a narration voice.
type Word struct {
	Word          string  `json:"word"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	TextOffset    int     `json:"text_offset"`
	SegmentIndex  *int    `json:"segment_index"`
	SegmentOffset float64 `json:"segment_offset"`
	WordIndex     int     `json:"word_index"`
}

// Contains reports whether t falls inside the word's [start, end) window.
func (w Word) Contains(t float64) bool {
	return t >= w.StartTime && t < w.EndTime
}

// Aggregates are the summary fields persisted alongside a packed blob.
type Aggregates struct {
	WordCount     int     `json:"word_count"`
	FirstWordTime float64 `json:"first_word_time"`
	LastWordTime  float64 `json:"last_word_time"`
	TotalDuration float64 `json:"total_duration"`
}

// Encoded is the result of Pack.
type Encoded struct {
	Blob    []byte
	RawSize int
	Aggregates
}

// CompressionRatio reports raw bytes per stored byte. Zero when nothing was stored.
func (e Encoded) CompressionRatio() float64 {
	return CompressionRatio(e.RawSize, len(e.Blob))
}

// CompressionRatio reports raw bytes per stored byte for persisted sizes.
func CompressionRatio(rawSize, storedSize int) float64 {
	if rawSize <= 0 || storedSize <= 0 {
		return 0
	}
	return float64(rawSize) / float64(storedSize)
}

// IntPtr returns a pointer to v for SegmentIndex literals.
func IntPtr(v int) *int {
	return &v
}

func secondsToMillis(seconds float64) (uint32, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, false
	}
	ms := math.Round(seconds * 1000)
	if ms > math.MaxUint32 {
		return 0, false
	}
	return uint32(ms), true
}

func millisToSeconds(ms uint32) float64 {
	return float64(ms) / 1000
}
