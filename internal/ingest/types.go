package ingest

import (
	"encoding/json"
	"fmt"
)

// RawWord is one word as reported by the speech synthesizer.
type RawWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// UnmarshalJSON accepts both {start,end} and {start_time,end_time} keys.
func (w *RawWord) UnmarshalJSON(data []byte) error {
	var aux struct {
		Word      string   `json:"word"`
		Start     *float64 `json:"start"`
		End       *float64 `json:"end"`
		StartTime *float64 `json:"start_time"`
		EndTime   *float64 `json:"end_time"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.Word = aux.Word
	switch {
	case aux.Start != nil:
		w.Start = *aux.Start
	case aux.StartTime != nil:
		w.Start = *aux.StartTime
	default:
		return fmt.Errorf("word %q has no start time", aux.Word)
	}
	switch {
	case aux.End != nil:
		w.End = *aux.End
	case aux.EndTime != nil:
		w.End = *aux.EndTime
	default:
		return fmt.Errorf("word %q has no end time", aux.Word)
	}
	return nil
}

// Summary describes a completed ingest.
type Summary struct {
	TrackID          string  `json:"track_id"`
	VoiceID          string  `json:"voice_id"`
	Words            int     `json:"words"`
	Segments         int     `json:"segments"`
	Duration         float64 `json:"duration"`
	RawBytes         int     `json:"raw_bytes"`
	StoredBytes      int     `json:"stored_bytes"`
	CompressionRatio float64 `json:"compression_ratio"`
	UnmatchedWords   int     `json:"unmatched_words"`
	TextSimilarity   float64 `json:"text_similarity"`
}

// MigrationSummary describes a legacy-blob migration for one voice.
type MigrationSummary struct {
	TrackID      string `json:"track_id"`
	VoiceID      string `json:"voice_id"`
	RowsMigrated int    `json:"rows_migrated"`
	Words        int    `json:"words"`
}
