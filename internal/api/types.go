package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TrackSummary describes a track without its text.
type TrackSummary struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	TotalDuration float64 `json:"total_duration"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
}

// VoiceSummary aggregates the timing rows of one voice.
type VoiceSummary struct {
	VoiceID          string  `json:"voice_id"`
	Words            int     `json:"words"`
	Segments         int     `json:"segments"`
	LastWordTime     float64 `json:"last_word_time"`
	RawBytes         int     `json:"raw_bytes"`
	StoredBytes      int     `json:"stored_bytes"`
	CompressionRatio float64 `json:"compression_ratio"`
	LegacyRows       int     `json:"legacy_rows"`
	AudioSegments    int     `json:"audio_segments"`
	AudioReady       int     `json:"audio_ready"`
}

// TrackDetail is a track with its text segment count and voices.
type TrackDetail struct {
	Track        TrackSummary   `json:"track"`
	TextSegments int            `json:"text_segments"`
	SourceWords  int            `json:"source_words"`
	Voices       []VoiceSummary `json:"voices"`
}

// TrackListResponse wraps a track listing.
type TrackListResponse struct {
	Tracks []TrackSummary `json:"tracks"`
}

// PlaylistStatus reports playlist readiness for a voice.
type PlaylistStatus struct {
	TrackID          string `json:"track_id"`
	VoiceID          string `json:"voice_id"`
	SegmentCount     int    `json:"segment_count"`
	ExpectedSegments int    `json:"expected_segments"`
	PlaylistExists   bool   `json:"playlist_exists"`
	Ready            bool   `json:"ready"`
	PlaylistPath     string `json:"playlist_path"`
}

// CleanupResponse reports the outcome of removing a voice's audio.
type CleanupResponse struct {
	TrackID         string   `json:"track_id"`
	VoiceID         string   `json:"voice_id"`
	Status          string   `json:"status"`
	SegmentsRemoved int      `json:"segments_removed"`
	PlaylistRemoved bool     `json:"playlist_removed"`
	BytesFreed      int64    `json:"bytes_freed"`
	BytesFreedHuman string   `json:"bytes_freed_human"`
	Failures        []string `json:"failures,omitempty"`
}

// EnsureResponse reports whether a voice has a playlist after an ensure call.
type EnsureResponse struct {
	TrackID      string `json:"track_id"`
	VoiceID      string `json:"voice_id"`
	PlaylistPath string `json:"playlist_path,omitempty"`
	Exists       bool   `json:"exists"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
