package services

import "context"

type contextKey string

const (
	trackIDKey   contextKey = "track_id"
	voiceIDKey   contextKey = "voice_id"
	requestIDKey contextKey = "request_id"
)

// WithTrackID annotates context with the track identifier.
func WithTrackID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, trackIDKey, id)
}

// TrackIDFromContext extracts the track identifier if present.
func TrackIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(trackIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVoiceID annotates context with the narration voice identifier.
func WithVoiceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, voiceIDKey, id)
}

// VoiceIDFromContext returns the voice identifier if present.
func VoiceIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(voiceIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
