package logging

import (
	"context"
	"log/slog"

	"readalong/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTrackID is the standardized structured logging key for track identifiers.
	FieldTrackID = "track_id"
	// FieldVoiceID is the standardized structured logging key for narration voice identifiers.
	FieldVoiceID = "voice_id"
	// FieldSegmentIndex is the standardized structured logging key for timeline segment indexes.
	FieldSegmentIndex = "segment_index"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for an operator.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.TrackIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTrackID, id))
	}
	if voice, ok := services.VoiceIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVoiceID, voice))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
