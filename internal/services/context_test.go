package services_test

import (
	"context"
	"testing"

	"readalong/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithTrackID(ctx, "book-1")
	ctx = services.WithVoiceID(ctx, "nova")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.TrackIDFromContext(ctx); !ok || id != "book-1" {
		t.Fatalf("unexpected track id: %v %v", id, ok)
	}
	if voice, ok := services.VoiceIDFromContext(ctx); !ok || voice != "nova" {
		t.Fatalf("unexpected voice: %v %v", voice, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	if got := services.WithTrackID(ctx, ""); got != ctx {
		t.Fatal("expected blank track id to return the original context")
	}
	if _, ok := services.VoiceIDFromContext(services.WithVoiceID(ctx, "")); ok {
		t.Fatal("expected blank voice to be ignored")
	}
}
