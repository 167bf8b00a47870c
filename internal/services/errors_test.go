package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"readalong/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrIOFailure, "playlist", "write", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"playlist", "write", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "store", "get track", "missing", nil), services.KindNotFound},
		{services.Wrap(services.ErrCorrupt, "timing", "unpack", "", nil), services.KindCorrupt},
		{services.Wrap(services.ErrMisaligned, "reader", "merge", "", nil), services.KindMisaligned},
		{services.Wrap(services.ErrUnavailable, "words", "fetch", "", nil), services.KindUnavailable},
		{services.Wrap(services.ErrValidation, "timing", "pack", "", nil), services.KindValidation},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrIOFailure, "playlist", "", "", nil)), services.KindIOFailure},
		{errors.New("plain"), services.KindInternal},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.want {
			t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
