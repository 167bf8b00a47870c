package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLine(t *testing.T) {
	tests := []struct {
		name     string
		kind     statusKind
		message  string
		colorize bool
		want     string
	}{
		{name: "ok plain", kind: statusOK, message: "ready", want: "  Database:            [OK] ready"},
		{name: "warn no message", kind: statusWarn, want: "  Database:            [WARN]"},
		{name: "error colored", kind: statusError, message: "bad", colorize: true, want: ansiRed + "  Database:            [ERROR] bad" + ansiReset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderStatusLine("Database", tt.kind, tt.message, tt.colorize)
			if got != tt.want {
				t.Fatalf("renderStatusLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldColorizeRejectsBuffers(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers must not be colorized")
	}
}

func TestLookupAndPageKinds(t *testing.T) {
	if lookupKind("found") != statusOK || lookupKind("error") != statusError || lookupKind("no_words_in_segment") != statusWarn {
		t.Fatal("unexpected lookup kinds")
	}
	if pageKind("ok") != statusOK || pageKind("misaligned") != statusError || pageKind("page_out_of_range") != statusWarn {
		t.Fatal("unexpected page kinds")
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(83.4); got != "1m23s" {
		t.Fatalf("formatClock = %q", got)
	}
	if got := formatClock(0); got != "0s" {
		t.Fatalf("formatClock(0) = %q", got)
	}
	if !strings.HasPrefix(formatSeconds(2.8), "2.800") {
		t.Fatalf("formatSeconds = %q", formatSeconds(2.8))
	}
}
