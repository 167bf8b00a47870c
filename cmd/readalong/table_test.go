package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"readalong/internal/api"
	"readalong/internal/ingest"
)

func TestVoicesTableTotals(t *testing.T) {
	one := []api.VoiceSummary{{VoiceID: "alloy", Words: 4, Segments: 1, StoredBytes: 256, AudioReady: 1, AudioSegments: 1}}
	single := voicesTable(one)
	requireContains(t, single, "alloy")
	if strings.Contains(single, "Total") {
		t.Fatalf("single voice should not carry a totals row:\n%s", single)
	}

	two := append(one, api.VoiceSummary{VoiceID: "echo", Words: 6, Segments: 1, StoredBytes: 768, AudioSegments: 2})
	out := voicesTable(two)
	for _, want := range []string{"Total", "10", "1.0 KiB", "1/3"} {
		requireContains(t, out, want)
	}
}

func TestMigrationsTableSkipsUntouchedVoices(t *testing.T) {
	if got := migrationsTable([]ingest.MigrationSummary{{TrackID: "book", VoiceID: "alloy"}}); got != "" {
		t.Fatalf("expected nothing to show, got:\n%s", got)
	}
	out := migrationsTable([]ingest.MigrationSummary{
		{TrackID: "book", VoiceID: "alloy"},
		{TrackID: "book", VoiceID: "echo", RowsMigrated: 2, Words: 40},
	})
	requireContains(t, out, "echo")
	if strings.Contains(out, "alloy") {
		t.Fatalf("untouched voice listed:\n%s", out)
	}
}

func TestWriteJSONKeepsTranscriptText(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	if err := writeJSON(cmd, map[string]string{"word": "Q&A <aside>"}); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	requireContains(t, buf.String(), `"Q&A <aside>"`)

	buf.Reset()
	if err := writeJSONList[ingest.MigrationSummary](cmd, nil); err != nil {
		t.Fatalf("writeJSONList: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", buf.String())
	}
}
