package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"readalong/internal/app"
	"readalong/internal/ingest"
	"readalong/internal/services"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest TRACK_ID VOICE_ID FILE",
		Short: "Store word timings for a voice from a JSON array (- for stdin)",
		Long: "Reads a JSON array of {\"word\", \"start\", \"end\"} objects (start_time/end_time are also accepted),\n" +
			"assigns segments and text offsets, and replaces any timings already stored for the voice.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[2])
			if err != nil {
				return fmt.Errorf("read timings: %w", err)
			}
			var raw []ingest.RawWord
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("decode timings: %w", err)
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				runCtx := services.WithVoiceID(services.WithTrackID(cmd.Context(), args[0]), args[1])
				summary, err := a.Ingest.Ingest(runCtx, args[0], args[1], raw)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, summary)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ingested %d words for %s/%s across %d segments (%s)\n",
					summary.Words, summary.TrackID, summary.VoiceID, summary.Segments, formatClock(summary.Duration))
				fmt.Fprintf(out, "Stored %s from %s (ratio %.2f)\n",
					humanize.IBytes(uint64(summary.StoredBytes)), humanize.IBytes(uint64(summary.RawBytes)), summary.CompressionRatio)
				if summary.UnmatchedWords > 0 {
					fmt.Fprintln(out, renderStatusLine("Alignment", statusWarn,
						fmt.Sprintf("%d words not found in source text (similarity %.2f)", summary.UnmatchedWords, summary.TextSimilarity),
						shouldColorize(out)))
				}
				return nil
			})
		},
	}
}
