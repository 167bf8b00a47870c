package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"readalong/internal/api"
	"readalong/internal/app"
	"readalong/internal/playlist"
	"readalong/internal/store"
	"readalong/internal/textutil"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Manage tracks and their source text",
	}
	trackCmd.AddCommand(newTrackAddCommand(ctx))
	trackCmd.AddCommand(newTrackListCommand(ctx))
	trackCmd.AddCommand(newTrackShowCommand(ctx))
	trackCmd.AddCommand(newTrackDeleteCommand(ctx))
	trackCmd.AddCommand(newTrackDurationCommand(ctx))
	return trackCmd
}

func newTrackAddCommand(ctx *commandContext) *cobra.Command {
	var title string
	var text string
	var textFile string
	var duration float64

	cmd := &cobra.Command{
		Use:   "add [TRACK_ID]",
		Short: "Create a track, optionally chunking its source text",
		Long:  "Without TRACK_ID the id is derived from --title.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title = strings.TrimSpace(title)
			var id string
			switch {
			case len(args) == 1:
				id = args[0]
			case title != "":
				id = textutil.SanitizeToken(title)
			default:
				return errors.New("a TRACK_ID or --title is required")
			}
			if text != "" && textFile != "" {
				return errors.New("use either --text or --text-file, not both")
			}
			if textFile != "" {
				loaded, err := readInput(cmd, textFile)
				if err != nil {
					return fmt.Errorf("read text: %w", err)
				}
				text = string(loaded)
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				track, err := a.Store.CreateTrack(cmd.Context(), store.Track{ID: id, Title: title, TotalDuration: duration})
				if err != nil {
					return err
				}
				var segs []store.TextSegment
				if strings.TrimSpace(text) != "" {
					segs, err = a.Ingest.ChunkText(cmd.Context(), track.ID, text)
					if err != nil {
						return err
					}
				}
				detail, err := a.Tracks.Describe(cmd.Context(), track.ID)
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, detail)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created track %s (%d text segments, %d words)\n", track.ID, len(segs), detail.SourceWords)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Track title")
	cmd.Flags().StringVar(&text, "text", "", "Source text")
	cmd.Flags().StringVar(&textFile, "text-file", "", "Read source text from a file (- for stdin)")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Narrated duration in seconds, if known before timings are ingested")
	return cmd
}

func newTrackDurationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duration TRACK_ID SECONDS",
		Short: "Set a track's narrated duration",
		Long:  "Overrides the duration recorded from ingested timings, e.g. when audio was rendered longer than the last word.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[1], err)
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				if err := a.Store.SetTrackDuration(cmd.Context(), args[0], seconds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Track %s duration set to %s\n", args[0], formatClock(seconds))
				return nil
			})
		},
	}
}

func newTrackListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				tracks, err := a.Tracks.List(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, api.TrackListResponse{Tracks: tracks})
				}
				out := cmd.OutOrStdout()
				if len(tracks) == 0 {
					fmt.Fprintln(out, "No tracks")
					return nil
				}
				fmt.Fprintln(out, tracksTable(tracks))
				return nil
			})
		},
	}
}

func newTrackShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show TRACK_ID",
		Short: "Show a track with per-voice timing statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				detail, err := a.Tracks.Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, detail)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Track "+detail.Track.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintf(out, "Title:          %s\n", detail.Track.Title)
				fmt.Fprintf(out, "Duration:       %s\n", formatClock(detail.Track.TotalDuration))
				fmt.Fprintf(out, "Text segments:  %d\n", detail.TextSegments)
				fmt.Fprintf(out, "Source words:   %d\n", detail.SourceWords)
				if len(detail.Voices) == 0 {
					fmt.Fprintln(out, "No voice timings")
					return nil
				}
				fmt.Fprintln(out, voicesTable(detail.Voices))
				return nil
			})
		},
	}
}

func newTrackDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete TRACK_ID",
		Aliases: []string{"rm"},
		Short:   "Delete a track, its timings and its synthesized audio",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				deleted, results, err := a.DeleteTrack(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("track %q not found", args[0])
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, struct {
						TrackID string                   `json:"track_id"`
						Deleted bool                     `json:"deleted"`
						Cleanup []playlist.CleanupResult `json:"cleanup"`
					}{args[0], deleted, results})
				}
				var freed int64
				for _, r := range results {
					freed += r.BytesFreed
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted track %s (%s of audio removed)\n", args[0], humanize.IBytes(uint64(freed)))
				return nil
			})
		},
	}
}

// readInput reads a file path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
