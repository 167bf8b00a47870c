package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"readalong/internal/app"
	"readalong/internal/reader"
	"readalong/internal/timingindex"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TRACK_ID VOICE_ID SECONDS",
		Short: "Find the word spoken at a playback time",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid time %q: %w", args[2], err)
			}
			return ctx.withApp(cmd, func(a *app.App) error {
				result := a.Index.Lookup(cmd.Context(), args[0], args[1], t)
				if ctx.jsonMode() {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintln(out, renderStatusLine("Lookup", lookupKind(result.Status), describeLookup(result), shouldColorize(out)))
				}
				if result.Status == timingindex.StatusError {
					return errors.New(result.Error)
				}
				return nil
			})
		},
	}
}

func describeLookup(r timingindex.LookupResult) string {
	switch r.Status {
	case timingindex.StatusFound:
		return fmt.Sprintf("%q word %d, segment %d, %s-%s",
			r.Word, *r.WordIndex, *r.SegmentIndex, formatSeconds(*r.StartTime), formatSeconds(*r.EndTime))
	case timingindex.StatusError:
		return r.Error
	default:
		if r.SegmentIndex != nil {
			return fmt.Sprintf("%s (segment %d)", r.Status, *r.SegmentIndex)
		}
		return r.Status
	}
}

func newPageCommand(ctx *commandContext) *cobra.Command {
	var page int
	var size int

	cmd := &cobra.Command{
		Use:   "page TRACK_ID VOICE_ID",
		Short: "Show one read-along page of timed words",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				result := a.Reader.GetPage(cmd.Context(), args[0], args[1], page, size)
				if ctx.jsonMode() {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else {
					renderPage(cmd, result)
				}
				if result.Status == reader.StatusError {
					return errors.New(result.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&size, "size", 0, "Words per page (0 uses the configured default)")
	return cmd
}

func renderPage(cmd *cobra.Command, p reader.Page) {
	out := cmd.OutOrStdout()
	pg := p.Pagination
	if p.Status != reader.StatusOK {
		msg := p.Status
		if p.Error != "" {
			msg = p.Error
		}
		fmt.Fprintln(out, renderStatusLine("Page", pageKind(p.Status), msg, shouldColorize(out)))
		return
	}
	fmt.Fprintln(out, wordsTable(p.Words))
	fmt.Fprintf(out, "Page %d/%d (words %d-%d of %d)\n", pg.Page+1, pg.TotalPages, pg.StartIndex, pg.EndIndex, pg.TotalWords)
}
