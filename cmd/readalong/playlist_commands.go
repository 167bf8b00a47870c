package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"readalong/internal/api"
	"readalong/internal/app"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage HLS playlists for synthesized voice audio",
	}
	playlistCmd.AddCommand(newPlaylistEnsureCommand(ctx))
	playlistCmd.AddCommand(newPlaylistStatusCommand(ctx))
	playlistCmd.AddCommand(newPlaylistCleanupCommand(ctx))
	return playlistCmd
}

func newPlaylistEnsureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure TRACK_ID VOICE_ID",
		Short: "Write the playlist if audio segments exist and it is missing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				exists, err := a.Playlists.EnsurePlaylist(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				path, err := a.Playlists.PlaylistPath(args[0], args[1])
				if err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, api.EnsureResponse{TrackID: args[0], VoiceID: args[1], PlaylistPath: path, Exists: exists})
				}
				out := cmd.OutOrStdout()
				if exists {
					fmt.Fprintln(out, renderStatusLine("Playlist", statusOK, path, shouldColorize(out)))
				} else {
					fmt.Fprintln(out, renderStatusLine("Playlist", statusWarn, "no audio segments yet", shouldColorize(out)))
				}
				return nil
			})
		},
	}
}

func newPlaylistStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status TRACK_ID VOICE_ID",
		Short: "Report segment and playlist readiness",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				status, err := a.Playlists.Status(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				resp := api.FromPlaylistStatus(args[0], args[1], status)
				if ctx.jsonMode() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				segKind := statusWarn
				if resp.ExpectedSegments > 0 && resp.SegmentCount >= resp.ExpectedSegments {
					segKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Segments", segKind, fmt.Sprintf("%d of %d", resp.SegmentCount, resp.ExpectedSegments), colorize))
				plKind := statusWarn
				if resp.PlaylistExists {
					plKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Playlist", plKind, resp.PlaylistPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Ready", statusInfo, yesNo(resp.Ready), colorize))
				return nil
			})
		},
	}
}

func newPlaylistCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup TRACK_ID VOICE_ID",
		Short: "Remove a voice's audio segments and playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app.App) error {
				result, err := a.Playlists.Cleanup(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				resp := api.FromCleanup(args[0], args[1], result)
				if ctx.jsonMode() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				kind := statusOK
				if len(resp.Failures) > 0 {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Cleanup", kind,
					fmt.Sprintf("%s: %d segments removed, %s freed", resp.Status, resp.SegmentsRemoved, resp.BytesFreedHuman),
					shouldColorize(out)))
				for _, failure := range resp.Failures {
					fmt.Fprintf(out, "    %s\n", failure)
				}
				if len(resp.Failures) > 0 {
					return fmt.Errorf("cleanup left %d files behind", len(resp.Failures))
				}
				return nil
			})
		},
	}
}
