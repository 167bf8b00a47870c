package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"readalong/internal/api"
	"readalong/internal/ingest"
	"readalong/internal/timing"
)

type column struct {
	title string
	right bool
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

// renderTable draws rows under cols. A non-nil footer is rendered below the
// body; short rows are padded with empty cells.
func renderTable(cols []column, rows [][]string, footer []string) string {
	if len(cols) == 0 {
		return ""
	}
	pad := func(cells []string) table.Row {
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		return row
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make([]string, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.title
		align := text.AlignLeft
		if c.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(pad(header))
	for _, r := range rows {
		tw.AppendRow(pad(r))
	}
	if footer != nil {
		tw.AppendFooter(pad(footer))
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func tracksTable(tracks []api.TrackSummary) string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.ID, t.Title, formatClock(t.TotalDuration), t.UpdatedAt})
	}
	return renderTable([]column{left("ID"), left("Title"), right("Duration"), left("Updated")}, rows, nil)
}

// voicesTable lists per-voice timing and audio state with a totals footer
// when more than one voice is shown.
func voicesTable(voices []api.VoiceSummary) string {
	var (
		rows                 = make([][]string, 0, len(voices))
		words, stored, ready int
		segments             int
	)
	for _, v := range voices {
		rows = append(rows, []string{
			v.VoiceID,
			strconv.Itoa(v.Words),
			strconv.Itoa(v.Segments),
			formatSeconds(v.LastWordTime),
			humanize.IBytes(uint64(v.StoredBytes)),
			strconv.FormatFloat(v.CompressionRatio, 'f', 2, 64),
			strconv.Itoa(v.LegacyRows),
			fmt.Sprintf("%d/%d", v.AudioReady, v.AudioSegments),
		})
		words += v.Words
		stored += v.StoredBytes
		ready += v.AudioReady
		segments += v.AudioSegments
	}
	var footer []string
	if len(voices) > 1 {
		footer = []string{"Total", strconv.Itoa(words), "", "", humanize.IBytes(uint64(stored)), "", "", fmt.Sprintf("%d/%d", ready, segments)}
	}
	cols := []column{
		left("Voice"), right("Words"), right("Segments"), right("Last word"),
		right("Stored"), right("Ratio"), right("Legacy"), right("Audio"),
	}
	return renderTable(cols, rows, footer)
}

func wordsTable(words []timing.Word) string {
	rows := make([][]string, 0, len(words))
	for _, w := range words {
		rows = append(rows, []string{
			strconv.Itoa(w.WordIndex),
			w.Word,
			formatSeconds(w.StartTime),
			formatSeconds(w.EndTime),
		})
	}
	return renderTable([]column{right("#"), left("Word"), right("Start"), right("End")}, rows, nil)
}

// migrationsTable lists voices that had rows rewritten. Voices with nothing
// migrated are skipped; an empty string means nothing to show.
func migrationsTable(summaries []ingest.MigrationSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		if s.RowsMigrated == 0 {
			continue
		}
		rows = append(rows, []string{s.TrackID, s.VoiceID, strconv.Itoa(s.RowsMigrated), strconv.Itoa(s.Words)})
	}
	if len(rows) == 0 {
		return ""
	}
	return renderTable([]column{left("Track"), left("Voice"), right("Rows"), right("Words")}, rows, nil)
}
