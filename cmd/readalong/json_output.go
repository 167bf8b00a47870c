package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout. HTML escaping
// is off so transcript text such as "Q&A" or "<aside>" prints as written.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeJSONList encodes items, printing [] rather than null for an empty list.
func writeJSONList[T any](cmd *cobra.Command, items []T) error {
	if items == nil {
		items = []T{}
	}
	return writeJSON(cmd, items)
}
