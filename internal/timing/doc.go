// Package timing packs and unpacks per-word audio timing arrays into the
// compact binary blob persisted for each (text segment, voice) pair.
//
// Blob layout (before zlib compression):
//
//	"WTIM" | version byte | record...
//
// Each record is a little-endian uint16 byte length, the UTF-8 word, then
// uint32 fields. Version 2 records carry six fields (start_ms, end_ms,
// text_offset, segment_index or 0xFFFFFFFF, segment_offset_ms, word_index).
// Version 1 is the legacy three-field layout (start_ms, end_ms, text_offset)
// and is only decoded when the caller passes AllowLegacy.
//
// Pack computes the aggregate fields stored next to the blob (word count, first
// and last word time, total duration) in the same pass that encodes records, so
// they always match what Unpack returns. Malformed input never panics: it fails
// with an error classified as services.ErrCorrupt.
package timing
