// Package playlist synthesizes HLS VOD playlists for a narration voice from
// the segment files on disk and the track's total duration, and removes a
// voice's audio when asked.
//
// Audio lives in <audio_root>/<track>/<voice>/ as <prefix>NNN.<ext>. Writes
// and cleanups for one voice are serialized through a file lock so separate
// processes never interleave on the same directory.
package playlist
