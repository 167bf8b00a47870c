package config

const (
	defaultDataDirFallback        = "~/.local/share/readalong"
	defaultAudioSubdir            = "audio"
	defaultLogSubdir              = "logs"
	defaultAPIBind                = "127.0.0.1:7590"
	defaultSegmentDuration        = 30.0
	defaultCompressionLevel       = 6
	defaultSegmentCacheSize       = 2048
	defaultSegmentCacheTTLSeconds = 900
	defaultWordCountCacheSize     = 1024
	defaultWordCountTTLSeconds    = 300
	defaultPageSize               = 200
	defaultMaxPageSize            = 2000
	defaultTextCacheSize          = 128
	defaultTextCacheTTLSeconds    = 900
	defaultPlaylistFileName       = "playlist.m3u8"
	defaultSegmentPrefix          = "segment_"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

var defaultSegmentExtensions = []string{"ts", "aac", "mp3", "m4a"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			APIBind: defaultAPIBind,
		},
		Timing: Timing{
			SegmentDurationSeconds: defaultSegmentDuration,
			CompressionLevel:       defaultCompressionLevel,
			SegmentCacheSize:       defaultSegmentCacheSize,
			SegmentCacheTTLSeconds: defaultSegmentCacheTTLSeconds,
			WordCountCacheSize:     defaultWordCountCacheSize,
			WordCountTTLSeconds:    defaultWordCountTTLSeconds,
		},
		Reader: Reader{
			DefaultPageSize:     defaultPageSize,
			MaxPageSize:         defaultMaxPageSize,
			TextCacheSize:       defaultTextCacheSize,
			TextCacheTTLSeconds: defaultTextCacheTTLSeconds,
		},
		Playlist: Playlist{
			FileName:          defaultPlaylistFileName,
			SegmentPrefix:     defaultSegmentPrefix,
			SegmentExtensions: append([]string(nil), defaultSegmentExtensions...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
