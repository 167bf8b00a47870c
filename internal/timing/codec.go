package timing

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"readalong/internal/services"
)

const (
	// VersionLegacy is the three-field record layout kept for migration.
	VersionLegacy byte = 1
	// VersionCurrent is the six-field record layout written by Pack.
	VersionCurrent byte = 2

	// DefaultCompressionLevel is the zlib level used when none is configured.
	DefaultCompressionLevel = 6

	blobMagic                = "WTIM"
	noSegment         uint32 = 0xFFFFFFFF
	headerSize               = len(blobMagic) + 1
	legacyFieldBytes         = 3 * 4
	currentFieldBytes        = 6 * 4
	maxDecodedBytes          = 64 << 20
)

// ErrLegacyFormat marks a blob written in the legacy layout that was decoded
// without AllowLegacy.
var ErrLegacyFormat = errors.New("legacy timing format")

// Codec packs word arrays with a fixed zlib level.
type Codec struct {
	level int
}

// NewCodec returns a codec using the given zlib level (-1..9).
func NewCodec(level int) (*Codec, error) {
	if level < zlib.DefaultCompression || level > zlib.BestCompression {
		return nil, services.Wrap(services.ErrValidation, "timing", "new codec", fmt.Sprintf("compression level %d out of range", level), nil)
	}
	return &Codec{level: level}, nil
}

// DefaultCodec returns a codec at DefaultCompressionLevel.
func DefaultCodec() *Codec {
	return &Codec{level: DefaultCompressionLevel}
}

// Level returns the configured zlib level.
func (c *Codec) Level() int {
	return c.level
}

// Pack encodes words in the current layout. Words must be sorted by start time.
func (c *Codec) Pack(words []Word) (Encoded, error) {
	return c.pack(words, VersionCurrent)
}

// PackLegacy encodes words in the legacy three-field layout. Segment metadata
// and word indexes are dropped. It exists to produce migration fixtures.
func (c *Codec) PackLegacy(words []Word) (Encoded, error) {
	return c.pack(words, VersionLegacy)
}

func (c *Codec) pack(words []Word, version byte) (Encoded, error) {
	if len(words) == 0 {
		return Encoded{Blob: []byte{}}, nil
	}

	fieldBytes := currentFieldBytes
	if version == VersionLegacy {
		fieldBytes = legacyFieldBytes
	}
	raw := make([]byte, 0, headerSize+len(words)*(2+8+fieldBytes))
	raw = append(raw, blobMagic...)
	raw = append(raw, version)

	var (
		agg       Aggregates
		prevStart uint32
		maxEnd    uint32
		minStart  uint32 = math.MaxUint32
	)
	for i, w := range words {
		start, ok := secondsToMillis(w.StartTime)
		if !ok {
			return Encoded{}, invalidWord(i, "start time %v out of range", w.StartTime)
		}
		end, ok := secondsToMillis(w.EndTime)
		if !ok {
			return Encoded{}, invalidWord(i, "end time %v out of range", w.EndTime)
		}
		if end < start {
			return Encoded{}, invalidWord(i, "end time %v precedes start time %v", w.EndTime, w.StartTime)
		}
		if i > 0 && start < prevStart {
			return Encoded{}, invalidWord(i, "start time %v is earlier than the previous word", w.StartTime)
		}
		if len(w.Word) > math.MaxUint16 {
			return Encoded{}, invalidWord(i, "word is %d bytes, limit is %d", len(w.Word), math.MaxUint16)
		}
		if !utf8.ValidString(w.Word) {
			return Encoded{}, invalidWord(i, "word is not valid UTF-8")
		}
		textOffset, ok := toUint32(w.TextOffset)
		if !ok {
			return Encoded{}, invalidWord(i, "text offset %d out of range", w.TextOffset)
		}

		raw = binary.LittleEndian.AppendUint16(raw, uint16(len(w.Word)))
		raw = append(raw, w.Word...)
		raw = binary.LittleEndian.AppendUint32(raw, start)
		raw = binary.LittleEndian.AppendUint32(raw, end)
		raw = binary.LittleEndian.AppendUint32(raw, textOffset)

		if version == VersionCurrent {
			segment := noSegment
			if w.SegmentIndex != nil {
				v, ok := toUint32(*w.SegmentIndex)
				if !ok || v == noSegment {
					return Encoded{}, invalidWord(i, "segment index %d out of range", *w.SegmentIndex)
				}
				segment = v
			}
			segmentOffset, ok := secondsToMillis(w.SegmentOffset)
			if !ok {
				return Encoded{}, invalidWord(i, "segment offset %v out of range", w.SegmentOffset)
			}
			wordIndex, ok := toUint32(w.WordIndex)
			if !ok {
				return Encoded{}, invalidWord(i, "word index %d out of range", w.WordIndex)
			}
			raw = binary.LittleEndian.AppendUint32(raw, segment)
			raw = binary.LittleEndian.AppendUint32(raw, segmentOffset)
			raw = binary.LittleEndian.AppendUint32(raw, wordIndex)
		}

		prevStart = start
		minStart = min(minStart, start)
		maxEnd = max(maxEnd, end)
	}

	agg.WordCount = len(words)
	agg.FirstWordTime = millisToSeconds(minStart)
	agg.LastWordTime = millisToSeconds(maxEnd)
	agg.TotalDuration = millisToSeconds(maxEnd - minStart)

	var out bytes.Buffer
	zw, err := zlib.NewWriterLevel(&out, c.level)
	if err != nil {
		return Encoded{}, services.Wrap(services.ErrValidation, "timing", "pack", "create compressor", err)
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return Encoded{}, services.Wrap(services.ErrIOFailure, "timing", "pack", "compress", err)
	}
	if err := zw.Close(); err != nil {
		return Encoded{}, services.Wrap(services.ErrIOFailure, "timing", "pack", "flush compressor", err)
	}

	return Encoded{Blob: out.Bytes(), RawSize: len(raw), Aggregates: agg}, nil
}

// UnpackOption adjusts decoding behaviour.
type UnpackOption func(*unpackOptions)

type unpackOptions struct {
	allowLegacy bool
}

// AllowLegacy enables decoding of version 1 blobs. Only migration code should
// pass it.
func AllowLegacy() UnpackOption {
	return func(o *unpackOptions) { o.allowLegacy = true }
}

// Unpack decodes a blob produced by Pack. An empty blob yields an empty slice.
func Unpack(blob []byte, opts ...UnpackOption) ([]Word, error) {
	var options unpackOptions
	for _, opt := range opts {
		opt(&options)
	}
	if len(blob) == 0 {
		return []Word{}, nil
	}

	raw, err := inflate(blob)
	if err != nil {
		return nil, err
	}
	version, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	switch version {
	case VersionCurrent:
		return decodeRecords(raw[headerSize:], currentFieldBytes)
	case VersionLegacy:
		if !options.allowLegacy {
			return nil, services.Wrap(services.ErrUnavailable, "timing", "unpack", "blob needs migration", ErrLegacyFormat)
		}
		return decodeRecords(raw[headerSize:], legacyFieldBytes)
	default:
		return nil, corrupt("unknown format version %d", version)
	}
}

// Version reports the layout version stored in a blob without decoding records.
// Empty blobs report VersionCurrent.
func Version(blob []byte) (byte, error) {
	if len(blob) == 0 {
		return VersionCurrent, nil
	}
	raw, err := inflate(blob)
	if err != nil {
		return 0, err
	}
	return parseHeader(raw)
}

func inflate(blob []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, corrupt("open zlib stream: %v", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(io.LimitReader(zr, maxDecodedBytes+1))
	if err != nil {
		return nil, corrupt("inflate: %v", err)
	}
	if len(raw) > maxDecodedBytes {
		return nil, corrupt("decoded size exceeds %d bytes", maxDecodedBytes)
	}
	return raw, nil
}

func parseHeader(raw []byte) (byte, error) {
	if len(raw) < headerSize {
		return 0, corrupt("header truncated (%d bytes)", len(raw))
	}
	if string(raw[:len(blobMagic)]) != blobMagic {
		return 0, corrupt("bad magic %q", raw[:len(blobMagic)])
	}
	return raw[len(blobMagic)], nil
}

func decodeRecords(data []byte, fieldBytes int) ([]Word, error) {
	words := make([]Word, 0, len(data)/(2+4+fieldBytes))
	pos := 0
	for pos < len(data) {
		index := len(words)
		if len(data)-pos < 2 {
			return nil, corrupt("record %d: length prefix truncated", index)
		}
		n := int(binary.LittleEndian.Uint16(data[pos:]))
		pos += 2
		if len(data)-pos < n+fieldBytes {
			return nil, corrupt("record %d: expected %d bytes, have %d", index, n+fieldBytes, len(data)-pos)
		}
		text := data[pos : pos+n]
		if !utf8.Valid(text) {
			return nil, corrupt("record %d: word is not valid UTF-8", index)
		}
		pos += n

		fields := data[pos : pos+fieldBytes]
		pos += fieldBytes
		w := Word{
			Word:       string(text),
			StartTime:  millisToSeconds(binary.LittleEndian.Uint32(fields[0:])),
			EndTime:    millisToSeconds(binary.LittleEndian.Uint32(fields[4:])),
			TextOffset: int(binary.LittleEndian.Uint32(fields[8:])),
			WordIndex:  index,
		}
		if fieldBytes == currentFieldBytes {
			if segment := binary.LittleEndian.Uint32(fields[12:]); segment != noSegment {
				w.SegmentIndex = IntPtr(int(segment))
			}
			w.SegmentOffset = millisToSeconds(binary.LittleEndian.Uint32(fields[16:]))
			w.WordIndex = int(binary.LittleEndian.Uint32(fields[20:]))
		}
		words = append(words, w)
	}
	return words, nil
}

func toUint32(v int) (uint32, bool) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

func invalidWord(index int, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "timing", "pack", fmt.Sprintf("word %d: ", index)+fmt.Sprintf(format, args...), nil)
}

func corrupt(format string, args ...any) error {
	return services.Wrap(services.ErrCorrupt, "timing", "unpack", fmt.Sprintf(format, args...), nil)
}
