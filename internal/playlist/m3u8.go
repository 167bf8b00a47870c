package playlist

import (
	"fmt"
	"math"
	"strings"

	"readalong/internal/services"
)

const durationEpsilon = 1e-9

// SegmentDurations splits total seconds into segments of segDur. The final
// segment carries the remainder, or a full segDur when total divides evenly.
func SegmentDurations(total, segDur float64) []float64 {
	if total <= 0 || segDur <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}
	count := ExpectedSegments(total, segDur)
	out := make([]float64, count)
	for i := range out {
		out[i] = segDur
	}
	if rem := total - float64(count-1)*segDur; rem > durationEpsilon {
		out[count-1] = rem
	}
	return out
}

// ExpectedSegments returns ceil(total/segDur), or 0 when either is not positive.
func ExpectedSegments(total, segDur float64) int {
	if total <= 0 || segDur <= 0 {
		return 0
	}
	return int(math.Ceil(total/segDur - durationEpsilon))
}

// BuildPlaylist renders an HLS VOD playlist. names must hold at least one
// entry per expected segment; extra names are ignored.
func BuildPlaylist(total, segDur float64, names []string) (string, error) {
	durations := SegmentDurations(total, segDur)
	if len(durations) == 0 {
		return "", services.Wrap(services.ErrValidation, "playlist", "build",
			fmt.Sprintf("total %v and segment duration %v must be positive", total, segDur), nil)
	}
	if len(names) < len(durations) {
		return "", services.Wrap(services.ErrValidation, "playlist", "build",
			fmt.Sprintf("%d segment names for %d segments", len(names), len(durations)), nil)
	}

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", int(math.Ceil(segDur-durationEpsilon)))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	for i, d := range durations {
		fmt.Fprintf(&b, "#EXTINF:%.3f,\n%s\n", d, names[i])
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String(), nil
}
