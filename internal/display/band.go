package display

import (
	"time"

	"gridclock/internal/model"
)

// Palette is the fixed weekend color cycle.
var Palette = []string{"#F7B267", "#F79D65", "#F4845F", "#F27059", "#F25C54"}

// weekendGap is the spacing between consecutive sessions that starts a new
// color band. Sessions of one race weekend sit well inside it; the gap to
// the next weekend exceeds it.
const weekendGap = 96 * time.Hour

// AssignColors walks the already-sorted, already-bounded session sequence
// and assigns each entry a palette color: the previous entry's color when
// it belongs to the same weekend, the next palette entry (cycling) when the
// gap to the previous entry is at least 96 hours.
func AssignColors(sessions []model.Session) []string {
	colors := make([]string, len(sessions))
	idx := 0
	for i, s := range sessions {
		if i > 0 && s.Start.Sub(sessions[i-1].Start) >= weekendGap {
			idx = (idx + 1) % len(Palette)
		}
		colors[i] = Palette[idx]
	}
	return colors
}
