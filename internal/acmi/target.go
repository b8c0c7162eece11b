package acmi

import (
	"math"
	"time"
)

// Target is the frame replay stops after. An unbounded target replays the
// whole recording.
type Target struct {
	Marker  float64
	Bounded bool
}

// Unbounded replays to the final state.
var Unbounded = Target{}

// Includes reports whether events under marker m are part of the replay.
func (t Target) Includes(m float64) bool {
	return !t.Bounded || m <= t.Marker
}

// ChooseTarget picks the marker closest to offset. Ties go to the earlier
// marker. Without an offset, or without markers, the target is unbounded.
func ChooseTarget(markers []float64, offset *float64) Target {
	if offset == nil || len(markers) == 0 {
		return Unbounded
	}
	best := markers[0]
	bestDiff := math.Abs(best - *offset)
	for _, m := range markers[1:] {
		if d := math.Abs(m - *offset); d < bestDiff {
			best, bestDiff = m, d
		}
	}
	return Target{Marker: best, Bounded: true}
}

// TargetOffset places the clock time of at on the calendar day of ref and
// returns how many seconds after ref that is. The result is negative for
// clock times earlier in the day than ref.
func TargetOffset(ref, at time.Time) float64 {
	at = at.In(ref.Location())
	y, mo, d := ref.Date()
	onDay := time.Date(y, mo, d, at.Hour(), at.Minute(), at.Second(), at.Nanosecond(), ref.Location())
	return onDay.Sub(ref).Seconds()
}

func collectMarkers(records []record) []float64 {
	var markers []float64
	for _, r := range records {
		if r.kind == recordMarker {
			markers = append(markers, r.marker)
		}
	}
	return markers
}
