// Package projection maps an event's pitch and timing plus the current
// playback time into polar screen placement: angle on the pitch wheel,
// radial view-offset, and the seconds-to-pixels scale.
package projection

import (
	"math"
	"strconv"
)

// Direction selects how events travel along the radius.
type Direction int

const (
	// Inward: events start far from center and move inward, passing
	// through center at their temporal midpoint.
	Inward Direction = iota
	// Outward: events emerge from center and move outward.
	Outward
)

func (d Direction) String() string {
	if d == Outward {
		return "outward"
	}
	return "inward"
}

// AppearingLead returns the signed lead (seconds, negative = earlier)
// at which an event becomes visible before its start, for the given
// circle traversal period.
// Both directions reveal events one full radius traversal early; the
// outward formula additionally folds the lead into its travel term.
func (d Direction) AppearingLead(circleTime float64) float64 {
	return -circleTime
}

// ViewOffset returns the time-derived radial distance from center, in
// seconds. Inward events cross zero at their temporal midpoint;
// outward events negate the travel and shift emergence by the
// appearing lead.
func (d Direction) ViewOffset(eventTime, duration, appearingLead, now float64) float64 {
	switch d {
	case Outward:
		return -((eventTime + appearingLead - now) + 0.5*duration)
	default:
		return (eventTime - now) + 0.5*duration
	}
}

// Circle is the pitch-to-angle ratio: Num/Den semitone fractions of a
// full turn per semitone. {1,12} is the standard chromatic circle,
// {7,12} the circle of fifths, larger denominators finer subdivisions.
type Circle struct {
	Num, Den int
}

var (
	Chromatic = Circle{1, 12}
	Fifths    = Circle{7, 12}
	Semi24    = Circle{1, 24}
	Semi48    = Circle{1, 48}
	Semi96    = Circle{1, 96}
	Semi192   = Circle{1, 192}
)

// Circles lists the selectable wheel granularities in cycle order.
func Circles() []Circle {
	return []Circle{Chromatic, Fifths, Semi24, Semi48, Semi96, Semi192}
}

// Angle maps a pitch to its wheel angle in radians. keyShift is a live
// transposition in semitones (fractional allowed) applied uniformly
// before the mapping; pitch 72 with no shift sits at angle zero.
func (c Circle) Angle(pitch, keyShift float64) float64 {
	return 2 * math.Pi * (pitch + keyShift - 72) * float64(c.Num) / float64(c.Den)
}

func (c Circle) String() string {
	if c == Fifths {
		return "fifths"
	}
	return strconv.Itoa(c.Num) + "/" + strconv.Itoa(c.Den)
}

// CircleTime converts the size-magnification percentage into the number
// of seconds of music spanning the visible radius. The clamp keeps a
// zero magnification from collapsing the mapping.
func CircleTime(magnificationPct float64) float64 {
	return 3.0 / math.Max(0.01, magnificationPct/100)
}

// UnitSize converts seconds to pixels for the current viewport: the
// visible radius (80% of the smaller dimension) divided by the circle
// traversal period.
func UnitSize(viewW, visibleH, circleTime float64) float64 {
	return 0.8 * math.Min(viewW, visibleH) / circleTime
}
