package score

import "sort"

// PercussionDuration is the fixed duration assigned to every percussion
// hit at ingestion; percussion visual decay is time-based, not gated by
// the note-off.
const PercussionDuration = 0.1

// Event is a single note or percussion hit. Immutable once the score is
// built; the renderer only ever borrows slices of these.
type Event struct {
	Time       float64 // playback-clock-relative start, seconds
	Duration   float64 // seconds
	Pitch      int     // MIDI note number, 0-127
	Track      int     // source track ordinal, used for color selection
	Velocity   float64 // 0-1, percussion size scaling
	MeasurePos float64 // fractional measure position at event start
}

// End returns the time the event stops sounding.
func (e Event) End() float64 { return e.Time + e.Duration }

// Score holds the two time-sorted event streams plus the tempo and
// time-signature map they were derived from.
type Score struct {
	Notes       []Event
	Percussions []Event
	TimeMap     *TimeMap
	TrackCount  int
}

// Duration returns the end time of the last-ending event in seconds.
func (s *Score) Duration() float64 {
	var end float64
	for _, ev := range s.Notes {
		if ev.End() > end {
			end = ev.End()
		}
	}
	for _, ev := range s.Percussions {
		if ev.End() > end {
			end = ev.End()
		}
	}
	return end
}

// normalize forces the fixed percussion duration and then sorts both
// streams. The sort must run after any duration rewrite: the cursor
// advancement depends on the duration-descending tie-break, and
// rewriting durations first would invalidate a pre-existing order.
func (s *Score) normalize() {
	for i := range s.Percussions {
		s.Percussions[i].Duration = PercussionDuration
	}
	sortEvents(s.Notes)
	sortEvents(s.Percussions)
}

// sortEvents orders events by ascending start time, ties broken by
// descending duration (longer notes first).
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		return events[i].Duration > events[j].Duration
	})
}
