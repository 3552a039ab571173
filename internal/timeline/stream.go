// Package timeline tracks which events of a time-sorted stream are
// visible in each temporal phase relative to a playback clock, without
// re-scanning the stream every frame.
package timeline

import "github.com/mwheel/melodywheel/internal/score"

// Cursor partitions a time-sorted event stream into phases:
//
//	[0, Released)        finished sounding
//	[Released, Attacked) currently sounding
//	[Attacked, Appeared) visible but not yet started
//	[Appeared, len)      not yet visible
//
// Invariant: 0 <= Released <= Attacked <= Appeared <= len.
type Cursor struct {
	Released int
	Attacked int
	Appeared int
}

// Stream is a read-only borrow of a score event slice plus the phase
// cursors over it. The slice is owned by the score and never mutated
// or copied here.
//
// Correctness of Refresh depends on the stream ordering invariant:
// time ascending, ties broken by duration descending.
type Stream struct {
	events   []score.Event
	cur      Cursor
	lastTime float64
	// releasing, when positive, replaces per-event duration for the
	// released boundary: percussion visual decay is a fixed window
	// after the hit, not the note's gate length.
	releasing float64
}

// NewStream wraps a time-sorted note slice.
func NewStream(events []score.Event) *Stream {
	return &Stream{events: events}
}

// NewPercussionStream wraps a time-sorted percussion slice whose
// released boundary uses the fixed releasingTime window.
func NewPercussionStream(events []score.Event, releasingTime float64) *Stream {
	return &Stream{events: events, releasing: releasingTime}
}

// Reset rebinds the stream to a new event slice and rewinds all
// cursors. Called when a new score is loaded.
func (s *Stream) Reset(events []score.Event) {
	s.events = events
	s.cur = Cursor{}
	s.lastTime = 0
}

// Refresh advances the three cursors to the given playback time.
// appearingLead is the signed offset (negative = earlier) at which an
// event enters the appearing phase before its start.
//
// Cursors only move forward; a clock observed below the previous call's
// value signals a loop restart or a backward seek, and all cursors
// rewind to zero before scanning resumes. Repeated calls with the same
// time are idempotent.
func (s *Stream) Refresh(now, appearingLead float64) {
	if now < s.lastTime {
		s.cur = Cursor{}
	}
	s.lastTime = now

	n := len(s.events)
	i := s.cur.Released
	for i < n && s.releaseTime(i) <= now {
		i++
	}
	s.cur.Released = i
	if s.cur.Attacked < i {
		s.cur.Attacked = i
	}

	j := s.cur.Attacked
	for j < n && s.events[j].Time <= now {
		j++
	}
	s.cur.Attacked = j
	if s.cur.Appeared < j {
		s.cur.Appeared = j
	}

	k := s.cur.Appeared
	for k < n && s.events[k].Time+appearingLead <= now {
		k++
	}
	s.cur.Appeared = k
}

func (s *Stream) releaseTime(i int) float64 {
	if s.releasing > 0 {
		return s.events[i].Time + s.releasing
	}
	return s.events[i].End()
}

// Cursor returns the current phase boundaries.
func (s *Stream) Cursor() Cursor { return s.cur }

// Len returns the number of events in the stream.
func (s *Stream) Len() int { return len(s.events) }

// Sounding returns the events currently sounding (or, for percussion,
// within the releasing window), earliest first.
func (s *Stream) Sounding() []score.Event {
	return s.events[s.cur.Released:s.cur.Attacked]
}

// Appearing returns the events in the pre-attack visible window,
// earliest first.
func (s *Stream) Appearing() []score.Event {
	return s.events[s.cur.Attacked:s.cur.Appeared]
}
