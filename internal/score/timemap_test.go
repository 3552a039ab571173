package score

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestTimeMapDefaults(t *testing.T) {
	// No events: implied 120 BPM 4/4 from tick 0.
	tm := NewTimeMap(480, nil, nil)
	if got := tm.SecondsToTicks(1); math.Abs(got-960) > eps {
		t.Fatalf("SecondsToTicks(1) = %v, want 960", got)
	}
	if got := tm.TicksToFixedMeasures(1920); math.Abs(got-1) > eps {
		t.Fatalf("TicksToFixedMeasures(1920) = %v, want 1", got)
	}
	if got := tm.MeasureAt(2); math.Abs(got-1) > eps {
		t.Fatalf("MeasureAt(2) = %v, want 1", got)
	}
}

func TestTimeMapTempoChange(t *testing.T) {
	// 120 BPM for two beats, then 60 BPM.
	tm := NewTimeMap(480, []TempoChange{
		{Tick: 0, MicrosPerBeat: 500000},
		{Tick: 960, MicrosPerBeat: 1000000},
	}, nil)

	cases := []struct{ sec, want float64 }{
		{0, 0},
		{0.5, 480},
		{1, 960},    // segment boundary
		{2, 1440},   // one second at 60 BPM is 480 ticks
		{3, 1920},
	}
	for _, c := range cases {
		if got := tm.SecondsToTicks(c.sec); math.Abs(got-c.want) > eps {
			t.Errorf("SecondsToTicks(%v) = %v, want %v", c.sec, got, c.want)
		}
	}
}

func TestTimeMapMeterChange(t *testing.T) {
	// One 4/4 measure then 3/4.
	tm := NewTimeMap(480, nil, []MeterChange{
		{Tick: 0, Num: 4, Denom: 4},
		{Tick: 1920, Num: 3, Denom: 4},
	})

	cases := []struct{ tick, want float64 }{
		{960, 0.5},
		{1920, 1},
		{1920 + 720, 1.5},
		{1920 + 1440, 2},
		{1920 + 2880, 3},
	}
	for _, c := range cases {
		if got := tm.TicksToFixedMeasures(c.tick); math.Abs(got-c.want) > eps {
			t.Errorf("TicksToFixedMeasures(%v) = %v, want %v", c.tick, got, c.want)
		}
	}
}

func TestTimeMapImpliedLeadingSegment(t *testing.T) {
	// First tempo event arrives mid-file; 120 BPM is implied before it.
	tm := NewTimeMap(480, []TempoChange{{Tick: 960, MicrosPerBeat: 1000000}}, nil)
	if got := tm.SecondsToTicks(0.5); math.Abs(got-480) > eps {
		t.Fatalf("SecondsToTicks(0.5) = %v, want 480", got)
	}
	if got := tm.SecondsToTicks(2); math.Abs(got-1440) > eps {
		t.Fatalf("SecondsToTicks(2) = %v, want 1440", got)
	}
}

func TestTimeMapUnsortedEvents(t *testing.T) {
	tm := NewTimeMap(480, []TempoChange{
		{Tick: 960, MicrosPerBeat: 1000000},
		{Tick: 0, MicrosPerBeat: 500000},
	}, nil)
	if got := tm.SecondsToTicks(2); math.Abs(got-1440) > eps {
		t.Fatalf("SecondsToTicks(2) = %v, want 1440", got)
	}
}

func TestTimeMapMonotonic(t *testing.T) {
	tm := NewTimeMap(480, []TempoChange{
		{Tick: 0, MicrosPerBeat: 500000},
		{Tick: 480, MicrosPerBeat: 250000},
		{Tick: 1920, MicrosPerBeat: 750000},
	}, []MeterChange{
		{Tick: 0, Num: 4, Denom: 4},
		{Tick: 960, Num: 7, Denom: 8},
	})
	prev := math.Inf(-1)
	for sec := 0.0; sec < 10; sec += 0.05 {
		m := tm.MeasureAt(sec)
		if m < prev {
			t.Fatalf("MeasureAt not monotonic: %v at %v after %v", m, sec, prev)
		}
		prev = m
	}
}
