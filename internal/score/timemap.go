package score

// TempoChange is a tempo event in the source file, in MIDI ticks.
type TempoChange struct {
	Tick          int64
	MicrosPerBeat float64
}

// MeterChange is a time-signature event in the source file.
type MeterChange struct {
	Tick       int64
	Num, Denom int
}

// TimeMap converts between playback seconds, MIDI ticks, and fractional
// measure positions under a piecewise-constant tempo and time-signature
// map. Both conversions are monotonic in their argument.
type TimeMap struct {
	ppq      float64
	tempos   []tempoSegment
	measures []measureSegment
}

type tempoSegment struct {
	startTick  float64
	startSec   float64
	secPerTick float64
}

type measureSegment struct {
	startTick       float64
	startMeasure    float64
	ticksPerMeasure float64
}

// NewTimeMap builds a TimeMap from the raw tempo and meter events of a
// file with the given ticks-per-quarter resolution. Events need not be
// sorted; a 120 BPM 4/4 segment is implied at tick 0 when the file
// starts without one.
func NewTimeMap(ppq int, tempos []TempoChange, meters []MeterChange) *TimeMap {
	if ppq <= 0 {
		ppq = 480
	}
	tm := &TimeMap{ppq: float64(ppq)}

	sortTempos(tempos)
	if len(tempos) == 0 || tempos[0].Tick != 0 {
		tempos = append([]TempoChange{{Tick: 0, MicrosPerBeat: 500000}}, tempos...)
	}
	var sec float64
	for i, tc := range tempos {
		spt := tc.MicrosPerBeat / 1e6 / tm.ppq
		if i > 0 {
			prev := tm.tempos[i-1]
			sec = prev.startSec + (float64(tc.Tick)-prev.startTick)*prev.secPerTick
		}
		tm.tempos = append(tm.tempos, tempoSegment{
			startTick:  float64(tc.Tick),
			startSec:   sec,
			secPerTick: spt,
		})
	}

	sortMeters(meters)
	if len(meters) == 0 || meters[0].Tick != 0 {
		meters = append([]MeterChange{{Tick: 0, Num: 4, Denom: 4}}, meters...)
	}
	var measure float64
	for i, mc := range meters {
		num, den := mc.Num, mc.Denom
		if num <= 0 {
			num = 4
		}
		if den <= 0 {
			den = 4
		}
		tpm := tm.ppq * 4 * float64(num) / float64(den)
		if i > 0 {
			prev := tm.measures[i-1]
			measure = prev.startMeasure + (float64(mc.Tick)-prev.startTick)/prev.ticksPerMeasure
		}
		tm.measures = append(tm.measures, measureSegment{
			startTick:       float64(mc.Tick),
			startMeasure:    measure,
			ticksPerMeasure: tpm,
		})
	}
	return tm
}

// SecondsToTicks maps a playback time in seconds to a fractional tick
// position under the tempo map.
func (tm *TimeMap) SecondsToTicks(sec float64) float64 {
	seg := tm.tempos[0]
	for _, s := range tm.tempos[1:] {
		if s.startSec > sec {
			break
		}
		seg = s
	}
	if seg.secPerTick <= 0 {
		return seg.startTick
	}
	return seg.startTick + (sec-seg.startSec)/seg.secPerTick
}

// TicksToFixedMeasures maps a tick position to a fractional measure
// count honoring every time-signature change before it.
func (tm *TimeMap) TicksToFixedMeasures(tick float64) float64 {
	seg := tm.measures[0]
	for _, s := range tm.measures[1:] {
		if s.startTick > tick {
			break
		}
		seg = s
	}
	return seg.startMeasure + (tick-seg.startTick)/seg.ticksPerMeasure
}

// MeasureAt is the composition of the two conversions: the fractional
// measure position at a playback time.
func (tm *TimeMap) MeasureAt(sec float64) float64 {
	return tm.TicksToFixedMeasures(tm.SecondsToTicks(sec))
}

func sortTempos(tempos []TempoChange) {
	for i := 1; i < len(tempos); i++ {
		for j := i; j > 0 && tempos[j-1].Tick > tempos[j].Tick; j-- {
			tempos[j-1], tempos[j] = tempos[j], tempos[j-1]
		}
	}
}

func sortMeters(meters []MeterChange) {
	for i := 1; i < len(meters); i++ {
		for j := i; j > 0 && meters[j-1].Tick > meters[j].Tick; j-- {
			meters[j-1], meters[j] = meters[j], meters[j-1]
		}
	}
}
