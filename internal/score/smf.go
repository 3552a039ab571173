package score

import (
	"fmt"
	"io"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"
)

// percussionChannel is the General MIDI drum channel (0-based).
const percussionChannel = 9

type noteKey struct {
	track   int
	channel uint8
	key     uint8
}

type openNote struct {
	start    float64
	tick     int64
	velocity float64
}

// Load reads a Standard MIDI File from disk and builds a Score.
func Load(path string) (*Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a Standard MIDI File into the two time-sorted event
// streams plus the tempo/time-signature map. Channel 10 events land in
// the percussion stream; everything else in the note stream. Notes left
// open at end of file are closed at the file's last event time.
func Read(r io.Reader) (*Score, error) {
	rd := smf.ReadTracksFrom(r)

	var (
		sc        Score
		tempos    []TempoChange
		meters    []MeterChange
		noteTicks []int64
		percTicks []int64
		open      = map[noteKey][]openNote{}
		lastTime  float64
	)

	addEvent := func(k noteKey, on openNote, duration float64) {
		if duration < 0 {
			duration = 0
		}
		ev := Event{
			Time:     on.start,
			Duration: duration,
			Pitch:    int(k.key),
			Track:    k.track,
			Velocity: on.velocity,
		}
		if k.channel == percussionChannel {
			sc.Percussions = append(sc.Percussions, ev)
			percTicks = append(percTicks, on.tick)
		} else {
			sc.Notes = append(sc.Notes, ev)
			noteTicks = append(noteTicks, on.tick)
		}
	}

	rd.Do(func(ev smf.TrackEvent) {
		t := float64(ev.AbsMicroSeconds) / 1e6
		if t > lastTime {
			lastTime = t
		}
		if ev.TrackNo >= sc.TrackCount {
			sc.TrackCount = ev.TrackNo + 1
		}

		var bpm float64
		if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
			tempos = append(tempos, TempoChange{Tick: ev.AbsTicks, MicrosPerBeat: 6e7 / bpm})
			return
		}
		var num, den, cpt, dsq uint8
		if ev.Message.GetMetaTimeSig(&num, &den, &cpt, &dsq) {
			meters = append(meters, MeterChange{Tick: ev.AbsTicks, Num: int(num), Denom: int(den)})
			return
		}

		var ch, key, vel uint8
		if ev.Message.GetNoteStart(&ch, &key, &vel) {
			k := noteKey{track: ev.TrackNo, channel: ch, key: key}
			open[k] = append(open[k], openNote{start: t, tick: ev.AbsTicks, velocity: float64(vel) / 127})
			return
		}
		var ch2, key2 uint8
		if ev.Message.GetNoteEnd(&ch2, &key2) {
			k := noteKey{track: ev.TrackNo, channel: ch2, key: key2}
			stack := open[k]
			if len(stack) == 0 {
				return
			}
			on := stack[len(stack)-1]
			open[k] = stack[:len(stack)-1]
			addEvent(k, on, t-on.start)
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read score: %w", err)
	}

	// Close dangling note-ons at the last observed event time.
	for k, stack := range open {
		for _, on := range stack {
			addEvent(k, on, lastTime-on.start)
		}
	}

	ppq := 480
	if f := rd.SMF(); f != nil {
		if mt, ok := f.TimeFormat.(smf.MetricTicks); ok && mt > 0 {
			ppq = int(mt)
		}
	}
	sc.TimeMap = NewTimeMap(ppq, tempos, meters)

	for i := range sc.Notes {
		sc.Notes[i].MeasurePos = sc.TimeMap.TicksToFixedMeasures(float64(noteTicks[i]))
	}
	for i := range sc.Percussions {
		sc.Percussions[i].MeasurePos = sc.TimeMap.TicksToFixedMeasures(float64(percTicks[i]))
	}
	sc.normalize()
	return &sc, nil
}
