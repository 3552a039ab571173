// Package vocal synthesizes the loaded MIDI file through a SoundFont
// and exposes the playback clock the renderer is driven by.
package vocal

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

// Vocal owns the synthesizer, the audio stream, and the transport
// state. The render loop only ever reads Now/Key/Playing from it.
type Vocal struct {
	mu         sync.Mutex
	sampleRate int
	font       *meltysynth.SoundFont
	midi       *meltysynth.MidiFile
	player     *player

	loop   bool
	length float64 // song length in seconds, for loop wrap
	key    float64 // live transposition, semitones; visual only
}

// New returns a Vocal with no sound font or song loaded. The audio
// device is not touched until Play.
func New(sampleRate int, loop bool) (*Vocal, error) {
	if sampleRate <= 0 {
		return nil, errors.New("vocal: sample rate must be positive")
	}
	return &Vocal{sampleRate: sampleRate, loop: loop}, nil
}

// LoadSoundFont loads the SF2 file used for synthesis.
func (v *Vocal) LoadSoundFont(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open soundfont: %w", err)
	}
	defer f.Close()
	font, err := meltysynth.NewSoundFont(f)
	if err != nil {
		return fmt.Errorf("parse soundfont %s: %w", path, err)
	}
	v.mu.Lock()
	v.font = font
	v.mu.Unlock()
	return nil
}

// LoadMIDI loads the song to synthesize. length is the song duration in
// seconds as measured by the score loader; it bounds the loop wrap of
// the clock.
func (v *Vocal) LoadMIDI(path string, length float64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open midi: %w", err)
	}
	defer f.Close()
	mid, err := meltysynth.NewMidiFile(f)
	if err != nil {
		return fmt.Errorf("parse midi %s: %w", path, err)
	}
	v.mu.Lock()
	v.midi = mid
	v.length = length
	v.mu.Unlock()
	return nil
}

// Play starts (or restarts) playback from the beginning. A fresh
// synthesizer is built each time so voice state never leaks between
// runs.
func (v *Vocal) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.font == nil {
		return errors.New("vocal: no soundfont loaded")
	}
	if v.midi == nil {
		return errors.New("vocal: no midi loaded")
	}
	settings := meltysynth.NewSynthesizerSettings(int32(v.sampleRate))
	synth, err := meltysynth.NewSynthesizer(v.font, settings)
	if err != nil {
		return fmt.Errorf("create synthesizer: %w", err)
	}
	seq := meltysynth.NewMidiFileSequencer(synth)
	seq.Play(v.midi, v.loop)

	if v.player != nil {
		_ = v.player.Stop()
	}
	pl, err := newPlayer(v.sampleRate, &sequencerSource{seq: seq})
	if err != nil {
		return err
	}
	v.player = pl
	pl.Play()
	return nil
}

// Pause suspends the audio stream; the clock freezes with it.
func (v *Vocal) Pause() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.player != nil {
		v.player.Pause()
	}
}

// Resume continues a paused stream.
func (v *Vocal) Resume() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.player != nil {
		v.player.Play()
	}
}

// Stop tears down the audio stream.
func (v *Vocal) Stop() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.player == nil {
		return nil
	}
	err := v.player.Stop()
	v.player = nil
	return err
}

// Now returns the current playback time in seconds: the audio driver's
// output position (what the listener actually hears), wrapped by the
// song length when looping. The wrap is what makes the clock regress at
// a loop restart; downstream cursor tracking recovers from that.
func (v *Vocal) Now() float64 {
	v.mu.Lock()
	pl := v.player
	loop := v.loop
	length := v.length
	v.mu.Unlock()
	if pl == nil {
		return 0
	}
	pos := pl.Position().Seconds()
	if loop && length > 0 {
		pos = math.Mod(pos, length)
	}
	return pos
}

// Key returns the live transposition in semitones.
func (v *Vocal) Key() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key
}

// SetKey sets the live transposition in semitones. The shift is applied
// to the visual pitch wheel only; synthesis is unaffected.
func (v *Vocal) SetKey(semitones float64) {
	v.mu.Lock()
	v.key = semitones
	v.mu.Unlock()
}

// Playing reports whether the audio stream is running.
func (v *Vocal) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.player != nil && v.player.IsPlaying()
}

// sequencerSource adapts the meltysynth sequencer to the interleaved
// stereo float32 stream the audio backend reads.
type sequencerSource struct {
	seq   *meltysynth.MidiFileSequencer
	left  []float32
	right []float32
}

func (s *sequencerSource) Process(dst []float32) {
	frames := len(dst) / 2
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	s.left = s.left[:frames]
	s.right = s.right[:frames]
	s.seq.Render(s.left, s.right)
	for i := 0; i < frames; i++ {
		dst[i*2] = s.left[i]
		dst[i*2+1] = s.right[i]
	}
}
