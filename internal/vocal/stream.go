package vocal

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// streamReader adapts a SampleSource to the byte reader the ebiten
// audio context consumes (32-bit float, little endian, stereo).
type streamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *streamReader) Close() error { return nil }

type player struct {
	player *ebitaudio.Player
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedAudioContext returns the process-wide ebiten audio context;
// ebiten allows only one.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func newPlayer(sampleRate int, source SampleSource) (*player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(&streamReader{source: source})
	if err != nil {
		return nil, err
	}
	return &player{player: pl}, nil
}

func (p *player) Play()           { p.player.Play() }
func (p *player) Pause()          { p.player.Pause() }
func (p *player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns the driver's output position: what the listener
// actually hears right now.
func (p *player) Position() time.Duration { return p.player.Position() }

func (p *player) Stop() error {
	p.player.Pause()
	return p.player.Close()
}
