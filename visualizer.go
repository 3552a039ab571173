// Package melodywheel renders a MIDI file as a circular melody-pattern
// animation synchronized to SoundFont playback.
package melodywheel

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mwheel/melodywheel/internal/projection"
	"github.com/mwheel/melodywheel/internal/render"
	"github.com/mwheel/melodywheel/internal/score"
	"github.com/mwheel/melodywheel/internal/vocal"
)

// Direction re-exports the radial travel mode for callers.
type Direction = projection.Direction

const (
	Inward  = projection.Inward
	Outward = projection.Outward
)

// Circle re-exports the pitch-wheel granularity ratio.
type Circle = projection.Circle

// resizeDebounce is the quiet period after the last resize before the
// viewport is actually reconfigured.
const resizeDebounce = 50 * time.Millisecond

type Option func(*config)

type config struct {
	sampleRate int
	loop       bool
	render     render.Config
}

func defaultConfig() config {
	return config{
		sampleRate: 44100,
		loop:       true,
		render:     render.DefaultConfig(),
	}
}

func WithSampleRate(rate int) Option {
	return func(c *config) { c.sampleRate = rate }
}

func WithLoop(enabled bool) Option {
	return func(c *config) { c.loop = enabled }
}

func WithDirection(d Direction) Option {
	return func(c *config) { c.render.Direction = d }
}

func WithCircle(circle Circle) Option {
	return func(c *config) { c.render.Circle = circle }
}

// WithMagnification sets the size scaling percentage (100 = default).
func WithMagnification(pct float64) Option {
	return func(c *config) { c.render.Magnification = pct }
}

func WithMargins(top, bottom float64) Option {
	return func(c *config) {
		c.render.TopMargin = top
		c.render.BottomMargin = bottom
	}
}

func WithAppearingColor(col color.RGBA) Option {
	return func(c *config) { c.render.Appearing = col }
}

// WithPalette sets the sounding colors, indexed by track mod len.
func WithPalette(palette []color.RGBA) Option {
	return func(c *config) { c.render.Palette = palette }
}

// Visualizer ties the score, the playback clock, and the frame renderer
// together behind one API. All methods are meant to be called from the
// game loop goroutine; nothing here spawns threads of its own.
type Visualizer struct {
	vocal    *vocal.Vocal
	renderer *render.Renderer
	target   *render.EbitenTarget
	sc       *score.Score

	pendingW, pendingH float64
	resizeAt           time.Time
	resizePending      bool
}

// New constructs the visualizer. Failure to set up the draw primitive
// or the audio backend is fatal; there is no degraded mode.
func New(opts ...Option) (*Visualizer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	voc, err := vocal.New(cfg.sampleRate, cfg.loop)
	if err != nil {
		return nil, err
	}
	rend, err := render.New(voc, cfg.render)
	if err != nil {
		return nil, err
	}
	target, err := render.NewEbitenTarget()
	if err != nil {
		return nil, err
	}
	return &Visualizer{
		vocal:    voc,
		renderer: rend,
		target:   target,
	}, nil
}

// LoadSoundFont loads the SF2 file used for synthesis.
func (v *Visualizer) LoadSoundFont(path string) error {
	return v.vocal.LoadSoundFont(path)
}

// LoadScore parses the MIDI file for the visual streams and hands the
// same file to the synthesizer. The score's duration becomes the loop
// wrap length of the playback clock.
func (v *Visualizer) LoadScore(path string) error {
	sc, err := score.Load(path)
	if err != nil {
		return err
	}
	if err := v.vocal.LoadMIDI(path, sc.Duration()); err != nil {
		return err
	}
	v.sc = sc
	v.renderer.SetScore(sc)
	return nil
}

// Score returns the loaded score, or nil.
func (v *Visualizer) Score() *score.Score { return v.sc }

// Play starts playback from the beginning.
func (v *Visualizer) Play() error { return v.vocal.Play() }

// TogglePause pauses a running stream or resumes a paused one.
func (v *Visualizer) TogglePause() {
	if v.vocal.Playing() {
		v.vocal.Pause()
	} else {
		v.vocal.Resume()
	}
}

// Stop tears down the audio stream.
func (v *Visualizer) Stop() error { return v.vocal.Stop() }

// Playing reports whether audio is running.
func (v *Visualizer) Playing() bool { return v.vocal.Playing() }

// Key returns the live transposition in semitones.
func (v *Visualizer) Key() float64 { return v.vocal.Key() }

// ShiftKey adjusts the live transposition by delta semitones.
func (v *Visualizer) ShiftKey(delta float64) {
	v.vocal.SetKey(v.vocal.Key() + delta)
}

// Direction returns the current radial travel mode.
func (v *Visualizer) Direction() Direction { return v.renderer.Config().Direction }

// ToggleDirection flips between inward and outward travel.
func (v *Visualizer) ToggleDirection() {
	cfg := v.renderer.Config()
	if cfg.Direction == Inward {
		cfg.Direction = Outward
	} else {
		cfg.Direction = Inward
	}
	v.renderer.SetConfig(cfg)
}

// CircleMode returns the current pitch-wheel granularity.
func (v *Visualizer) CircleMode() Circle { return v.renderer.Config().Circle }

// CycleCircle advances to the next wheel granularity.
func (v *Visualizer) CycleCircle() {
	cfg := v.renderer.Config()
	all := projection.Circles()
	next := all[0]
	for i, c := range all {
		if c == cfg.Circle {
			next = all[(i+1)%len(all)]
			break
		}
	}
	cfg.Circle = next
	v.renderer.SetConfig(cfg)
}

// Magnification returns the size scaling percentage.
func (v *Visualizer) Magnification() float64 { return v.renderer.Config().Magnification }

// SetMagnification sets the size scaling percentage, floored at 1.
func (v *Visualizer) SetMagnification(pct float64) {
	if pct < 1 {
		pct = 1
	}
	cfg := v.renderer.Config()
	cfg.Magnification = pct
	v.renderer.SetConfig(cfg)
}

// Resize schedules a viewport reconfiguration. Repeated calls within
// the debounce window cancel and reschedule; the pending size is
// applied on the first Render after the quiet period.
func (v *Visualizer) Resize(w, h int) {
	if vw, vh := v.renderer.Viewport(); vw == 0 || vh == 0 {
		// First size observation: nothing drawn yet, no reason to wait.
		v.renderer.SetViewport(float64(w), float64(h))
		return
	}
	v.pendingW = float64(w)
	v.pendingH = float64(h)
	v.resizeAt = time.Now().Add(resizeDebounce)
	v.resizePending = true
}

// Render draws one frame onto screen.
func (v *Visualizer) Render(screen *ebiten.Image) {
	v.flushResize(time.Now())
	v.target.Begin(screen)
	v.renderer.Render(v.target)
}

func (v *Visualizer) flushResize(now time.Time) {
	if !v.resizePending || now.Before(v.resizeAt) {
		return
	}
	v.resizePending = false
	v.renderer.SetViewport(v.pendingW, v.pendingH)
}

// Viewport returns the active drawable size in pixels.
func (v *Visualizer) Viewport() (w, h float64) { return v.renderer.Viewport() }
