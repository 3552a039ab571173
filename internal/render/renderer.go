package render

import (
	"errors"
	"image/color"
	"math"

	"github.com/mwheel/melodywheel/internal/projection"
	"github.com/mwheel/melodywheel/internal/score"
	"github.com/mwheel/melodywheel/internal/timeline"
)

// Clock provides the playback state the renderer reads once per frame.
// Implementations must not block.
type Clock interface {
	// Now returns the current playback time in seconds. It may regress
	// on loop restarts or backward seeks; the renderer recovers locally.
	Now() float64
	// Key returns the live transposition in semitones (fractional
	// allowed).
	Key() float64
}

// percussionReleasing is the window after a hit during which it stays
// in the sounding phase on the measure wheel.
const percussionReleasing = 0.5

// Config is the externally adjustable rendering surface. Safe to change
// between frames; nothing here needs synchronization since the render
// loop is the only logical thread of control.
type Config struct {
	Circle        projection.Circle
	Direction     projection.Direction
	Magnification float64 // percent; 100 maps 3 seconds across the radius
	TopMargin     float64
	BottomMargin  float64
	Appearing     color.RGBA   // pre-attack dim style
	Palette       []color.RGBA // sounding colors, indexed track mod len
	Marker        color.RGBA   // persistent measure-position marker
}

// DefaultConfig returns the standard chromatic inward view.
func DefaultConfig() Config {
	return Config{
		Circle:        projection.Chromatic,
		Direction:     projection.Inward,
		Magnification: 100,
		TopMargin:     40,
		BottomMargin:  80,
		Appearing:     color.RGBA{64, 64, 80, 160},
		Marker:        color.RGBA{224, 224, 224, 255},
		Palette: []color.RGBA{
			{230, 80, 80, 255},
			{230, 160, 60, 255},
			{220, 210, 70, 255},
			{110, 210, 90, 255},
			{70, 190, 200, 255},
			{90, 120, 230, 255},
			{160, 90, 220, 255},
			{220, 100, 180, 255},
		},
	}
}

// Renderer orchestrates one frame: refresh the phase cursors for the
// current time, then walk the visible slices issuing draw calls.
type Renderer struct {
	clock Clock
	cfg   Config

	viewW, viewH float64

	sc    *score.Score
	notes *timeline.Stream
	percs *timeline.Stream
}

// New builds a renderer around an injected clock. Construction fails
// rather than degrade: a nil clock or an empty palette leaves nothing
// sensible to draw with.
func New(clock Clock, cfg Config) (*Renderer, error) {
	if clock == nil {
		return nil, errors.New("render: nil clock")
	}
	if len(cfg.Palette) == 0 {
		return nil, errors.New("render: empty sounding palette")
	}
	return &Renderer{
		clock: clock,
		cfg:   cfg,
		notes: timeline.NewStream(nil),
		percs: timeline.NewPercussionStream(nil, percussionReleasing),
	}, nil
}

// SetScore binds a new score and rewinds all phase cursors.
func (r *Renderer) SetScore(sc *score.Score) {
	r.sc = sc
	if sc == nil {
		r.notes.Reset(nil)
		r.percs.Reset(nil)
		return
	}
	r.notes.Reset(sc.Notes)
	r.percs.Reset(sc.Percussions)
}

// SetViewport sets the drawable size in pixels.
func (r *Renderer) SetViewport(w, h float64) {
	r.viewW = w
	r.viewH = h
}

// Viewport returns the current drawable size.
func (r *Renderer) Viewport() (w, h float64) { return r.viewW, r.viewH }

// Config returns the current render configuration.
func (r *Renderer) Config() Config { return r.cfg }

// SetConfig replaces the render configuration. An empty palette is
// ignored to keep the sounding phase drawable.
func (r *Renderer) SetConfig(cfg Config) {
	if len(cfg.Palette) == 0 {
		cfg.Palette = r.cfg.Palette
	}
	r.cfg = cfg
}

// Render draws one frame. Invoked once per display refresh; never
// blocks. With no score loaded this is a silent no-op frame.
func (r *Renderer) Render(t Target) {
	if r.sc == nil || r.viewW <= 0 || r.viewH <= 0 {
		return
	}
	now := r.clock.Now()
	key := r.clock.Key()

	ct := projection.CircleTime(r.cfg.Magnification)
	lead := r.cfg.Direction.AppearingLead(ct)
	r.notes.Refresh(now, lead)
	r.percs.Refresh(now, lead)

	visibleH := r.viewH - r.cfg.TopMargin - r.cfg.BottomMargin
	if visibleH < 1 {
		visibleH = 1
	}
	unit := projection.UnitSize(r.viewW, visibleH, ct)
	// Wheel center sits in the middle of the visible band, not the
	// viewport: margins shift it by half their difference.
	cy := (r.cfg.BottomMargin - r.cfg.TopMargin) / 2

	for _, ev := range r.notes.Appearing() {
		r.drawNote(t, ev, now, lead, key, unit, cy, r.cfg.Appearing)
	}
	for _, ev := range r.notes.Sounding() {
		r.drawNote(t, ev, now, lead, key, unit, cy, r.trackColor(ev.Track))
	}

	r.drawMeasureMarker(t, now, unit)

	// Percussion is walked in reverse from the cursor boundary down so
	// the most recent hit is issued against the boundary end of the
	// slice rather than buried mid-run.
	appearing := r.percs.Appearing()
	for i := len(appearing) - 1; i >= 0; i-- {
		r.drawPercussion(t, appearing[i], unit, false, r.cfg.Appearing)
	}
	sounding := r.percs.Sounding()
	for i := len(sounding) - 1; i >= 0; i-- {
		r.drawPercussion(t, sounding[i], unit, true, r.trackColor(sounding[i].Track))
	}
}

func (r *Renderer) trackColor(track int) color.RGBA {
	if track < 0 {
		track = -track
	}
	return r.cfg.Palette[track%len(r.cfg.Palette)]
}

func (r *Renderer) drawNote(t Target, ev score.Event, now, lead, key, unit, cy float64, c color.RGBA) {
	theta := r.cfg.Circle.Angle(float64(ev.Pitch), key)
	off := r.cfg.Direction.ViewOffset(ev.Time, ev.Duration, lead, now)
	dx := unit * off * math.Cos(theta)
	dy := unit * off * math.Sin(theta)
	s := unit * ev.Duration
	if s <= 0 {
		return
	}
	t.FillQuad(OrthoQuad(dx, dy+cy, s, s, r.viewW, r.viewH), c)
}

// barGeometry returns the measure-wheel bar in center-relative pixels:
// left edge, width, and the Y of the bar line inside the bottom margin.
func (r *Renderer) barGeometry() (x0, w, y float64) {
	w = 0.8 * r.viewW
	x0 = -w / 2
	y = -(r.viewH/2 - r.cfg.BottomMargin/2)
	return
}

func (r *Renderer) drawPercussion(t Target, ev score.Event, unit float64, sounding bool, c color.RGBA) {
	x0, w, y := r.barGeometry()
	frac := ev.MeasurePos - math.Floor(ev.MeasurePos)
	s := unit * 0.1
	if sounding {
		s *= 0.5 + 1.5*ev.Velocity
	}
	if s <= 0 {
		return
	}
	t.FillQuad(OrthoQuad(x0+w*frac, y, s, s, r.viewW, r.viewH), c)
}

// drawMeasureMarker draws the persistent marker at the current measure
// fraction, present every frame regardless of any event.
func (r *Renderer) drawMeasureMarker(t Target, now, unit float64) {
	x0, w, y := r.barGeometry()
	m := r.sc.TimeMap.MeasureAt(now)
	frac := m - math.Floor(m)
	s := unit * 0.12
	t.FillQuad(OrthoQuad(x0+w*frac, y, s, s, r.viewW, r.viewH), r.cfg.Marker)
}
