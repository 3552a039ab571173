package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/mwheel/melodywheel/internal/projection"
	"github.com/mwheel/melodywheel/internal/score"
)

type fakeClock struct {
	now float64
	key float64
}

func (c *fakeClock) Now() float64 { return c.now }
func (c *fakeClock) Key() float64 { return c.key }

type drawCall struct {
	tf Transform
	c  color.RGBA
}

// recorder captures FillQuad calls so tests can assert on the issued
// frame instead of pixels.
type recorder struct {
	calls []drawCall
}

func (r *recorder) FillQuad(t Transform, c color.RGBA) {
	r.calls = append(r.calls, drawCall{tf: t, c: c})
}

func testScore(notes, percs []score.Event) *score.Score {
	return &score.Score{
		Notes:       notes,
		Percussions: percs,
		TimeMap:     score.NewTimeMap(480, nil, nil),
		TrackCount:  4,
	}
}

func newTestRenderer(t *testing.T, clock Clock) *Renderer {
	t.Helper()
	r, err := New(clock, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.SetViewport(800, 600)
	return r
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, DefaultConfig()); err == nil {
		t.Fatal("nil clock should fail construction")
	}
	cfg := DefaultConfig()
	cfg.Palette = nil
	if _, err := New(&fakeClock{}, cfg); err == nil {
		t.Fatal("empty palette should fail construction")
	}
}

func TestRenderNoScoreIsSilent(t *testing.T) {
	r := newTestRenderer(t, &fakeClock{now: 1})
	rec := &recorder{}
	r.Render(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("no score loaded, yet %d draw calls issued", len(rec.calls))
	}
}

func TestRenderNoViewportIsSilent(t *testing.T) {
	r, err := New(&fakeClock{}, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.SetScore(testScore([]score.Event{{Time: 0, Duration: 1}}, nil))
	rec := &recorder{}
	r.Render(rec)
	if len(rec.calls) != 0 {
		t.Fatalf("zero viewport, yet %d draw calls issued", len(rec.calls))
	}
}

func TestRenderSoundingNote(t *testing.T) {
	clock := &fakeClock{now: 2.25}
	r := newTestRenderer(t, clock)
	r.SetScore(testScore([]score.Event{
		{Time: 2.0, Duration: 0.5, Pitch: 72, Track: 1},
	}, nil))

	rec := &recorder{}
	r.Render(rec)

	// One sounding note plus the measure marker.
	if len(rec.calls) != 2 {
		t.Fatalf("got %d draw calls, want 2", len(rec.calls))
	}
	note := rec.calls[0]
	if note.c != r.Config().Palette[1] {
		t.Fatalf("sounding note color %v, want palette[1] %v", note.c, r.Config().Palette[1])
	}
	// Pitch 72 at zero key shift sits on angle 0; the midpoint of the
	// note is exactly at now, so the radial offset is zero and the quad
	// is centered horizontally.
	if math.Abs(note.tf[12]) > 1e-9 {
		t.Fatalf("translate-X = %v, want 0", note.tf[12])
	}
	// Side is unit * duration.
	visibleH := 600.0 - r.Config().TopMargin - r.Config().BottomMargin
	unit := projection.UnitSize(800, visibleH, projection.CircleTime(100))
	wantScaleX := 2 * (unit * 0.5) / 800
	if math.Abs(note.tf[0]-wantScaleX) > 1e-9 {
		t.Fatalf("scale-X = %v, want %v", note.tf[0], wantScaleX)
	}

	// After the note ends only the marker remains.
	clock.now = 3.0
	rec.calls = nil
	r.Render(rec)
	if len(rec.calls) != 1 {
		t.Fatalf("after release: got %d draw calls, want 1 (marker)", len(rec.calls))
	}
	if rec.calls[0].c != r.Config().Marker {
		t.Fatalf("remaining call is %v, want marker color", rec.calls[0].c)
	}
}

func TestRenderAppearingBeforeSounding(t *testing.T) {
	r := newTestRenderer(t, &fakeClock{now: 0.5})
	r.SetScore(testScore([]score.Event{
		{Time: 0, Duration: 1, Pitch: 72, Track: 0},   // sounding
		{Time: 1.5, Duration: 1, Pitch: 74, Track: 0}, // within the lead window
	}, nil))

	rec := &recorder{}
	r.Render(rec)

	if len(rec.calls) != 3 {
		t.Fatalf("got %d draw calls, want 3", len(rec.calls))
	}
	if rec.calls[0].c != r.Config().Appearing {
		t.Fatalf("first call color %v, want appearing style", rec.calls[0].c)
	}
	if rec.calls[1].c != r.Config().Palette[0] {
		t.Fatalf("second call color %v, want sounding palette[0]", rec.calls[1].c)
	}
	if rec.calls[2].c != r.Config().Marker {
		t.Fatalf("third call color %v, want marker", rec.calls[2].c)
	}
}

func TestRenderPercussionReverseOrder(t *testing.T) {
	r := newTestRenderer(t, &fakeClock{now: 0.3})
	r.SetScore(testScore(nil, []score.Event{
		{Time: 0.1, Duration: 0.1, Track: 9, Velocity: 0.5, MeasurePos: 0.25},
		{Time: 0.2, Duration: 0.1, Track: 9, Velocity: 1.0, MeasurePos: 0.5},
	}))

	rec := &recorder{}
	r.Render(rec)

	// Marker first, then the two sounding hits most recent first.
	if len(rec.calls) != 3 {
		t.Fatalf("got %d draw calls, want 3", len(rec.calls))
	}
	first, second := rec.calls[1], rec.calls[2]
	// The more recent hit (measure fraction 0.5) must be issued before
	// the older one (0.25); tell them apart by translate-X.
	if first.tf[12] <= second.tf[12] {
		t.Fatalf("reverse order violated: first x %v, second x %v", first.tf[12], second.tf[12])
	}
	// Sounding hits scale with velocity: 0.5+1.5*v.
	if first.tf[0] <= second.tf[0] {
		t.Fatalf("velocity scaling missing: full-velocity hit %v not larger than half %v", first.tf[0], second.tf[0])
	}
}

func TestRenderMarkerAlwaysPresent(t *testing.T) {
	r := newTestRenderer(t, &fakeClock{now: 99})
	r.SetScore(testScore(nil, nil))
	rec := &recorder{}
	r.Render(rec)
	if len(rec.calls) != 1 || rec.calls[0].c != r.Config().Marker {
		t.Fatalf("marker missing on an empty frame: %v", rec.calls)
	}
}

func TestRenderRecoversFromClockRegression(t *testing.T) {
	clock := &fakeClock{now: 10}
	r := newTestRenderer(t, clock)
	r.SetScore(testScore([]score.Event{
		{Time: 0, Duration: 1, Pitch: 72, Track: 0},
	}, nil))

	rec := &recorder{}
	r.Render(rec) // past the note; nothing but the marker
	if len(rec.calls) != 1 {
		t.Fatalf("pre-loop frame: got %d calls, want 1", len(rec.calls))
	}

	// Loop restart: the clock jumps back inside the note.
	clock.now = 0.5
	rec.calls = nil
	r.Render(rec)
	if len(rec.calls) != 2 {
		t.Fatalf("post-loop frame: got %d calls, want 2 (note + marker)", len(rec.calls))
	}
}

func TestSetConfigKeepsPaletteOnEmpty(t *testing.T) {
	r := newTestRenderer(t, &fakeClock{})
	cfg := r.Config()
	cfg.Palette = nil
	cfg.Magnification = 150
	r.SetConfig(cfg)
	if len(r.Config().Palette) == 0 {
		t.Fatal("empty palette was accepted")
	}
	if r.Config().Magnification != 150 {
		t.Fatal("rest of config not applied")
	}
}
