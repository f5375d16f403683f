package surface

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/inkcalc/internal/history"
	"github.com/example/inkcalc/internal/raster"
)

type fixedBrush struct {
	col   color.RGBA
	width int
}

func (b fixedBrush) Color() color.RGBA { return b.col }
func (b fixedBrush) Width() int        { return b.width }

var (
	bg  = color.RGBA{0, 0, 0, 255}
	red = color.RGBA{255, 0, 0, 255}
)

func newSurface() (*Surface, *raster.Raster, *history.Stack) {
	r := raster.New(40, 40, bg)
	h := history.New()
	h.Capture(r)
	return New(r, fixedBrush{col: red, width: 1}, h), r, h
}

func TestStrokeLifecycle(t *testing.T) {
	s, r, h := newSurface()
	if s.State() != Idle {
		t.Fatalf("initial state %v", s.State())
	}
	s.PointerDown(image.Pt(5, 5))
	if s.State() != Drawing {
		t.Fatalf("state after down = %v", s.State())
	}
	s.PointerMove(image.Pt(10, 5))
	if got := r.Image().RGBAAt(8, 5); got != red {
		t.Fatalf("segment not rasterised synchronously: %+v", got)
	}
	if h.Len() != 1 {
		t.Fatal("capture must wait for the stroke to finish")
	}
	if !s.PointerUp(image.Pt(10, 9)) {
		t.Fatal("PointerUp while drawing should report true")
	}
	if s.State() != Idle {
		t.Fatalf("state after up = %v", s.State())
	}
	if h.Len() != 2 {
		t.Fatalf("history Len = %d, want 2", h.Len())
	}
	if got := r.Image().RGBAAt(10, 9); got != red {
		t.Fatalf("final point not drawn: %+v", got)
	}
}

func TestStrayEventsWhileIdleAreIgnored(t *testing.T) {
	s, r, h := newSurface()
	before := r.Snapshot()
	if s.PointerMove(image.Pt(3, 3)) {
		t.Fatal("move while idle drew")
	}
	if s.PointerUp(image.Pt(4, 4)) {
		t.Fatal("up while idle reported a stroke")
	}
	if s.PointerLeave() {
		t.Fatal("leave while idle reported a stroke")
	}
	if !r.Snapshot().Equal(before) {
		t.Fatal("idle events mutated the raster")
	}
	if h.Len() != 1 {
		t.Fatalf("idle events captured: Len=%d", h.Len())
	}
}

func TestLeaveFinishesStroke(t *testing.T) {
	s, _, h := newSurface()
	s.PointerDown(image.Pt(1, 1))
	s.PointerMove(image.Pt(20, 20))
	if !s.PointerLeave() {
		t.Fatal("leave while drawing should finish the stroke")
	}
	if h.Len() != 2 {
		t.Fatalf("history Len = %d, want 2", h.Len())
	}
	// Re-entering without a new press must not draw.
	if s.PointerMove(image.Pt(30, 30)) {
		t.Fatal("move after leave drew without a press")
	}
}

func TestDownWhileDrawingStartsNewStroke(t *testing.T) {
	s, _, h := newSurface()
	s.PointerDown(image.Pt(1, 1))
	s.PointerDown(image.Pt(30, 30))
	if h.Len() != 2 {
		t.Fatalf("first stroke not captured: Len=%d", h.Len())
	}
	if st := s.Stroke(); st == nil || st.Points[0] != image.Pt(30, 30) {
		t.Fatalf("unexpected stroke %+v", st)
	}
}

func TestStrokeUsesBrushAtPress(t *testing.T) {
	r := raster.New(20, 20, bg)
	b := &mutableBrush{col: red, width: 1}
	s := New(r, b, nil)
	s.PointerDown(image.Pt(2, 2))
	b.col = color.RGBA{0, 0, 255, 255}
	s.PointerMove(image.Pt(6, 2))
	if got := r.Image().RGBAAt(5, 2); got != red {
		t.Fatalf("stroke colour changed mid-stroke: %+v", got)
	}
}

type mutableBrush struct {
	col   color.RGBA
	width int
}

func (b *mutableBrush) Color() color.RGBA { return b.col }
func (b *mutableBrush) Width() int        { return b.width }
