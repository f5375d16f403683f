// Package surface turns pointer input into strokes on a raster.
package surface

import (
	"image"
	"image/color"

	"github.com/example/inkcalc/internal/raster"
)

// State is the pointer state of the surface.
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	default:
		return "unknown"
	}
}

// Brush supplies the colour and width applied to a new stroke.
type Brush interface {
	Color() color.RGBA
	Width() int
}

// Capturer receives the raster after each completed stroke.
type Capturer interface {
	Capture(r *raster.Raster)
}

// Stroke is the path being drawn while the pointer is down.
type Stroke struct {
	Color  color.RGBA
	Width  int
	Points []image.Point
}

// Surface is the Idle/Drawing state machine. It is not safe for concurrent
// use; the session serialises access.
type Surface struct {
	raster   *raster.Raster
	brush    Brush
	capturer Capturer

	state  State
	stroke *Stroke
}

// New creates a Surface drawing on r.
func New(r *raster.Raster, brush Brush, capturer Capturer) *Surface {
	return &Surface{raster: r, brush: brush, capturer: capturer}
}

// State returns the current pointer state.
func (s *Surface) State() State { return s.state }

// Stroke returns the in-progress stroke, or nil while idle.
func (s *Surface) Stroke() *Stroke { return s.stroke }

// PointerDown starts a new stroke at p. A stroke still in progress is
// finished first.
func (s *Surface) PointerDown(p image.Point) {
	if s.state == Drawing {
		s.finish()
	}
	st := &Stroke{Color: s.brush.Color(), Width: s.brush.Width(), Points: []image.Point{p}}
	s.stroke = st
	s.state = Drawing
	s.raster.DrawDot(p, st.Color, st.Width)
}

// PointerMove extends the stroke to p and rasterises the new segment.
// It reports whether anything was drawn.
func (s *Surface) PointerMove(p image.Point) bool {
	if s.state != Drawing {
		return false
	}
	last := s.stroke.Points[len(s.stroke.Points)-1]
	if last == p {
		return false
	}
	s.stroke.Points = append(s.stroke.Points, p)
	s.raster.DrawLine(last, p, s.stroke.Color, s.stroke.Width)
	return true
}

// PointerUp ends the stroke, extending it to p first.
func (s *Surface) PointerUp(p image.Point) bool {
	if s.state != Drawing {
		return false
	}
	s.PointerMove(p)
	s.finish()
	return true
}

// PointerLeave ends the stroke without a final point.
func (s *Surface) PointerLeave() bool {
	if s.state != Drawing {
		return false
	}
	s.finish()
	return true
}

// Abort drops the in-progress stroke without capturing it. Ink already
// drawn stays in the raster; callers clear or restore it themselves.
func (s *Surface) Abort() {
	s.state = Idle
	s.stroke = nil
}

func (s *Surface) finish() {
	s.state = Idle
	s.stroke = nil
	if s.capturer != nil {
		s.capturer.Capture(s.raster)
	}
}
