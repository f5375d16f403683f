package history

import (
	"image"
	"image/color"
	"testing"

	"github.com/example/inkcalc/internal/raster"
)

var (
	bg  = color.RGBA{0, 0, 0, 255}
	ink = color.RGBA{255, 255, 255, 255}
)

// stroke draws a distinguishable horizontal line on row y and captures it.
func stroke(s *Stack, r *raster.Raster, y int) {
	r.DrawLine(image.Pt(0, y), image.Pt(9, y), ink, 1)
	s.Capture(r)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	r := raster.New(10, 10, bg)
	s := New()
	s.Capture(r)
	for y := 1; y <= 5; y++ {
		stroke(s, r, y)
	}
	n := s.Len()
	if n != 6 {
		t.Fatalf("Len = %d, want 6", n)
	}
	final := r.Snapshot()

	for i := 0; i < n-1; i++ {
		if !s.Undo(r) {
			t.Fatalf("undo %d reported no-op", i)
		}
	}
	if !r.Empty() {
		t.Fatal("after undoing everything the canvas should be blank")
	}
	if s.Undo(r) {
		t.Fatal("undo at oldest entry must be a no-op")
	}
	for i := 0; i < n-1; i++ {
		if !s.Redo(r) {
			t.Fatalf("redo %d reported no-op", i)
		}
	}
	if !r.Snapshot().Equal(final) {
		t.Fatal("redo did not return to the final raster")
	}
	if s.Redo(r) {
		t.Fatal("redo at newest entry must be a no-op")
	}
}

func TestCaptureAfterUndoDiscardsRedoBranch(t *testing.T) {
	r := raster.New(10, 10, bg)
	s := New()
	s.Capture(r)
	stroke(s, r, 2)
	stroke(s, r, 4)

	s.Undo(r)
	stroke(s, r, 7)

	if s.CanRedo() {
		t.Fatal("redo branch should have been discarded")
	}
	before := r.Snapshot()
	if s.Redo(r) {
		t.Fatal("redo must be a no-op after a new capture")
	}
	if !r.Snapshot().Equal(before) {
		t.Fatal("no-op redo changed the raster")
	}
	if s.Len() != 3 || s.Index() != 2 {
		t.Fatalf("Len=%d Index=%d, want 3/2", s.Len(), s.Index())
	}
	if got := r.Image().RGBAAt(0, 4); got != bg {
		t.Fatalf("undone stroke reappeared: %+v", got)
	}
}

func TestClearResetsIndex(t *testing.T) {
	r := raster.New(4, 4, bg)
	s := New()
	s.Capture(r)
	s.Capture(r)
	s.Clear()
	if s.Len() != 0 || s.Index() != -1 || s.Current() != nil {
		t.Fatalf("Clear left Len=%d Index=%d", s.Len(), s.Index())
	}
	if s.Undo(r) || s.Redo(r) {
		t.Fatal("undo/redo on an empty stack must be no-ops")
	}
	s.Capture(r)
	if s.Index() != 0 {
		t.Fatalf("Index after first capture = %d", s.Index())
	}
}

func TestLimitDropsOldest(t *testing.T) {
	r := raster.New(10, 10, bg)
	s := New(WithLimit(3))
	s.Capture(r)
	for y := 1; y <= 4; y++ {
		stroke(s, r, y)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if s.Index() != 2 {
		t.Fatalf("Index = %d, want 2", s.Index())
	}
	s.Undo(r)
	s.Undo(r)
	if s.CanUndo() {
		t.Fatal("oldest retained entry should be the floor")
	}
	// Rows 1 and 2 were drawn before the oldest retained capture.
	if got := r.Image().RGBAAt(0, 2); got != ink {
		t.Fatalf("expected row 2 inked in oldest retained entry, got %+v", got)
	}
	if got := r.Image().RGBAAt(0, 3); got != bg {
		t.Fatalf("expected row 3 blank in oldest retained entry, got %+v", got)
	}
}
