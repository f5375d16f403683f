package raster

import (
	"image"
	"image/color"
	"testing"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func TestNewFillsBackground(t *testing.T) {
	r := New(8, 4, black)
	if !r.Bounds().Eq(image.Rect(0, 0, 8, 4)) {
		t.Fatalf("unexpected bounds %v", r.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got := r.Image().RGBAAt(x, y); got != black {
				t.Fatalf("pixel (%d,%d) = %+v, want background", x, y, got)
			}
		}
	}
	if !r.Empty() {
		t.Fatal("fresh raster should be empty")
	}
}

func TestInkBoundsKnownRectangle(t *testing.T) {
	r := New(100, 80, black)
	for y := 30; y <= 50; y++ {
		for x := 10; x <= 20; x++ {
			r.Image().SetRGBA(x, y, white)
		}
	}
	box, ok := r.InkBounds()
	if !ok {
		t.Fatal("expected ink")
	}
	want := image.Rectangle{Min: image.Pt(10, 30), Max: image.Pt(20, 50)}
	if box != want {
		t.Fatalf("box = %v, want %v", box, want)
	}
}

func TestInkBoundsEmptyDegeneratesToCanvas(t *testing.T) {
	r := New(64, 32, black)
	box, ok := r.InkBounds()
	if ok {
		t.Fatal("expected no ink")
	}
	want := image.Rectangle{Min: image.Pt(0, 0), Max: image.Pt(63, 31)}
	if box != want {
		t.Fatalf("box = %v, want %v", box, want)
	}
}

func TestInkOnTransparentBackgroundUsesAlpha(t *testing.T) {
	r := New(10, 10, color.RGBA{})
	r.Image().SetRGBA(3, 4, color.RGBA{A: 1})
	box, ok := r.InkBounds()
	if !ok {
		t.Fatal("expected alpha>0 pixel to count as ink")
	}
	if box.Min != image.Pt(3, 4) || box.Max != image.Pt(3, 4) {
		t.Fatalf("unexpected box %v", box)
	}
	if r.IsInk(color.RGBA{R: 255}) {
		t.Fatal("fully transparent colour is never ink")
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	r := New(5, 5, black)
	r.DrawDot(image.Pt(2, 2), white, 1)
	snap := r.Snapshot()
	r.Clear()
	if got := snap.At(2, 2); got != white {
		t.Fatalf("snapshot changed after clear: %+v", got)
	}
	img := snap.Image()
	img.SetRGBA(0, 0, white)
	if got := snap.At(0, 0); got != black {
		t.Fatalf("mutating Image() leaked into snapshot: %+v", got)
	}
}

func TestRestoreOverwritesBuffer(t *testing.T) {
	r := New(6, 6, black)
	blank := r.Snapshot()
	r.DrawLine(image.Pt(0, 0), image.Pt(5, 5), white, 1)
	inked := r.Snapshot()
	r.Restore(blank)
	if !r.Snapshot().Equal(blank) {
		t.Fatal("restore did not bring back the blank canvas")
	}
	r.Restore(inked)
	if !r.Snapshot().Equal(inked) {
		t.Fatal("restore did not bring back the inked canvas")
	}
}

func TestDrawLineClipsToBounds(t *testing.T) {
	r := New(10, 10, black)
	r.DrawLine(image.Pt(-5, 5), image.Pt(20, 5), white, 3)
	box, ok := r.InkBounds()
	if !ok {
		t.Fatal("expected ink")
	}
	if box.Min.X != 0 || box.Max.X != 9 {
		t.Fatalf("line not clipped to canvas: %v", box)
	}
	if box.Min.Y != 4 || box.Max.Y != 6 {
		t.Fatalf("unexpected thickness footprint: %v", box)
	}
}
