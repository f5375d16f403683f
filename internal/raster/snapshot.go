package raster

import (
	"bytes"
	"image"
	"image/color"
)

// Snapshot is an immutable copy of a raster at one point in time.
type Snapshot struct {
	pix        []uint8
	stride     int
	rect       image.Rectangle
	background color.RGBA
}

// Bounds returns the rectangle the snapshot was taken from.
func (s *Snapshot) Bounds() image.Rectangle { return s.rect }

// Image returns a fresh RGBA copy of the snapshot pixels.
func (s *Snapshot) Image() *image.RGBA {
	img := image.NewRGBA(s.rect)
	copy(img.Pix, s.pix)
	return img
}

// At returns the pixel at (x, y), or the zero colour outside the bounds.
func (s *Snapshot) At(x, y int) color.RGBA {
	if !image.Pt(x, y).In(s.rect) {
		return color.RGBA{}
	}
	i := (y-s.rect.Min.Y)*s.stride + (x-s.rect.Min.X)*4
	return color.RGBA{s.pix[i], s.pix[i+1], s.pix[i+2], s.pix[i+3]}
}

// Equal reports whether both snapshots hold identical pixels.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.rect == o.rect && bytes.Equal(s.pix, o.pix)
}

// InkBounds is Raster.InkBounds evaluated against the frozen pixels.
func (s *Snapshot) InkBounds() (image.Rectangle, bool) {
	return inkBounds(s.pix, s.stride, s.rect, s.background)
}
