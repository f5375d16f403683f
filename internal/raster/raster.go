// Package raster owns the pixel buffer backing the drawing surface.
package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// Raster is a mutable RGBA canvas with a fixed background colour.
type Raster struct {
	img        *image.RGBA
	background color.RGBA
}

// New creates a w×h raster filled with background.
func New(w, h int, background color.RGBA) *Raster {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	r := &Raster{img: image.NewRGBA(image.Rect(0, 0, w, h)), background: background}
	r.Clear()
	return r
}

// Bounds returns the canvas rectangle. The origin is always (0, 0).
func (r *Raster) Bounds() image.Rectangle { return r.img.Bounds() }

// Background returns the fill colour used by Clear.
func (r *Raster) Background() color.RGBA { return r.background }

// Image exposes the live buffer for painting. Callers must not retain it
// across mutations they do not control; use Snapshot for a stable copy.
func (r *Raster) Image() *image.RGBA { return r.img }

// Clear fills the whole canvas with the background colour.
func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.background), image.Point{}, draw.Src)
}

// Snapshot copies the current pixels into an immutable Snapshot.
func (r *Raster) Snapshot() *Snapshot {
	pix := make([]uint8, len(r.img.Pix))
	copy(pix, r.img.Pix)
	return &Snapshot{pix: pix, stride: r.img.Stride, rect: r.img.Rect, background: r.background}
}

// Restore overwrites the buffer with s. Snapshots of a different size are
// drawn at the origin over a cleared canvas.
func (r *Raster) Restore(s *Snapshot) {
	if s == nil {
		return
	}
	if s.rect == r.img.Rect && s.stride == r.img.Stride {
		copy(r.img.Pix, s.pix)
		return
	}
	r.Clear()
	draw.Draw(r.img, r.img.Bounds(), s.Image(), image.Point{}, draw.Src)
}

// IsInk reports whether c counts as ink on this canvas.
func (r *Raster) IsInk(c color.RGBA) bool {
	return isInk(c, r.background)
}

func isInk(c, background color.RGBA) bool {
	if background.A == 0 {
		return c.A > 0
	}
	return c != background
}

// InkBounds scans the buffer for ink and returns the inclusive bounding box
// (minX, minY, maxX, maxY) as a rectangle whose Max is the last inked pixel.
// ok is false when nothing is inked; the full canvas extent is returned then.
func (r *Raster) InkBounds() (box image.Rectangle, ok bool) {
	return inkBounds(r.img.Pix, r.img.Stride, r.img.Rect, r.background)
}

// Empty reports whether no pixel differs from the background.
func (r *Raster) Empty() bool {
	_, ok := r.InkBounds()
	return !ok
}

func inkBounds(pix []uint8, stride int, rect image.Rectangle, background color.RGBA) (image.Rectangle, bool) {
	w, h := rect.Dx(), rect.Dy()
	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		row := pix[y*stride : y*stride+w*4]
		for x := 0; x < w; x++ {
			i := x * 4
			c := color.RGBA{row[i], row[i+1], row[i+2], row[i+3]}
			if !isInk(c, background) {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < 0 {
		return image.Rect(0, 0, w-1, h-1).Add(rect.Min), false
	}
	return image.Rectangle{Min: image.Pt(minX, minY), Max: image.Pt(maxX, maxY)}.Add(rect.Min), true
}
