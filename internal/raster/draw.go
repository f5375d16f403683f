package raster

import (
	"image"
	"image/color"
	"math"
)

// DrawLine draws a line between the two points with the given thickness and color.
func (r *Raster) DrawLine(p0, p1 image.Point, col color.Color, thick int) {
	drawLine(r.img, p0.X, p0.Y, p1.X, p1.Y, col, thick)
}

// DrawDot stamps a single brush footprint at p.
func (r *Raster) DrawDot(p image.Point, col color.Color, thick int) {
	setThickPixel(r.img, p.X, p.Y, thick, col)
}

// setThickPixel fills a round brush of diameter thick centred on (x, y).
func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	if thick <= 1 {
		if image.Pt(x, y).In(img.Bounds()) {
			img.Set(x, y, col)
		}
		return
	}
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			if dx*dx+dy*dy > r*r+r {
				continue
			}
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}
