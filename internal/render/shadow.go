package render

import (
	"image"
	"image/color"
	"image/draw"
)

// Shadow describes a blurred drop shadow cast by a label plate.
type Shadow struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadow is a soft shadow sized for label plates.
func DefaultShadow() Shadow {
	return Shadow{Radius: 4, Offset: image.Pt(2, 3), Opacity: 0.6}
}

// Cast paints the shadow of src's alpha channel onto dst as if src were
// drawn with its top-left corner at at. Pixels outside dst are clipped.
func (s Shadow) Cast(dst *image.RGBA, src image.Image, at image.Point) {
	if dst == nil || src == nil || s.Opacity <= 0 {
		return
	}
	opacity := s.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := s.Radius
	if radius < 0 {
		radius = 0
	}
	sb := src.Bounds()
	if sb.Empty() {
		return
	}

	mask := image.NewAlpha(image.Rect(0, 0, sb.Dx()+2*radius, sb.Dy()+2*radius))
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			mask.SetAlpha(x-sb.Min.X+radius, y-sb.Min.Y+radius, color.Alpha{A: uint8(a >> 8)})
		}
	}
	boxBlur(mask.Pix, mask.Stride, mask.Rect.Dx(), mask.Rect.Dy(), radius)

	origin := at.Add(s.Offset).Sub(image.Pt(radius, radius))
	ink := image.NewUniform(color.RGBA{0, 0, 0, uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, mask.Rect.Add(origin), ink, image.Point{}, mask, image.Point{}, draw.Over)
}

// boxBlur blurs an 8-bit plane in place with two separable running-sum
// passes of the given radius.
func boxBlur(pix []uint8, stride, w, h, radius int) {
	if radius <= 0 || w == 0 || h == 0 {
		return
	}
	tmp := make([]uint8, len(pix))
	sums := make([]int, max(w, h)+1)
	pass := func(n int, at func(i int) *uint8, out func(i int) *uint8) {
		for i := 0; i < n; i++ {
			sums[i+1] = sums[i] + int(*at(i))
		}
		for i := 0; i < n; i++ {
			lo := max(i-radius, 0)
			hi := min(i+radius, n-1)
			*out(i) = uint8((sums[hi+1] - sums[lo]) / (hi - lo + 1))
		}
	}
	for y := 0; y < h; y++ {
		row := y * stride
		pass(w, func(i int) *uint8 { return &pix[row+i] }, func(i int) *uint8 { return &tmp[row+i] })
	}
	for x := 0; x < w; x++ {
		col := x
		pass(h, func(i int) *uint8 { return &tmp[i*stride+col] }, func(i int) *uint8 { return &pix[i*stride+col] })
	}
}
