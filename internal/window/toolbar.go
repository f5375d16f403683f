package window

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkcalc/internal/session"
)

const (
	toolbarWidth = 104
	titleHeight  = 24
	buttonHeight = 24
	statusHeight = 24
	swatchSize   = 16
	swatchStep   = 18
	widthHeight  = 16
)

var (
	barColor     = color.RGBA{220, 220, 220, 255}
	buttonColor  = color.RGBA{200, 200, 200, 255}
	hoverColor   = color.RGBA{180, 180, 180, 255}
	pressedColor = color.RGBA{150, 150, 150, 255}
	backdrop     = color.RGBA{90, 90, 90, 255}
)

type itemKind int

const (
	itemButton itemKind = iota
	itemSwatch
	itemWidth
)

// toolItem is one clickable element of the toolbar.
type toolItem struct {
	kind   itemKind
	action string
	label  string
	color  color.RGBA
	width  int
	rect   image.Rectangle
}

type buttonSpec struct {
	action string
	label  string
}

var buttons = []buttonSpec{
	{"evaluate", "Enter:Eval"},
	{"undo", "^Z:Undo"},
	{"redo", "^Y:Redo"},
	{"reset", "^R:Reset"},
	{"copy", "^C:Copy"},
	{"save", "^S:Save"},
}

// layout places the toolbar, canvas and status bar for a canvas size.
type layout struct {
	items  []toolItem
	canvas image.Rectangle
	size   image.Point
}

func newLayout(canvas image.Point, palette []session.PaletteColor, widths []int) layout {
	var l layout
	y := titleHeight
	for _, b := range buttons {
		l.items = append(l.items, toolItem{
			kind:   itemButton,
			action: b.action,
			label:  b.label,
			rect:   image.Rect(0, y, toolbarWidth, y+buttonHeight),
		})
		y += buttonHeight
	}

	y += 4
	x := 4
	for i, p := range palette {
		l.items = append(l.items, toolItem{
			kind:  itemSwatch,
			label: p.Name,
			color: p.Color,
			rect:  image.Rect(x, y, x+swatchSize, y+swatchSize),
		})
		x += swatchStep
		if x+swatchSize > toolbarWidth && i < len(palette)-1 {
			x = 4
			y += swatchStep
		}
	}
	y += swatchStep + 4

	for _, w := range widths {
		l.items = append(l.items, toolItem{
			kind:  itemWidth,
			label: fmt.Sprintf("%d", w),
			width: w,
			rect:  image.Rect(0, y, toolbarWidth, y+widthHeight),
		})
		y += widthHeight
	}

	l.canvas = image.Rect(toolbarWidth, 0, toolbarWidth+canvas.X, canvas.Y)
	l.size = image.Pt(l.canvas.Max.X, max(canvas.Y, y)+statusHeight)
	return l
}

// hit returns the index of the toolbar item under p, or -1.
func (l layout) hit(p image.Point) int {
	for i, it := range l.items {
		if p.In(it.rect) {
			return i
		}
	}
	return -1
}

func (l layout) inCanvas(p image.Point) bool { return p.In(l.canvas) }

// toCanvas converts window coordinates into canvas pixels.
func (l layout) toCanvas(p image.Point) image.Point { return p.Sub(l.canvas.Min) }

func (l layout) statusRect() image.Rectangle {
	return image.Rect(0, l.size.Y-statusHeight, l.size.X, l.size.Y)
}

func drawToolbar(dst *image.RGBA, l layout, ink color.RGBA, width, hover int) {
	draw.Draw(dst, image.Rect(0, 0, toolbarWidth, l.size.Y-statusHeight),
		&image.Uniform{barColor}, image.Point{}, draw.Src)
	title := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(4, 16)}
	title.DrawString("inkcalc")

	for i, it := range l.items {
		switch it.kind {
		case itemButton:
			c := buttonColor
			if i == hover {
				c = hoverColor
			}
			draw.Draw(dst, it.rect, &image.Uniform{c}, image.Point{}, draw.Src)
			d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13,
				Dot: fixed.P(it.rect.Min.X+4, it.rect.Min.Y+16)}
			d.DrawString(it.label)
		case itemSwatch:
			draw.Draw(dst, it.rect, &image.Uniform{it.color}, image.Point{}, draw.Src)
			if i == hover {
				draw.Draw(dst, it.rect, &image.Uniform{color.RGBA{255, 255, 255, 80}}, image.Point{}, draw.Over)
			}
			if it.color == ink {
				outline(dst, it.rect, color.White)
			}
		case itemWidth:
			c := buttonColor
			if it.width == width {
				c = pressedColor
			} else if i == hover {
				c = hoverColor
			}
			draw.Draw(dst, it.rect, &image.Uniform{c}, image.Point{}, draw.Src)
			d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13,
				Dot: fixed.P(4, it.rect.Min.Y+12)}
			d.DrawString(it.label)
			mid := it.rect.Min.Y + widthHeight/2
			bar := image.Rect(30, mid-it.width/2, toolbarWidth-4, mid-it.width/2+max(it.width, 1))
			draw.Draw(dst, bar.Intersect(it.rect), &image.Uniform{ink}, image.Point{}, draw.Over)
		}
	}
}

func drawStatus(dst *image.RGBA, l layout, text string) {
	r := l.statusRect()
	draw.Draw(dst, r, &image.Uniform{barColor}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.Black, Face: basicfont.Face7x13,
		Dot: fixed.P(r.Min.X+4, r.Min.Y+16)}
	d.DrawString(text)
}

func outline(dst *image.RGBA, r image.Rectangle, col color.Color) {
	u := &image.Uniform{col}
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}
