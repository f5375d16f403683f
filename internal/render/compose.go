// Package render flattens a canvas and its result labels into one image.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/raster"
)

// DefaultFontSize is the label text size in points at 72 DPI.
const DefaultFontSize = 24

var (
	fontOnce     sync.Once
	parsedFont   *opentype.Font
	parseFontErr error
)

// LabelFace returns a Go Regular face of the given size, falling back to
// the fixed 7x13 face when the font cannot be loaded.
func LabelFace(size float64) font.Face {
	fontOnce.Do(func() {
		parsedFont, parseFontErr = opentype.Parse(goregular.TTF)
	})
	if parseFontErr != nil {
		log.Printf("render: parse font: %v", parseFontErr)
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("render: font face: %v", err)
		return basicfont.Face7x13
	}
	return face
}

// Composer draws labels as text plates over a canvas image.
type Composer struct {
	face    font.Face
	text    color.RGBA
	plate   color.RGBA
	padding int
	shadow  Shadow
}

// Option modifies a Composer during creation.
type Option func(*Composer)

// WithFace sets the label font.
func WithFace(f font.Face) Option { return func(c *Composer) { c.face = f } }

// WithTextColor sets the label text colour.
func WithTextColor(col color.RGBA) Option { return func(c *Composer) { c.text = col } }

// WithPlateColor sets the fill behind label text. A transparent plate
// draws bare text and casts no shadow.
func WithPlateColor(col color.RGBA) Option { return func(c *Composer) { c.plate = col } }

// WithShadow sets the plate shadow.
func WithShadow(s Shadow) Option { return func(c *Composer) { c.shadow = s } }

// NewComposer creates a Composer.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		text:    color.RGBA{255, 255, 255, 255},
		plate:   color.RGBA{40, 40, 48, 230},
		padding: 6,
		shadow:  DefaultShadow(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.face == nil {
		c.face = LabelFace(DefaultFontSize)
	}
	return c
}

// LabelRect returns the plate rectangle of a label, centred on its anchor.
func (c *Composer) LabelRect(l overlay.Label) image.Rectangle {
	return c.plateRect(l.Content, l.Anchor.Image())
}

func (c *Composer) plateRect(text string, center image.Point) image.Rectangle {
	m := c.face.Metrics()
	w := font.MeasureString(c.face, text).Ceil() + 2*c.padding
	h := (m.Ascent + m.Descent).Ceil() + 2*c.padding
	origin := image.Pt(center.X-w/2, center.Y-h/2)
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}

// Plate renders a single label on its own transparent image.
func (c *Composer) Plate(text string) *image.RGBA {
	r := c.plateRect(text, image.Point{})
	img := image.NewRGBA(r.Sub(r.Min))
	if c.plate.A > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(c.plate), image.Point{}, draw.Src)
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.text),
		Face: c.face,
		Dot:  fixed.P(c.padding, c.padding+c.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
	return img
}

// DrawLabels paints labels onto dst in order, so later labels overlap
// earlier ones.
func (c *Composer) DrawLabels(dst *image.RGBA, labels []overlay.Label) {
	for _, l := range labels {
		plate := c.Plate(l.Content)
		at := c.LabelRect(l).Min
		if c.plate.A > 0 {
			c.shadow.Cast(dst, plate, at)
		}
		draw.Draw(dst, plate.Bounds().Add(at), plate, image.Point{}, draw.Over)
	}
}

// Compose returns a copy of snap with labels drawn on top.
func (c *Composer) Compose(snap *raster.Snapshot, labels []overlay.Label) *image.RGBA {
	if snap == nil {
		return nil
	}
	img := snap.Image()
	c.DrawLabels(img, labels)
	return img
}

// HitTest returns the topmost label whose plate contains p.
func (c *Composer) HitTest(labels []overlay.Label, p image.Point) (overlay.Label, bool) {
	for i := len(labels) - 1; i >= 0; i-- {
		if p.In(c.LabelRect(labels[i])) {
			return labels[i], true
		}
	}
	return overlay.Label{}, false
}
