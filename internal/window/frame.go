package window

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/raster"
	"github.com/example/inkcalc/internal/render"
)

var messageFace = render.LabelFace(18)

type paintState struct {
	layout       layout
	composer     *render.Composer
	snap         *raster.Snapshot
	labels       []overlay.Label
	ink          color.RGBA
	width        int
	hover        int
	status       string
	message      string
	messageUntil time.Time
}

// renderFrame draws a full frame into dst. It returns false when ctx is
// cancelled part way through.
func renderFrame(ctx context.Context, dst *image.RGBA, st paintState) bool {
	draw.Draw(dst, dst.Bounds(), &image.Uniform{backdrop}, image.Point{}, draw.Src)
	if st.snap != nil {
		canvas := st.composer.Compose(st.snap, st.labels)
		draw.Draw(dst, st.layout.canvas, canvas, image.Point{}, draw.Src)
	}
	if ctx.Err() != nil {
		return false
	}

	drawToolbar(dst, st.layout, st.ink, st.width, st.hover)
	drawStatus(dst, st.layout, st.status)
	if ctx.Err() != nil {
		return false
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Dst: dst, Src: image.Black, Face: messageFace}
		wmsg := d.MeasureString(st.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		c := st.layout.canvas
		px := c.Min.X + (c.Dx()-wmsg)/2
		py := c.Min.Y + (c.Dy()-ascent-descent)/2 + ascent
		rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
		draw.Draw(dst, rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
		outline(dst, rect, color.Black)
		d.Dot = fixed.P(px, py)
		d.DrawString(st.message)
	}
	return ctx.Err() == nil
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(st.layout.size)
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	if !renderFrame(ctx, b.RGBA(), st) {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
