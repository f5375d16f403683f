package window

import (
	"image"
	"log"

	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/render"
	"github.com/example/inkcalc/internal/session"
)

// drag tracks a label being moved; grab is the pointer offset from the
// label anchor at press time.
type drag struct {
	id   string
	grab overlay.Point
}

// controller routes pointer input to the toolbar, the labels or the
// stroke machine.
type controller struct {
	sess     *session.Session
	composer *render.Composer
	layout   layout
	dragging *drag
	hover    int
}

func newController(sess *session.Session, composer *render.Composer, l layout) *controller {
	return &controller{sess: sess, composer: composer, layout: l, hover: -1}
}

// press handles a primary button press at window point p and returns the
// toolbar action to run, if any.
func (c *controller) press(p image.Point) string {
	if i := c.layout.hit(p); i >= 0 {
		it := c.layout.items[i]
		switch it.kind {
		case itemButton:
			return it.action
		case itemSwatch:
			c.sess.SetColor(it.color)
		case itemWidth:
			c.sess.SetWidth(it.width)
		}
		return ""
	}
	if !c.layout.inCanvas(p) {
		return ""
	}
	q := c.layout.toCanvas(p)
	if l, ok := c.composer.HitTest(c.sess.Labels(), q); ok {
		c.dragging = &drag{id: l.ID, grab: overlay.Point{X: float64(q.X) - l.Anchor.X, Y: float64(q.Y) - l.Anchor.Y}}
		return ""
	}
	if err := c.sess.PointerDown(q); err != nil {
		log.Printf("pointer down: %v", err)
	}
	return ""
}

// move handles pointer motion and reports whether the hover state changed.
func (c *controller) move(p image.Point) bool {
	q := c.layout.toCanvas(p)
	switch {
	case c.dragging != nil:
		to := overlay.Point{X: float64(q.X) - c.dragging.grab.X, Y: float64(q.Y) - c.dragging.grab.Y}
		if err := c.sess.MoveLabel(c.dragging.id, to); err != nil {
			log.Printf("move label: %v", err)
			c.dragging = nil
		}
	case c.sess.Drawing():
		var err error
		if c.layout.inCanvas(p) {
			err = c.sess.PointerMove(q)
		} else {
			err = c.sess.PointerLeave()
		}
		if err != nil {
			log.Printf("pointer move: %v", err)
		}
	}
	hover := c.layout.hit(p)
	if hover == c.hover {
		return false
	}
	c.hover = hover
	return true
}

func (c *controller) release(p image.Point) {
	if c.dragging != nil {
		c.dragging = nil
		return
	}
	if !c.sess.Drawing() {
		return
	}
	if err := c.sess.PointerUp(c.layout.toCanvas(p)); err != nil {
		log.Printf("pointer up: %v", err)
	}
}
