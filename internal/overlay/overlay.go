// Package overlay places evaluation results on top of the canvas as
// independently draggable labels.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultInterval is the delay between consecutive labels of one response.
const DefaultInterval = time.Second

// ErrUnknownLabel is returned when a label id is not on the board.
var ErrUnknownLabel = errors.New("unknown label")

// Point is a position in canvas coordinates.
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Image rounds p to the nearest pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}

// Anchor returns the centre of an inclusive bounding box.
func Anchor(box image.Rectangle) Point {
	return Point{
		X: float64(box.Min.X+box.Max.X) / 2,
		Y: float64(box.Min.Y+box.Max.Y) / 2,
	}
}

// Markup builds the "expression = answer" string handed to the typesetter.
func Markup(expression, answer string) string {
	return expression + " = " + answer
}

// TeX wraps markup for a MathJax style inline renderer.
func TeX(markup string) string {
	return `\(\LARGE{` + markup + `}\)`
}

// Label is one displayed result.
type Label struct {
	ID      string
	Content string
	Anchor  Point
}

// Pacing decides when each entry of a response becomes visible: entry i
// is due at start + (i+1)*Interval.
type Pacing struct {
	Interval time.Duration
}

// Due returns the release time of the i-th entry scheduled at start.
func (p Pacing) Due(start time.Time, i int) time.Time {
	return start.Add(time.Duration(i+1) * p.Interval)
}

type pending struct {
	label Label
	due   time.Time
}

// Board holds visible labels in display order plus the queue of labels
// waiting for their release time. It is safe for concurrent use.
type Board struct {
	mu     sync.Mutex
	pacing Pacing
	labels []Label
	queue  []pending
	newID  func() string
}

// Option modifies a Board during creation.
type Option func(*Board)

// WithInterval sets the pacing interval. Zero releases labels immediately.
func WithInterval(d time.Duration) Option {
	return func(b *Board) { b.pacing.Interval = d }
}

// WithIDFunc replaces the label id generator.
func WithIDFunc(fn func() string) Option { return func(b *Board) { b.newID = fn } }

// NewBoard creates an empty Board.
func NewBoard(opts ...Option) *Board {
	b := &Board{pacing: Pacing{Interval: DefaultInterval}, newID: uuid.NewString}
	for _, o := range opts {
		o(b)
	}
	if b.pacing.Interval < 0 {
		b.pacing.Interval = 0
	}
	return b
}

// Pacing returns the release policy in effect.
func (b *Board) Pacing() Pacing {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pacing
}

// Schedule queues one label per markup string, all sharing anchor, and
// returns the ids in the same order.
func (b *Board) Schedule(now time.Time, anchor Point, contents ...string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Queue after anything still pending so responses never interleave.
	start := now
	if n := len(b.queue); n > 0 && b.queue[n-1].due.After(start) {
		start = b.queue[n-1].due
	}
	ids := make([]string, 0, len(contents))
	for i, c := range contents {
		l := Label{ID: b.newID(), Content: c, Anchor: anchor}
		b.queue = append(b.queue, pending{label: l, due: b.pacing.Due(start, i)})
		ids = append(ids, l.ID)
	}
	return ids
}

// Release moves every label due at or before now onto the board and
// returns the newly visible ones.
func (b *Board) Release(now time.Time) []Label {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Label
	i := 0
	for ; i < len(b.queue); i++ {
		p := b.queue[i]
		if p.due.After(now) {
			break
		}
		b.labels = append(b.labels, p.label)
		out = append(out, p.label)
	}
	b.queue = append(b.queue[:0], b.queue[i:]...)
	return out
}

// Flush releases every pending label regardless of its due time.
func (b *Board) Flush() []Label {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Label, 0, len(b.queue))
	for _, p := range b.queue {
		b.labels = append(b.labels, p.label)
		out = append(out, p.label)
	}
	b.queue = nil
	return out
}

// NextDue reports when the next pending label becomes visible.
func (b *Board) NextDue() (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return time.Time{}, false
	}
	return b.queue[0].due, true
}

// Pending returns the number of queued labels.
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Labels returns a copy of the visible labels in display order.
func (b *Board) Labels() []Label {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Label, len(b.labels))
	copy(out, b.labels)
	return out
}

// Move sets the anchor of a single label.
func (b *Board) Move(id string, to Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.labels {
		if b.labels[i].ID == id {
			b.labels[i].Anchor = to
			return nil
		}
	}
	return fmt.Errorf("move %s: %w", id, ErrUnknownLabel)
}

// Clear removes all visible and pending labels.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.labels = nil
	b.queue = nil
}
