// Package session owns the state of one drawing session and serialises
// every mutation of it.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/history"
	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/raster"
	"github.com/example/inkcalc/internal/surface"
)

var (
	// ErrBusy is returned when an evaluation is triggered while another is
	// still in flight.
	ErrBusy = errors.New("evaluation already in progress")
	// ErrEmptyCanvas is returned when evaluation is triggered with no ink.
	ErrEmptyCanvas = errors.New("canvas is empty")
	// ErrDiscarded is returned when a response arrives after a reset.
	ErrDiscarded = errors.New("response discarded after reset")
	// ErrNoCanvas is returned by operations on a session without a raster.
	ErrNoCanvas = errors.New("no canvas")
	// ErrNoEvaluator is returned by Evaluate when no service is configured.
	ErrNoEvaluator = errors.New("no evaluator configured")
)

const (
	DefaultWidth       = 1200
	DefaultHeight      = 800
	DefaultStrokeWidth = 3
)

var (
	DefaultBackground = color.RGBA{0, 0, 0, 255}
	DefaultInk        = color.RGBA{255, 255, 255, 255}
)

// Evaluator sends a canvas image and the variable payload to the
// recognition service.
type Evaluator interface {
	Evaluate(ctx context.Context, img image.Image, vars map[string]string) ([]evaluate.Entry, error)
}

// Change identifies what a mutation touched.
type Change int

const (
	ChangeCanvas Change = 1 << iota
	ChangeLabels
	ChangeBusy
	ChangeBrush
	ChangeVariables
)

// Result describes one applied evaluation.
type Result struct {
	Entries  []evaluate.Entry
	Anchor   overlay.Point
	LabelIDs []string
	Assigned int
}

type brush struct {
	color color.RGBA
	width int
}

func (b *brush) Color() color.RGBA { return b.color }
func (b *brush) Width() int        { return b.width }

// Session aggregates the raster, history, surface, overlay board and
// variable dictionary behind one mutex.
type Session struct {
	mu sync.Mutex

	width, height int
	background    color.RGBA
	historyLimit  int
	interval      time.Duration
	clearAfter    bool
	idFunc        func() string
	now           func() time.Time

	brush     *brush
	raster    *raster.Raster
	history   *history.Stack
	surface   *surface.Surface
	board     *overlay.Board
	vars      evaluate.Variables
	evaluator Evaluator

	busy       bool
	generation uint64
	cancel     context.CancelFunc

	updateCh  chan struct{}
	listeners []func(Change)
}

// Option modifies a Session during creation.
type Option func(*Session)

// WithSize sets the canvas dimensions.
func WithSize(w, h int) Option { return func(s *Session) { s.width, s.height = w, h } }

// WithBackground sets the colour the canvas is cleared to.
func WithBackground(c color.RGBA) Option { return func(s *Session) { s.background = c } }

// WithInk sets the initial stroke colour.
func WithInk(c color.RGBA) Option { return func(s *Session) { s.brush.color = c } }

// WithStrokeWidth sets the initial stroke width.
func WithStrokeWidth(w int) Option { return func(s *Session) { s.brush.width = w } }

// WithEvaluator sets the recognition service.
func WithEvaluator(e Evaluator) Option { return func(s *Session) { s.evaluator = e } }

// WithLabelInterval sets the delay between consecutive label releases.
func WithLabelInterval(d time.Duration) Option { return func(s *Session) { s.interval = d } }

// WithHistoryLimit caps the number of undo snapshots. Zero is unlimited.
func WithHistoryLimit(n int) Option { return func(s *Session) { s.historyLimit = n } }

// WithClearAfterEvaluate controls whether the canvas is wiped once a
// response has been turned into labels.
func WithClearAfterEvaluate(v bool) Option { return func(s *Session) { s.clearAfter = v } }

// WithClock replaces the time source used to schedule labels.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithLabelIDs replaces the label id generator.
func WithLabelIDs(fn func() string) Option { return func(s *Session) { s.idFunc = fn } }

// WithOnChange registers a listener invoked after each mutation.
func WithOnChange(fn func(Change)) Option {
	return func(s *Session) { s.listeners = append(s.listeners, fn) }
}

// New creates a session with a blank canvas and one history entry.
func New(opts ...Option) *Session {
	s := &Session{
		width:      DefaultWidth,
		height:     DefaultHeight,
		background: DefaultBackground,
		interval:   overlay.DefaultInterval,
		clearAfter: true,
		now:        time.Now,
		brush:      &brush{color: DefaultInk, width: DefaultStrokeWidth},
		updateCh:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	if s.brush.width < 1 {
		s.brush.width = 1
	}
	s.init()
	return s
}

func (s *Session) init() {
	if s.brush == nil {
		s.brush = &brush{color: DefaultInk, width: DefaultStrokeWidth}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.raster = raster.New(s.width, s.height, s.background)
	s.history = history.New(history.WithLimit(s.historyLimit))
	s.surface = surface.New(s.raster, s.brush, s.history)
	boardOpts := []overlay.Option{overlay.WithInterval(s.interval)}
	if s.idFunc != nil {
		boardOpts = append(boardOpts, overlay.WithIDFunc(s.idFunc))
	}
	s.board = overlay.NewBoard(boardOpts...)
	s.vars.Clear()
	s.history.Capture(s.raster)
}

// Updates delivers a coalesced signal whenever the session changes.
func (s *Session) Updates() <-chan struct{} { return s.updateCh }

func (s *Session) changed(c Change) {
	select {
	case s.updateCh <- struct{}{}:
	default:
	}
	s.mu.Lock()
	ls := append([]func(Change){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(c)
	}
}

// OnChange registers fn for every later mutation.
func (s *Session) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// PointerDown starts a stroke at p.
func (s *Session) PointerDown(p image.Point) error {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return ErrNoCanvas
	}
	s.surface.PointerDown(p)
	s.mu.Unlock()
	s.changed(ChangeCanvas)
	return nil
}

// PointerMove extends the current stroke to p.
func (s *Session) PointerMove(p image.Point) error {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return ErrNoCanvas
	}
	drew := s.surface.PointerMove(p)
	s.mu.Unlock()
	if drew {
		s.changed(ChangeCanvas)
	}
	return nil
}

// PointerUp finishes the current stroke at p.
func (s *Session) PointerUp(p image.Point) error {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return ErrNoCanvas
	}
	ended := s.surface.PointerUp(p)
	s.mu.Unlock()
	if ended {
		s.changed(ChangeCanvas)
	}
	return nil
}

// PointerLeave finishes the current stroke without a final point.
func (s *Session) PointerLeave() error {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return ErrNoCanvas
	}
	ended := s.surface.PointerLeave()
	s.mu.Unlock()
	if ended {
		s.changed(ChangeCanvas)
	}
	return nil
}

// Drawing reports whether a stroke is in progress.
func (s *Session) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface != nil && s.surface.State() == surface.Drawing
}

// SetColor changes the colour of later strokes.
func (s *Session) SetColor(c color.RGBA) {
	s.mu.Lock()
	s.brush.color = c
	s.mu.Unlock()
	s.changed(ChangeBrush)
}

// SetWidth changes the width of later strokes.
func (s *Session) SetWidth(w int) {
	if w < 1 {
		w = 1
	}
	s.mu.Lock()
	s.brush.width = w
	s.mu.Unlock()
	s.changed(ChangeBrush)
}

// Brush returns the active colour and width.
func (s *Session) Brush() (color.RGBA, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brush.color, s.brush.width
}

// Undo restores the previous snapshot. It reports false at the oldest
// entry.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return false, ErrNoCanvas
	}
	s.surface.Abort()
	ok := s.history.Undo(s.raster)
	s.mu.Unlock()
	if ok {
		s.changed(ChangeCanvas)
	}
	return ok, nil
}

// Redo restores the next snapshot. It reports false at the newest entry.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	if s.raster == nil {
		s.mu.Unlock()
		return false, ErrNoCanvas
	}
	s.surface.Abort()
	ok := s.history.Redo(s.raster)
	s.mu.Unlock()
	if ok {
		s.changed(ChangeCanvas)
	}
	return ok, nil
}

// Reset returns the session to its initial state. An evaluation in flight
// is cancelled and its response discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.busy = false
	if s.surface != nil {
		s.surface.Abort()
	}
	s.init()
	s.mu.Unlock()
	s.changed(ChangeCanvas | ChangeLabels | ChangeBusy | ChangeVariables)
}

// Busy reports whether an evaluation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Evaluate posts a copy of the canvas and the current variables to the
// evaluator. On success every entry is scheduled as a label anchored at
// the centre of the ink as it is when the response arrives, and
// assignments are recorded.
func (s *Session) Evaluate(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	switch {
	case s.raster == nil:
		s.mu.Unlock()
		return nil, ErrNoCanvas
	case s.evaluator == nil:
		s.mu.Unlock()
		return nil, ErrNoEvaluator
	case s.busy:
		s.mu.Unlock()
		return nil, ErrBusy
	case s.raster.Empty():
		s.mu.Unlock()
		return nil, ErrEmptyCanvas
	}
	snap := s.raster.Snapshot()
	vars := s.vars.Map()
	ctx, cancel := context.WithCancel(ctx)
	s.busy = true
	s.cancel = cancel
	gen := s.generation
	ev := s.evaluator
	s.mu.Unlock()
	s.changed(ChangeBusy)
	defer cancel()

	b := snap.Bounds()
	log.Printf("evaluate: sending %dx%d canvas with %d variables", b.Dx(), b.Dy(), len(vars))
	entries, err := ev.Evaluate(ctx, snap.Image(), vars)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		log.Printf("evaluate: dropping response from before reset")
		return nil, ErrDiscarded
	}
	s.busy = false
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		s.changed(ChangeBusy)
		return nil, fmt.Errorf("evaluate canvas: %w", err)
	}

	box, _ := s.raster.InkBounds()
	res := &Result{Entries: entries, Anchor: overlay.Anchor(box)}
	contents := make([]string, len(entries))
	for i, e := range entries {
		contents[i] = overlay.Markup(e.Expression, e.Answer)
	}
	res.LabelIDs = s.board.Schedule(s.now(), res.Anchor, contents...)
	res.Assigned = s.vars.Apply(entries)
	change := ChangeBusy | ChangeLabels
	if res.Assigned > 0 {
		change |= ChangeVariables
	}
	if s.clearAfter && len(entries) > 0 {
		s.surface.Abort()
		s.raster.Clear()
		s.history.Capture(s.raster)
		change |= ChangeCanvas
	}
	s.mu.Unlock()
	log.Printf("evaluate: %d results, %d assignments", len(entries), res.Assigned)
	s.changed(change)
	return res, nil
}

// Release makes every label due at or before now visible and returns them.
func (s *Session) Release(now time.Time) []overlay.Label {
	s.mu.Lock()
	out := s.board.Release(now)
	s.mu.Unlock()
	if len(out) > 0 {
		s.changed(ChangeLabels)
	}
	return out
}

// Flush makes every pending label visible immediately.
func (s *Session) Flush() []overlay.Label {
	s.mu.Lock()
	out := s.board.Flush()
	s.mu.Unlock()
	if len(out) > 0 {
		s.changed(ChangeLabels)
	}
	return out
}

// NextDue reports when the next pending label becomes visible.
func (s *Session) NextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.NextDue()
}

// Labels returns the visible labels in display order.
func (s *Session) Labels() []overlay.Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Labels()
}

// MoveLabel drags one label to p.
func (s *Session) MoveLabel(id string, p overlay.Point) error {
	s.mu.Lock()
	err := s.board.Move(id, p)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.changed(ChangeLabels)
	return nil
}

// Variables returns a copy of the variable dictionary.
func (s *Session) Variables() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vars.Map()
}

// Snapshot returns an immutable copy of the canvas.
func (s *Session) Snapshot() *raster.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raster == nil {
		return nil
	}
	return s.raster.Snapshot()
}

// Bounds returns the canvas rectangle.
func (s *Session) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raster == nil {
		return image.Rectangle{}
	}
	return s.raster.Bounds()
}

// Background returns the canvas background colour.
func (s *Session) Background() color.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background
}

// History reports the snapshot count and current index.
func (s *Session) History() (length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Len(), s.history.Index()
}
