package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/overlay"
)

type evalCall struct {
	img  image.Image
	vars map[string]string
}

type fakeEvaluator struct {
	mu      sync.Mutex
	calls   []evalCall
	entries []evaluate.Entry
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, img image.Image, vars map[string]string) ([]evaluate.Entry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, evalCall{img: img, vars: vars})
	started, release := f.started, f.release
	entries, err := f.entries, f.err
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return entries, err
}

func (f *fakeEvaluator) respond(entries []evaluate.Entry, err error) {
	f.mu.Lock()
	f.entries, f.err = entries, err
	f.mu.Unlock()
}

func (f *fakeEvaluator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEvaluator) lastCall() evalCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, ev Evaluator, opts ...Option) *Session {
	t.Helper()
	n := 0
	base := []Option{
		WithSize(100, 80),
		WithStrokeWidth(1),
		WithEvaluator(ev),
		WithClock(func() time.Time { return t0 }),
		WithLabelIDs(func() string { n++; return fmt.Sprintf("label-%d", n) }),
	}
	return New(append(base, opts...)...)
}

func stroke(t *testing.T, s *Session, pts ...image.Point) {
	t.Helper()
	if err := s.PointerDown(pts[0]); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	for _, p := range pts[1 : len(pts)-1] {
		if err := s.PointerMove(p); err != nil {
			t.Fatalf("PointerMove: %v", err)
		}
	}
	if err := s.PointerUp(pts[len(pts)-1]); err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
}

func TestNewSessionState(t *testing.T) {
	s := newTestSession(t, &fakeEvaluator{})
	if n, idx := s.History(); n != 1 || idx != 0 {
		t.Fatalf("history = %d/%d, want 1/0", n, idx)
	}
	if s.Busy() || len(s.Labels()) != 0 || len(s.Variables()) != 0 {
		t.Fatal("new session should be idle and empty")
	}
	if _, ok := s.Snapshot().InkBounds(); ok {
		t.Fatal("new canvas should be blank")
	}
	c, w := s.Brush()
	if c != DefaultInk || w != 1 {
		t.Fatalf("brush = %v/%d", c, w)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestSession(t, &fakeEvaluator{})
	stroke(t, s, image.Pt(5, 5), image.Pt(40, 5))
	stroke(t, s, image.Pt(5, 20), image.Pt(40, 30))
	stroke(t, s, image.Pt(60, 60), image.Pt(90, 70))
	final := s.Snapshot()
	n, _ := s.History()
	if n != 4 {
		t.Fatalf("history length %d, want 4", n)
	}
	for i := 0; i < n-1; i++ {
		if ok, err := s.Undo(); !ok || err != nil {
			t.Fatalf("undo %d: %v %v", i, ok, err)
		}
	}
	if ok, _ := s.Undo(); ok {
		t.Fatal("undo at the oldest entry should be a no-op")
	}
	if _, ok := s.Snapshot().InkBounds(); ok {
		t.Fatal("fully undone canvas should be blank")
	}
	for i := 0; i < n-1; i++ {
		if ok, err := s.Redo(); !ok || err != nil {
			t.Fatalf("redo %d: %v %v", i, ok, err)
		}
	}
	if ok, _ := s.Redo(); ok {
		t.Fatal("redo at the newest entry should be a no-op")
	}
	if !s.Snapshot().Equal(final) {
		t.Fatal("round trip changed the canvas")
	}
}

func TestStrokeAfterUndoDiscardsRedo(t *testing.T) {
	s := newTestSession(t, &fakeEvaluator{})
	stroke(t, s, image.Pt(5, 5), image.Pt(40, 5))
	stroke(t, s, image.Pt(5, 20), image.Pt(40, 30))
	s.Undo()
	stroke(t, s, image.Pt(60, 60), image.Pt(90, 70))
	if ok, _ := s.Redo(); ok {
		t.Fatal("redo branch should have been discarded")
	}
	if n, idx := s.History(); n != 3 || idx != 2 {
		t.Fatalf("history = %d/%d, want 3/2", n, idx)
	}
}

func TestEvaluateExpression(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{{Expression: "2+2", Answer: "4"}}}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 30), image.Pt(15, 40), image.Pt(20, 50))

	res, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if want := (overlay.Point{X: 15, Y: 40}); res.Anchor != want {
		t.Fatalf("anchor = %v, want %v", res.Anchor, want)
	}
	if len(ev.lastCall().vars) != 0 {
		t.Fatalf("payload vars = %v, want empty", ev.lastCall().vars)
	}
	if len(s.Labels()) != 0 {
		t.Fatal("labels should not be visible before their release time")
	}
	got := s.Release(t0.Add(time.Second))
	if len(got) != 1 {
		t.Fatalf("released %d labels, want 1", len(got))
	}
	l := s.Labels()[0]
	if l.Content != "2+2 = 4" || l.Anchor != res.Anchor {
		t.Fatalf("label = %+v", l)
	}
	if len(s.Variables()) != 0 {
		t.Fatalf("variables = %v, want empty", s.Variables())
	}
	if s.Busy() {
		t.Fatal("busy should be cleared")
	}
}

func TestEvaluateAssignmentFeedsNextPayload(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{{Expression: "x", Answer: "3", Assign: true}}}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	res, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Assigned != 1 {
		t.Fatalf("assigned = %d", res.Assigned)
	}
	if v := s.Variables(); len(v) != 1 || v["x"] != "3" {
		t.Fatalf("variables = %v", v)
	}

	ev.respond([]evaluate.Entry{{Expression: "x+2", Answer: "5"}}, nil)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	if _, err := s.Evaluate(context.Background()); err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if got := ev.lastCall().vars["x"]; got != "3" {
		t.Fatalf("second payload x = %q, want 3", got)
	}
}

func TestEvaluateClearsCanvasAfterResponse(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{{Expression: "1+1", Answer: "2"}}}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	if _, err := s.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, ok := s.Snapshot().InkBounds(); ok {
		t.Fatal("canvas should be blank after a response")
	}
	if n, _ := s.History(); n != 3 {
		t.Fatalf("history length %d, want 3", n)
	}
	s.Undo()
	if _, ok := s.Snapshot().InkBounds(); !ok {
		t.Fatal("undo should bring the evaluated ink back")
	}
}

func TestEvaluateKeepsCanvasWhenDisabled(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{{Expression: "1+1", Answer: "2"}}}
	s := newTestSession(t, ev, WithClearAfterEvaluate(false))
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	if _, err := s.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, ok := s.Snapshot().InkBounds(); !ok {
		t.Fatal("canvas should keep its ink")
	}
}

func TestEvaluateEmptyCanvas(t *testing.T) {
	ev := &fakeEvaluator{}
	s := newTestSession(t, ev)
	if _, err := s.Evaluate(context.Background()); !errors.Is(err, ErrEmptyCanvas) {
		t.Fatalf("expected ErrEmptyCanvas, got %v", err)
	}
	if ev.callCount() != 0 {
		t.Fatal("empty canvas must not reach the service")
	}
}

func TestEvaluateFailureLeavesStateUntouched(t *testing.T) {
	for _, failure := range []error{
		errors.New("connection refused"),
		fmt.Errorf("%w: missing data", evaluate.ErrMalformedResponse),
	} {
		ev := &fakeEvaluator{entries: []evaluate.Entry{{Expression: "x", Answer: "1", Assign: true}}}
		s := newTestSession(t, ev)
		stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
		if _, err := s.Evaluate(context.Background()); err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
		before := s.Snapshot()
		n, _ := s.History()

		ev.respond([]evaluate.Entry{{Expression: "x", Answer: "9", Assign: true}}, failure)
		_, err := s.Evaluate(context.Background())
		if !errors.Is(err, failure) {
			t.Fatalf("expected %v, got %v", failure, err)
		}
		if s.Busy() {
			t.Fatal("busy must be cleared after a failure")
		}
		if v := s.Variables(); v["x"] != "1" {
			t.Fatalf("variables changed after failure: %v", v)
		}
		if after, _ := s.History(); after != n || !s.Snapshot().Equal(before) {
			t.Fatal("canvas changed after failure")
		}
		if s.Flush(); len(s.Labels()) != 1 {
			t.Fatalf("labels = %+v, want only the first result", s.Labels())
		}
	}
}

func TestEvaluateRejectsWhileBusy(t *testing.T) {
	ev := &fakeEvaluator{
		entries: []evaluate.Entry{{Expression: "2+2", Answer: "4"}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))

	done := make(chan error, 1)
	go func() {
		_, err := s.Evaluate(context.Background())
		done <- err
	}()
	<-ev.started
	if !s.Busy() {
		t.Fatal("session should be busy while a request is in flight")
	}
	if _, err := s.Evaluate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(ev.release)
	if err := <-done; err != nil {
		t.Fatalf("first Evaluate: %v", err)
	}
	if ev.callCount() != 1 {
		t.Fatalf("service called %d times, want 1", ev.callCount())
	}
}

func TestEvaluateSnapshotsAtTrigger(t *testing.T) {
	ev := &fakeEvaluator{
		entries: []evaluate.Entry{{Expression: "2+2", Answer: "4"}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(20, 20))

	done := make(chan *Result, 1)
	go func() {
		res, err := s.Evaluate(context.Background())
		if err != nil {
			t.Errorf("Evaluate: %v", err)
		}
		done <- res
	}()
	<-ev.started
	stroke(t, s, image.Pt(60, 60), image.Pt(90, 70))
	close(ev.release)
	res := <-done

	sent := ev.lastCall().img
	r, g, b, _ := sent.At(75, 65).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Fatal("drawing during the request leaked into the payload")
	}
	if want := (overlay.Point{X: 50, Y: 40}); res.Anchor != want {
		t.Fatalf("anchor = %v, want %v from the canvas at response time", res.Anchor, want)
	}
}

func TestResetDiscardsInFlightResponse(t *testing.T) {
	ev := &fakeEvaluator{
		entries: []evaluate.Entry{{Expression: "x", Answer: "3", Assign: true}},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(20, 20))

	done := make(chan error, 1)
	go func() {
		_, err := s.Evaluate(context.Background())
		done <- err
	}()
	<-ev.started
	s.Reset()
	if err := <-done; !errors.Is(err, ErrDiscarded) {
		t.Fatalf("expected ErrDiscarded, got %v", err)
	}
	if s.Busy() || len(s.Variables()) != 0 {
		t.Fatal("discarded response must not touch the session")
	}
	s.Flush()
	if len(s.Labels()) != 0 {
		t.Fatal("discarded response must not add labels")
	}
}

func TestResetCompleteness(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{
		{Expression: "y", Answer: "2", Assign: true},
		{Expression: "y*2", Answer: "4"},
	}}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	if _, err := s.Evaluate(context.Background()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	s.Release(t0.Add(time.Second))
	stroke(t, s, image.Pt(50, 50), image.Pt(60, 60))

	s.Reset()
	if n, idx := s.History(); n != 1 || idx != 0 {
		t.Fatalf("history = %d/%d, want 1/0", n, idx)
	}
	if _, ok := s.Snapshot().InkBounds(); ok {
		t.Fatal("canvas should be blank after reset")
	}
	if len(s.Variables()) != 0 {
		t.Fatalf("variables = %v", s.Variables())
	}
	s.Flush()
	if len(s.Labels()) != 0 {
		t.Fatalf("labels = %+v", s.Labels())
	}
}

func TestLabelsReleaseInOrderAndMoveIndependently(t *testing.T) {
	ev := &fakeEvaluator{entries: []evaluate.Entry{
		{Expression: "1+1", Answer: "2"},
		{Expression: "2+2", Answer: "4"},
	}}
	s := newTestSession(t, ev)
	stroke(t, s, image.Pt(10, 10), image.Pt(30, 20))
	res, err := s.Evaluate(context.Background())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if due, ok := s.NextDue(); !ok || !due.Equal(t0.Add(time.Second)) {
		t.Fatalf("next due = %v %v", due, ok)
	}
	if got := s.Release(t0.Add(time.Second)); len(got) != 1 || got[0].Content != "1+1 = 2" {
		t.Fatalf("first release = %+v", got)
	}
	if got := s.Release(t0.Add(2 * time.Second)); len(got) != 1 || got[0].Content != "2+2 = 4" {
		t.Fatalf("second release = %+v", got)
	}
	if err := s.MoveLabel(res.LabelIDs[0], overlay.Point{X: 70, Y: 5}); err != nil {
		t.Fatalf("MoveLabel: %v", err)
	}
	ls := s.Labels()
	if ls[0].Anchor != (overlay.Point{X: 70, Y: 5}) || ls[1].Anchor != res.Anchor {
		t.Fatalf("labels after drag = %+v", ls)
	}
	if err := s.MoveLabel("missing", overlay.Point{}); !errors.Is(err, overlay.ErrUnknownLabel) {
		t.Fatalf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestBrushChangesApplyToNextStroke(t *testing.T) {
	s := newTestSession(t, &fakeEvaluator{})
	red := color.RGBA{255, 0, 0, 255}
	s.SetColor(red)
	s.SetWidth(0)
	if c, w := s.Brush(); c != red || w != 1 {
		t.Fatalf("brush = %v/%d", c, w)
	}
	stroke(t, s, image.Pt(10, 10), image.Pt(20, 10))
	if got := s.Snapshot().At(15, 10); got != red {
		t.Fatalf("pixel = %v, want red", got)
	}
}

func TestChangeListener(t *testing.T) {
	var mu sync.Mutex
	var seen Change
	s := newTestSession(t, &fakeEvaluator{}, WithOnChange(func(c Change) {
		mu.Lock()
		seen |= c
		mu.Unlock()
	}))
	stroke(t, s, image.Pt(10, 10), image.Pt(20, 10))
	s.SetWidth(4)
	mu.Lock()
	defer mu.Unlock()
	if seen&ChangeCanvas == 0 || seen&ChangeBrush == 0 {
		t.Fatalf("listener saw %b", seen)
	}
	select {
	case <-s.Updates():
	default:
		t.Fatal("expected a pending update signal")
	}
}

func TestZeroSessionHasNoCanvas(t *testing.T) {
	var s Session
	if err := s.PointerDown(image.Pt(1, 1)); !errors.Is(err, ErrNoCanvas) {
		t.Fatalf("PointerDown: %v", err)
	}
	if _, err := s.Undo(); !errors.Is(err, ErrNoCanvas) {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := s.Evaluate(context.Background()); !errors.Is(err, ErrNoCanvas) {
		t.Fatalf("Evaluate: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{in: "red", want: color.RGBA{255, 0, 0, 255}},
		{in: "Teal", want: color.RGBA{0, 128, 128, 255}},
		{in: "Indigo", want: color.RGBA{75, 0, 130, 255}},
		{in: "#fff", want: color.RGBA{255, 255, 255, 255}},
		{in: "#336699", want: color.RGBA{0x33, 0x66, 0x99, 255}},
		{in: "#33669980", want: color.RGBA{0x33, 0x66, 0x99, 0x80}},
		{in: "", err: true},
		{in: "#12", err: true},
		{in: "#zzzzzz", err: true},
		{in: "nosuchcolour", err: true},
	}
	for _, tc := range tests {
		got, err := ParseColor(tc.in)
		if tc.err {
			if err == nil {
				t.Errorf("ParseColor(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestEnsurePaletteColorAndWidth(t *testing.T) {
	col := color.RGBA{1, 2, 3, 255}
	idx := EnsurePaletteColor(col, "")
	if pc := PaletteColors()[idx]; pc.Color != col || pc.Name != "#010203" {
		t.Fatalf("palette entry = %+v", pc)
	}
	if again := EnsurePaletteColor(col, "Custom"); again != idx {
		t.Fatalf("duplicate colour added at %d", again)
	}
	wi := EnsureWidth(13)
	if WidthOptions()[wi] != 13 {
		t.Fatalf("width options = %v", WidthOptions())
	}
}
