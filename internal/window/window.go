// Package window hosts a drawing session in a native window.
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/inkcalc/internal/clipboard"
	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/render"
	"github.com/example/inkcalc/internal/session"
)

// releaseTick is how often pending labels are checked.
const releaseTick = 50 * time.Millisecond

// Notifier receives user-visible outcomes.
type Notifier interface {
	Result(entries []evaluate.Entry, preview image.Image)
	Error(err error)
	Save(path string)
	Copy(detail string)
}

// Window shows a session and feeds it pointer and keyboard input.
type Window struct {
	sess     *session.Session
	composer *render.Composer
	notifier Notifier
	saveDir  string
	title    string

	onClose   func()
	closeOnce sync.Once
}

// Option modifies a Window during creation.
type Option func(*Window)

// WithComposer sets the label renderer.
func WithComposer(c *render.Composer) Option { return func(w *Window) { w.composer = c } }

// WithNotifier routes results and errors to n.
func WithNotifier(n Notifier) Option { return func(w *Window) { w.notifier = n } }

// WithSaveDir sets where saved images are written.
func WithSaveDir(dir string) Option { return func(w *Window) { w.saveDir = dir } }

// WithTitle sets the window title.
func WithTitle(t string) Option { return func(w *Window) { w.title = t } }

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(w *Window) { w.onClose = fn } }

// New creates a Window for sess.
func New(sess *session.Session, opts ...Option) *Window {
	w := &Window{sess: sess, title: "inkcalc"}
	for _, o := range opts {
		o(w)
	}
	if w.composer == nil {
		w.composer = render.NewComposer()
	}
	if w.notifier == nil {
		w.notifier = nopNotifier{}
	}
	return w
}

type nopNotifier struct{}

func (nopNotifier) Result([]evaluate.Entry, image.Image) {}
func (nopNotifier) Error(error)                          {}
func (nopNotifier) Save(string)                          {}
func (nopNotifier) Copy(string)                          {}

type evalDone struct {
	res     *session.Result
	preview image.Image
	err     error
}

// Run executes the UI loop using shiny's driver.
func (win *Window) Run() { driver.Main(win.Main) }

// Main runs the event loop on s until the window is closed.
func (win *Window) Main(s screen.Screen) {
	defer win.notifyClose()
	sess := win.sess
	l := newLayout(sess.Bounds().Size(), session.PaletteColors(), session.WidthOptions())
	ctrl := newController(sess, win.composer, l)

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: l.size.X, Height: l.size.Y, Title: win.title})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		updates := sess.Updates()
		for {
			select {
			case <-updates:
				w.Send(paint.Event{})
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		t := time.NewTicker(releaseTick)
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				sess.Release(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			drawFrame(pctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			paintMu.Unlock()
			pcancel()
		}
	}()

	var message string
	var messageUntil time.Time
	say := func(msg string) {
		message = msg
		messageUntil = time.Now().Add(2 * time.Second)
		log.Print(msg)
		w.Send(paint.Event{})
	}

	keys := keymap{}
	actions := map[string]func(){}
	register := func(name string, fn func()) {
		actions[name] = fn
		keys.register(name, defaultShortcuts[name])
	}

	register("evaluate", func() {
		if sess.Busy() {
			say("evaluation already running")
			return
		}
		preview := sess.Snapshot().Image()
		go func() {
			res, err := sess.Evaluate(ctx)
			w.Send(evalDone{res: res, preview: preview, err: err})
		}()
	})
	register("undo", func() {
		if ok, err := sess.Undo(); err != nil {
			log.Printf("undo: %v", err)
		} else if !ok {
			say("nothing to undo")
		}
	})
	register("redo", func() {
		if ok, err := sess.Redo(); err != nil {
			log.Printf("redo: %v", err)
		} else if !ok {
			say("nothing to redo")
		}
	})
	register("reset", func() {
		sess.Reset()
		say("canvas reset")
	})
	register("copy", func() {
		img := win.composer.Compose(sess.Snapshot(), sess.Labels())
		if err := clipboard.WriteImage(img); err != nil {
			say(fmt.Sprintf("copy: %v", err))
			return
		}
		win.notifier.Copy("image")
		say("image copied to clipboard")
	})
	register("copytext", func() {
		labels := sess.Labels()
		lines := make([]string, len(labels))
		for i, lb := range labels {
			lines[i] = lb.Content
		}
		if err := clipboard.WriteResults(lines); err != nil {
			say(fmt.Sprintf("copy: %v", err))
			return
		}
		win.notifier.Copy(fmt.Sprintf("%d results", len(lines)))
		say("results copied to clipboard")
	})
	register("save", func() {
		img := win.composer.Compose(sess.Snapshot(), sess.Labels())
		path, err := savePNG(win.saveDir, img, time.Now())
		if err != nil {
			say(fmt.Sprintf("save: %v", err))
			return
		}
		win.notifier.Save(path)
		say(fmt.Sprintf("saved %s", path))
	})
	register("thinner", func() { stepWidth(sess, -1) })
	register("thicker", func() { stepWidth(sess, 1) })
	register("quit", func() { w.Send(lifecycle.Event{To: lifecycle.StageDead}) })

	run := func(action string) {
		if fn, ok := actions[action]; ok {
			fn()
			w.Send(paint.Event{})
		}
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return
			}

		case size.Event:
			w.Send(paint.Event{})

		case paint.Event:
			ink, width := sess.Brush()
			st := paintState{
				layout:       l,
				composer:     win.composer,
				snap:         sess.Snapshot(),
				labels:       sess.Labels(),
				ink:          ink,
				width:        width,
				hover:        ctrl.hover,
				status:       statusLine(sess),
				message:      message,
				messageUntil: messageUntil,
			}
			select {
			case paintCh <- st:
			default:
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}

		case evalDone:
			switch {
			case e.err == nil:
				win.notifier.Result(e.res.Entries, e.preview)
				if len(e.res.Entries) == 0 {
					say("no expressions recognised")
				}
			case errors.Is(e.err, session.ErrDiscarded):
			case errors.Is(e.err, session.ErrEmptyCanvas):
				say("nothing to evaluate")
			case errors.Is(e.err, session.ErrBusy):
				say("evaluation already running")
			default:
				win.notifier.Error(e.err)
				say(e.err.Error())
			}

		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				if action := ctrl.press(p); action != "" {
					run(action)
				}
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				ctrl.release(p)
			case e.Direction == mouse.DirNone:
				if ctrl.move(p) {
					w.Send(paint.Event{})
				}
			}

		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if action, ok := keys.lookup(e); ok {
				run(action)
				continue
			}
			if e.Modifiers == 0 && e.Rune >= '1' && e.Rune <= '9' {
				colors := session.PaletteColors()
				if i := int(e.Rune - '1'); i < len(colors) {
					sess.SetColor(colors[i].Color)
				}
			}

		case error:
			log.Print(e)
		}
	}
}

func (win *Window) notifyClose() {
	win.closeOnce.Do(func() {
		if win.onClose != nil {
			win.onClose()
		}
	})
}

// stepWidth moves the brush to the next option above or below its width.
func stepWidth(sess *session.Session, dir int) {
	_, cur := sess.Brush()
	widths := session.WidthOptions()
	if dir < 0 {
		for i := len(widths) - 1; i >= 0; i-- {
			if widths[i] < cur {
				sess.SetWidth(widths[i])
				return
			}
		}
		return
	}
	for _, w := range widths {
		if w > cur {
			sess.SetWidth(w)
			return
		}
	}
}

func statusLine(sess *session.Session) string {
	n, idx := sess.History()
	parts := []string{fmt.Sprintf("history %d/%d", idx+1, n)}
	if sess.Busy() {
		parts = append(parts, "evaluating...")
	}
	vars := sess.Variables()
	if len(vars) > 0 {
		names := make([]string, 0, len(vars))
		for k := range vars {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			parts = append(parts, k+"="+vars[k])
		}
	}
	return strings.Join(parts, "  ")
}

// savePNG writes img into dir under a timestamped name.
func savePNG(dir string, img image.Image, now time.Time) (string, error) {
	if img == nil {
		return "", errors.New("nothing to save")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "inkcalc-"+now.Format("20060102-150405")+".png")
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(out, img); err != nil {
		if cerr := out.Close(); cerr != nil {
			log.Printf("save: closing file: %v", cerr)
		}
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}
