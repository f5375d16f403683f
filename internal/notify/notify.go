// Package notify turns session outcomes into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventResult fires when an evaluation produced results.
	EventResult Event = "result"
	// EventError fires when an evaluation failed.
	EventError Event = "error"
	// EventSave fires when an image is written to disk.
	EventSave Event = "save"
	// EventCopy fires when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// Preferences describes notification wording.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "inkcalc",
		Templates: map[Event]string{
			EventResult: "%s",
			EventError:  "Evaluation failed: %s",
			EventSave:   "Saved %s",
			EventCopy:   "Copied %s to clipboard",
		},
	}
}

// LoadPreferences applies INKCALC_NOTIFY_* environment overrides to the
// defaults.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("INKCALC_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventResult, EventError, EventSave, EventCopy} {
		key := "INKCALC_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Templates[ev] = v
		}
	}
	return prefs
}

// SendFunc delivers one notification.
type SendFunc func(title, body string, opts platform.Options) error

// Notifier sends notifications for the events that are enabled.
type Notifier struct {
	prefs Preferences
	send  SendFunc

	mu      sync.RWMutex
	enabled map[Event]bool
}

// Option modifies a Notifier during creation.
type Option func(*Notifier)

// WithSender replaces the platform delivery function.
func WithSender(fn SendFunc) Option { return func(n *Notifier) { n.send = fn } }

// New creates a Notifier with every event disabled.
func New(prefs Preferences, opts ...Option) *Notifier {
	cloned := Preferences{Title: prefs.Title, Templates: make(map[Event]string, len(prefs.Templates))}
	for k, v := range prefs.Templates {
		cloned.Templates[k] = v
	}
	n := &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Result announces evaluation results, one line per entry, with an
// optional preview image.
func (n *Notifier) Result(entries []evaluate.Entry, preview image.Image) {
	if !n.enabledFor(EventResult) {
		return
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, overlay.Markup(e.Expression, e.Answer))
	}
	if len(lines) == 0 {
		lines = append(lines, "no expressions recognised")
	}
	opts := platform.Options{Urgency: platform.UrgencyNormal}
	if preview != nil {
		if path, cleanup, err := createPreview(preview); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventResult, strings.Join(lines, "\n"), opts)
}

// Error announces a failed evaluation.
func (n *Notifier) Error(err error) {
	if err == nil || !n.enabledFor(EventError) {
		return
	}
	n.dispatch(EventError, err.Error(), platform.Options{Urgency: platform.UrgencyCritical})
}

// Save announces a written file.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{Urgency: platform.UrgencyLow}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy announces a clipboard write.
func (n *Notifier) Copy(detail string) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{Urgency: platform.UrgencyLow})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.prefs.Templates[event])
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "inkcalc-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
