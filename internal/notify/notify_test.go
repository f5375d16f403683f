package notify

import (
	"errors"
	"image"
	"os"
	"strings"
	"testing"

	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
	iconExisted bool
}

func recorder(out *[]sent) SendFunc {
	return func(title, body string, opts platform.Options) error {
		s := sent{title: title, body: body, opts: opts}
		if opts.IconPath != "" {
			_, err := os.Stat(opts.IconPath)
			s.iconExisted = err == nil
		}
		*out = append(*out, s)
		return nil
	}
}

func TestDisabledEventsAreSilent(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	n.Result([]evaluate.Entry{{Expression: "1+1", Answer: "2"}}, nil)
	n.Error(errors.New("boom"))
	n.Copy("")
	if len(got) != 0 {
		t.Fatalf("sent %+v while disabled", got)
	}
	var nilNotifier *Notifier
	nilNotifier.Enable(EventCopy, true)
	nilNotifier.Copy("x")
}

func TestResultListsEveryEntry(t *testing.T) {
	var got []sent
	n := New(DefaultPreferences(), WithSender(recorder(&got)))
	n.Enable(EventResult, true)
	n.Result([]evaluate.Entry{
		{Expression: "x", Answer: "3", Assign: true},
		{Expression: "x+1", Answer: "4"},
	}, image.NewRGBA(image.Rect(0, 0, 4, 4)))

	if len(got) != 1 {
		t.Fatalf("sent %d notifications", len(got))
	}
	if got[0].title != "inkcalc" || got[0].body != "x = 3\nx+1 = 4" {
		t.Fatalf("notification = %+v", got[0])
	}
	if !got[0].iconExisted {
		t.Fatal("preview icon should exist while sending")
	}
	if _, err := os.Stat(got[0].opts.IconPath); !os.IsNotExist(err) {
		t.Fatal("preview icon should be removed afterwards")
	}
}

func TestErrorAndCopyTemplates(t *testing.T) {
	var got []sent
	prefs := LoadPreferences(func(k string) string {
		switch k {
		case "INKCALC_NOTIFY_TITLE":
			return "Calc"
		case "INKCALC_NOTIFY_COPY_TEXT":
			return "Clipboard now holds %s"
		}
		return ""
	})
	n := New(prefs, WithSender(recorder(&got)))
	n.Enable(EventError, true)
	n.Enable(EventCopy, true)

	n.Error(&evaluate.StatusError{Code: 503, Message: "down"})
	n.Copy("")
	if len(got) != 2 {
		t.Fatalf("sent %+v", got)
	}
	if got[0].title != "Calc" || !strings.HasPrefix(got[0].body, "Evaluation failed: ") || !strings.Contains(got[0].body, "503") {
		t.Fatalf("error notification = %+v", got[0])
	}
	if got[0].opts.Urgency != platform.UrgencyCritical {
		t.Fatalf("urgency = %v", got[0].opts.Urgency)
	}
	if got[1].body != "Clipboard now holds image" {
		t.Fatalf("copy notification = %+v", got[1])
	}
}
