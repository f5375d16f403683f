package window

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

var defaultShortcuts = map[string]shortcutList{
	"evaluate": {{Code: key.CodeReturnEnter}, {Code: key.CodeKeypadEnter}},
	"undo":     {{Rune: 'z', Modifiers: key.ModControl}},
	"redo":     {{Rune: 'y', Modifiers: key.ModControl}, {Rune: 'z', Modifiers: key.ModControl | key.ModShift}},
	"reset":    {{Rune: 'r', Modifiers: key.ModControl}},
	"copy":     {{Rune: 'c', Modifiers: key.ModControl}},
	"copytext": {{Rune: 'c', Modifiers: key.ModControl | key.ModShift}},
	"save":     {{Rune: 's', Modifiers: key.ModControl}},
	"thinner":  {{Rune: '['}},
	"thicker":  {{Rune: ']'}},
	"quit":     {{Rune: 'q'}, {Rune: 'q', Modifiers: key.ModControl}},
}

// keymap resolves key events to action names.
type keymap map[KeyShortcut]string

func (k keymap) register(name string, keys KeyboardShortcuts) {
	if keys == nil {
		return
	}
	for _, sc := range keys.KeyboardShortcuts() {
		k[sc] = name
	}
}

// lookup matches on rune and code first, then on the code alone for keys
// whose rune differs between drivers, then on the rune alone.
func (k keymap) lookup(e key.Event) (string, bool) {
	r := unicode.ToLower(e.Rune)
	for _, sc := range []KeyShortcut{
		{Rune: r, Code: e.Code, Modifiers: e.Modifiers},
		{Code: e.Code, Modifiers: e.Modifiers},
		{Rune: r, Modifiers: e.Modifiers},
	} {
		if sc.Rune <= 0 && sc.Code == key.CodeUnknown {
			continue
		}
		if sc.Rune < 0 {
			sc.Rune = 0
		}
		if action, ok := k[sc]; ok {
			return action, true
		}
	}
	return "", false
}
