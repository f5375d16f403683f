// Package clipboard publishes canvas images and result text to the system
// clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
)

var (
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	errNothing   = errors.New("nothing to copy")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WriteImage encodes img as PNG and publishes it.
func WriteImage(img image.Image) error {
	if img == nil {
		return errNothing
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	return writePNG(buf.Bytes())
}

// WriteText publishes text.
func WriteText(text string) error {
	if text == "" {
		return errNothing
	}
	return writeText([]byte(text))
}

// WriteResults publishes result markup, one label per line.
func WriteResults(markup []string) error {
	return WriteText(strings.Join(markup, "\n"))
}
