// Package display probes the attached monitors to size the canvas.
package display

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

var errNoMonitors = errors.New("no monitors found")

// Monitor describes one output in the desktop layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// FindMonitor resolves a selector against monitors. An empty selector or
// "primary" picks the primary output; otherwise an index ("1" or "#1") or
// a case-insensitive name fragment is matched.
func FindMonitor(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	if sel == "" || sel == "primary" {
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, m := range monitors {
		if strings.Contains(strings.ToLower(m.Name), sel) {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

// CanvasSize scales the monitor to the given fraction, leaving reserve
// pixels horizontally for the toolbar.
func CanvasSize(m Monitor, fraction float64, reserve int) image.Point {
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	w := int(float64(m.Rect.Dx())*fraction) - reserve
	h := int(float64(m.Rect.Dy()) * fraction)
	return image.Pt(max(w, 1), max(h, 1))
}

// Size returns a canvas size for the selected monitor, or fallback when
// no display can be probed.
func Size(selector string, fraction float64, reserve int, fallback image.Point) (image.Point, error) {
	monitors, err := ListMonitors()
	if err != nil {
		return fallback, err
	}
	m, err := FindMonitor(monitors, selector)
	if err != nil {
		return fallback, err
	}
	return CanvasSize(m, fraction, reserve), nil
}
