package session

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// PaletteColor is a named swatch.
type PaletteColor struct {
	Name  string
	Color color.RGBA
}

var (
	paletteMu sync.RWMutex
	palette   = []PaletteColor{
		{"White", color.RGBA{255, 255, 255, 255}},
		{"Black", color.RGBA{0, 0, 0, 255}},
		{"Red", color.RGBA{238, 51, 51, 255}},
		{"Pink", color.RGBA{232, 62, 140, 255}},
		{"Purple", color.RGBA{190, 75, 219, 255}},
		{"Indigo", color.RGBA{132, 94, 247, 255}},
		{"Blue", color.RGBA{76, 110, 245, 255}},
		{"Cyan", color.RGBA{34, 139, 230, 255}},
		{"Teal", color.RGBA{21, 170, 191, 255}},
		{"Green", color.RGBA{64, 192, 87, 255}},
		{"Lime", color.RGBA{130, 201, 30, 255}},
		{"Orange", color.RGBA{250, 176, 5, 255}},
	}
)

var (
	widthsMu sync.RWMutex
	widths   = []int{1, 2, 3, 5, 8}
)

// PaletteColors returns a copy of the swatches shown in the toolbar.
func PaletteColors() []PaletteColor {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// EnsurePaletteColor makes sure col is present in the palette and returns
// its index.
func EnsurePaletteColor(col color.RGBA, name string) int {
	paletteMu.Lock()
	defer paletteMu.Unlock()
	for idx, existing := range palette {
		if existing.Color == col {
			if name != "" && existing.Name == "" {
				palette[idx].Name = name
			}
			return idx
		}
	}
	if name == "" {
		name = HexColor(col)
	}
	palette = append(palette, PaletteColor{Name: name, Color: col})
	return len(palette) - 1
}

// WidthOptions returns a copy of the available stroke widths.
func WidthOptions() []int {
	widthsMu.RLock()
	defer widthsMu.RUnlock()
	out := make([]int, len(widths))
	copy(out, widths)
	return out
}

// EnsureWidth makes sure width is included in the options and returns its
// index.
func EnsureWidth(width int) int {
	if width < 1 {
		width = 1
	}
	widthsMu.Lock()
	defer widthsMu.Unlock()
	for idx, existing := range widths {
		if existing == width {
			return idx
		}
	}
	widths = append(widths, width)
	sort.Ints(widths)
	for idx, existing := range widths {
		if existing == width {
			return idx
		}
	}
	return 0
}

// HexColor formats col as #RRGGBB, or #RRGGBBAA when not opaque.
func HexColor(col color.RGBA) string {
	if col.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", col.R, col.G, col.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", col.R, col.G, col.B, col.A)
}

// ParseColor accepts a CSS colour name, a palette name, #RGB, #RRGGBB or
// #RRGGBBAA.
func ParseColor(s string) (color.RGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.RGBA{}, fmt.Errorf("color cannot be empty")
	}
	if c, ok := colornames.Map[name]; ok {
		return c, nil
	}
	for _, entry := range PaletteColors() {
		if strings.EqualFold(entry.Name, name) {
			return entry.Color, nil
		}
	}
	if !strings.HasPrefix(name, "#") {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	hex := name[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		return color.RGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	}
	return color.RGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
}
