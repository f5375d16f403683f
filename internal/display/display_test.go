package display

import (
	"image"
	"testing"
)

var layout = []Monitor{
	{Index: 0, Name: "HDMI-1", Rect: image.Rect(0, 0, 1920, 1080)},
	{Index: 1, Name: "eDP-1", Rect: image.Rect(1920, 0, 3200, 800), Primary: true},
}

func TestFindMonitor(t *testing.T) {
	tests := []struct {
		sel  string
		want string
		err  bool
	}{
		{sel: "", want: "eDP-1"},
		{sel: "primary", want: "eDP-1"},
		{sel: "0", want: "HDMI-1"},
		{sel: "#1", want: "eDP-1"},
		{sel: "hdmi", want: "HDMI-1"},
		{sel: "5", err: true},
		{sel: "dp-9", err: true},
	}
	for _, tc := range tests {
		got, err := FindMonitor(layout, tc.sel)
		if tc.err {
			if err == nil {
				t.Errorf("FindMonitor(%q) expected error", tc.sel)
			}
			continue
		}
		if err != nil || got.Name != tc.want {
			t.Errorf("FindMonitor(%q) = %+v, %v; want %s", tc.sel, got, err, tc.want)
		}
	}
	if _, err := FindMonitor(nil, ""); err == nil {
		t.Error("expected error for an empty layout")
	}
}

func TestCanvasSize(t *testing.T) {
	got := CanvasSize(layout[0], 0.5, 60)
	if got != image.Pt(900, 540) {
		t.Fatalf("CanvasSize = %v", got)
	}
	if got := CanvasSize(layout[1], 0, 0); got != image.Pt(1280, 800) {
		t.Fatalf("full-size CanvasSize = %v", got)
	}
}
