package config

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/session"
)

// EnvEndpoint overrides the configured service endpoint.
const EnvEndpoint = "INKCALC_ENDPOINT"

// Notify holds notification settings.
type Notify struct {
	Result bool
	Error  bool
	Save   bool
	Copy   bool
}

// Swatch is a named colour added to the toolbar palette.
type Swatch struct {
	Name  string
	Color color.RGBA
}

// Config holds the application configuration.
type Config struct {
	Endpoint       string
	Timeout        time.Duration
	Retries        int
	MaxUpload      int
	Background     color.RGBA
	Ink            color.RGBA
	Width          int
	LabelInterval  time.Duration
	HistoryLimit   int
	ClearAfterEval bool
	SaveDir        string
	Notify         Notify
	Palette        []Swatch
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Endpoint:       evaluate.DefaultEndpoint,
		Timeout:        evaluate.DefaultTimeout,
		Retries:        2,
		Background:     session.DefaultBackground,
		Ink:            session.DefaultInk,
		Width:          session.DefaultStrokeWidth,
		LabelInterval:  overlay.DefaultInterval,
		ClearAfterEval: true,
		Notify: Notify{
			Result: true,
			Error:  true,
		},
	}
}

// ApplyEnv lets the environment override file settings.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvEndpoint)); v != "" {
		c.Endpoint = v
	}
}

// SessionOptions translates the drawing settings into session options.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{
		session.WithBackground(c.Background),
		session.WithInk(c.Ink),
		session.WithStrokeWidth(c.Width),
		session.WithLabelInterval(c.LabelInterval),
		session.WithHistoryLimit(c.HistoryLimit),
		session.WithClearAfterEvaluate(c.ClearAfterEval),
	}
}

// ClientOptions translates the service settings into client options.
func (c *Config) ClientOptions() []evaluate.Option {
	return []evaluate.Option{
		evaluate.WithTimeout(c.Timeout),
		evaluate.WithRetries(c.Retries),
		evaluate.WithMaxUpload(c.MaxUpload),
	}
}

// RegisterPalette adds the configured swatches to the toolbar palette.
func (c *Config) RegisterPalette() {
	for _, s := range c.Palette {
		session.EnsurePaletteColor(s.Color, s.Name)
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "endpoint = %s\n", c.Endpoint)
	fmt.Fprintf(&sb, "timeout = %s\n", c.Timeout)
	fmt.Fprintf(&sb, "retries = %d\n", c.Retries)
	fmt.Fprintf(&sb, "max_upload = %d\n", c.MaxUpload)
	fmt.Fprintf(&sb, "background = %s\n", session.HexColor(c.Background))
	fmt.Fprintf(&sb, "ink = %s\n", session.HexColor(c.Ink))
	fmt.Fprintf(&sb, "width = %d\n", c.Width)
	fmt.Fprintf(&sb, "label_interval = %s\n", c.LabelInterval)
	fmt.Fprintf(&sb, "history_limit = %d\n", c.HistoryLimit)
	fmt.Fprintf(&sb, "clear_after_eval = %v\n", c.ClearAfterEval)
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "result = %v\n", c.Notify.Result)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)

	if len(c.Palette) > 0 {
		sb.WriteString("\n[palette]\n")
		for _, s := range c.Palette {
			fmt.Fprintf(&sb, "%s = %s\n", s.Name, session.HexColor(s.Color))
		}
	}
	return sb.String()
}
