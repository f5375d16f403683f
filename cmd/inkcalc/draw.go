package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/example/inkcalc/internal/config"
	"github.com/example/inkcalc/internal/display"
	"github.com/example/inkcalc/internal/session"
	"github.com/example/inkcalc/internal/window"
)

// monitorReserve keeps room beside the canvas for the toolbar.
const monitorReserve = 120

// drawCmd opens the drawing window.
type drawCmd struct {
	*root
	fs *flag.FlagSet

	width    int
	height   int
	monitor  string
	fraction float64
	saveDir  string
	watch    bool
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	fs.IntVar(&d.width, "width", 0, "canvas width in pixels (0 sizes from the monitor)")
	fs.IntVar(&d.height, "height", 0, "canvas height in pixels (0 sizes from the monitor)")
	fs.StringVar(&d.monitor, "monitor", "", "monitor used for sizing: primary, index or name")
	fs.Float64Var(&d.fraction, "fraction", 0.8, "share of the monitor the canvas may cover")
	fs.StringVar(&d.saveDir, "save-dir", r.config.SaveDir, "directory for saved images")
	fs.BoolVar(&d.watch, "watch", true, "reload the configuration file when it changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: d}
	}
	if d.width < 0 || d.height < 0 {
		return nil, fmt.Errorf("canvas size must not be negative")
	}
	if d.fraction <= 0 || d.fraction > 1 {
		return nil, fmt.Errorf("fraction must be in (0, 1]")
	}
	return d, nil
}

// canvasSize resolves the requested size, filling unset dimensions from
// the selected monitor.
func (d *drawCmd) canvasSize() image.Point {
	size := image.Pt(d.width, d.height)
	if size.X > 0 && size.Y > 0 {
		return size
	}
	fallback := image.Pt(session.DefaultWidth, session.DefaultHeight)
	probe, err := display.Size(d.monitor, d.fraction, monitorReserve, fallback)
	if err != nil {
		log.Printf("display: %v", err)
		probe = fallback
	}
	if size.X <= 0 {
		size.X = probe.X
	}
	if size.Y <= 0 {
		size.Y = probe.Y
	}
	return size
}

func (d *drawCmd) Run() error {
	size := d.canvasSize()
	live := newLiveEvaluator(d.client())
	sess := d.newSession(size.X, size.Y, live)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if d.watch {
		d.watchConfig(ctx, live)
	}

	w := window.New(sess,
		window.WithNotifier(d.notifier),
		window.WithSaveDir(d.saveDir),
		window.WithTitle(fmt.Sprintf("inkcalc %dx%d", size.X, size.Y)),
		window.WithOnClose(cancel),
	)
	w.Run()
	return nil
}

// watchConfig swaps in a new client and notification settings whenever
// the configuration file changes.
func (d *drawCmd) watchConfig(ctx context.Context, live *liveEvaluator) {
	path := config.NewLoader(version, d.configPath).GetConfigPath()
	if path == "" {
		return
	}
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			log.Printf("config reload: %v", err)
			return
		}
		if d.endpoint != "" {
			cfg.Endpoint = d.endpoint
		}
		live.swap(newClientFrom(cfg))
		d.applyAlerts(cfg.Notify)
		log.Printf("config reload: endpoint %s", cfg.Endpoint)
	})
	if err != nil {
		log.Printf("config watch: %v", err)
	}
}
