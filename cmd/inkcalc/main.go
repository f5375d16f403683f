package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/example/inkcalc/internal/config"
	"github.com/example/inkcalc/internal/evaluate"
	"github.com/example/inkcalc/internal/notify"
	"github.com/example/inkcalc/internal/session"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	notifier *notify.Notifier
	stdout   io.Writer
	stderr   io.Writer

	configPath   string
	endpoint     string
	resultAlerts bool
	errorAlerts  bool
	saveAlerts   bool
	copyAlerts   bool
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	return newRootWith(cfg, notify.New(notify.LoadPreferences(os.Getenv)), os.Stdout, os.Stderr)
}

func newRootWith(cfg *config.Config, n *notify.Notifier, stdout, stderr io.Writer) *root {
	r := &root{
		fs:       flag.NewFlagSet("inkcalc", flag.ContinueOnError),
		program:  "inkcalc",
		config:   cfg,
		notifier: n,
		stdout:   stdout,
		stderr:   stderr,
	}
	r.fs.SetOutput(stderr)
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "path to the configuration file")
	r.fs.StringVar(&r.endpoint, "endpoint", "", "evaluation service URL (overrides config and "+config.EnvEndpoint+")")
	r.fs.BoolVar(&r.resultAlerts, "notify-result", cfg.Notify.Result, "show a desktop notification with evaluation results")
	r.fs.BoolVar(&r.errorAlerts, "notify-error", cfg.Notify.Error, "show a desktop notification when evaluation fails")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	// Precedence: CLI > Env > Config > Default
	if r.endpoint != "" {
		r.config.Endpoint = r.endpoint
	}
	r.config.RegisterPalette()
	r.applyAlerts(config.Notify{Result: r.resultAlerts, Error: r.errorAlerts, Save: r.saveAlerts, Copy: r.copyAlerts})

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "eval":
		cmd, err = parseEvalCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r)
	case "widths":
		cmd, err = parseWidthsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) applyAlerts(n config.Notify) {
	if r.notifier == nil {
		return
	}
	r.notifier.Enable(notify.EventResult, n.Result)
	r.notifier.Enable(notify.EventError, n.Error)
	r.notifier.Enable(notify.EventSave, n.Save)
	r.notifier.Enable(notify.EventCopy, n.Copy)
}

// client builds an evaluation client from the effective configuration.
func (r *root) client() *evaluate.Client {
	return newClientFrom(r.config)
}

func newClientFrom(cfg *config.Config) *evaluate.Client {
	return evaluate.NewClient(cfg.Endpoint, cfg.ClientOptions()...)
}

// newSession creates a session of the given size wired to a live
// evaluator.
func (r *root) newSession(w, h int, live *liveEvaluator) *session.Session {
	opts := append(r.config.SessionOptions(),
		session.WithSize(w, h),
		session.WithEvaluator(live),
	)
	return session.New(opts...)
}

// liveEvaluator forwards to a client that can be swapped when the
// configuration is reloaded.
type liveEvaluator struct {
	current atomic.Pointer[evaluate.Client]
}

func newLiveEvaluator(c *evaluate.Client) *liveEvaluator {
	l := &liveEvaluator{}
	l.current.Store(c)
	return l
}

func (l *liveEvaluator) Evaluate(ctx context.Context, img image.Image, vars map[string]string) ([]evaluate.Entry, error) {
	return l.current.Load().Evaluate(ctx, img, vars)
}

func (l *liveEvaluator) swap(c *evaluate.Client) { l.current.Store(c) }

// configFlag finds an explicit --config before the root flags are parsed,
// since the file decides the flag defaults.
func configFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || !strings.HasPrefix(arg, "-") {
			return ""
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name != "config" {
			if name == "endpoint" && !hasValue {
				i++
			}
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func main() {
	configPathOverride = configFlag(os.Args[1:])
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		case errors.Is(err, flag.ErrHelp):
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
