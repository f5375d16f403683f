package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/inkcalc/internal/clipboard"
	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/raster"
	"github.com/example/inkcalc/internal/render"
)

// varsFlag collects repeated name=value pairs.
type varsFlag map[string]string

func (v varsFlag) String() string {
	names := sortedNames(v)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + v[k]
	}
	return strings.Join(parts, ",")
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (v varsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("variable must be name=value, got %q", s)
	}
	v[name] = strings.TrimSpace(value)
	return nil
}

// evalCmd sends an image file to the evaluation service.
type evalCmd struct {
	*root
	fs *flag.FlagSet

	input  string
	output string
	vars   varsFlag
	tex    bool
	copy   bool
	stdin  io.Reader
}

func (e *evalCmd) FlagSet() *flag.FlagSet {
	return e.fs
}

func parseEvalCmd(args []string, r *root) (*evalCmd, error) {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	e := &evalCmd{root: r, fs: fs, vars: varsFlag{}, stdin: os.Stdin}
	fs.Usage = usageFunc(e)
	fs.Var(e.vars, "var", "variable passed to the service as name=value (may be repeated)")
	fs.StringVar(&e.output, "output", "", "write the image with result labels to this PNG file")
	fs.BoolVar(&e.tex, "tex", false, "print results wrapped for a TeX renderer")
	fs.BoolVar(&e.copy, "to-clipboard", false, "copy the results to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: e}
	}
	e.input = fs.Arg(0)
	return e, nil
}

func (e *evalCmd) Run() error {
	img, err := e.readInput()
	if err != nil {
		return err
	}
	entries, err := e.client().Evaluate(context.Background(), img, e.vars)
	if err != nil {
		e.notifier.Error(err)
		return fmt.Errorf("eval %s: %w", e.input, err)
	}
	e.notifier.Result(entries, img)

	lines := make([]string, len(entries))
	for i, en := range entries {
		lines[i] = overlay.Markup(en.Expression, en.Answer)
		out := lines[i]
		if e.tex {
			out = overlay.TeX(out)
		}
		fmt.Fprintln(e.stdout, out)
	}
	if len(entries) == 0 {
		fmt.Fprintln(e.stderr, "no expressions recognised")
	}

	if e.output != "" {
		if err := e.writeLabelled(img, lines); err != nil {
			return err
		}
		e.notifier.Save(e.output)
	}
	if e.copy && len(lines) > 0 {
		if err := clipboard.WriteResults(lines); err != nil {
			return fmt.Errorf("copy results: %w", err)
		}
		e.notifier.Copy(fmt.Sprintf("%d results", len(lines)))
	}
	return nil
}

func (e *evalCmd) readInput() (image.Image, error) {
	var r io.Reader = e.stdin
	if e.input != "-" {
		f, err := os.Open(e.input)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", e.input, err)
		}
		defer f.Close()
		r = f
	}
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.input, err)
	}
	return img, nil
}

// writeLabelled draws the result labels over img at the centre of its ink
// and saves it to the output path.
func (e *evalCmd) writeLabelled(img image.Image, lines []string) error {
	b := img.Bounds()
	r := raster.New(b.Dx(), b.Dy(), e.config.Background)
	draw.Draw(r.Image(), r.Bounds(), img, b.Min, draw.Src)
	box, _ := r.InkBounds()

	board := overlay.NewBoard()
	board.Schedule(time.Time{}, overlay.Anchor(box), lines...)
	out := render.NewComposer().Compose(r.Snapshot(), board.Flush())

	f, err := os.Create(e.output)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.output, err)
	}
	if err := png.Encode(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", e.output, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", e.output, err)
	}
	return nil
}
