package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/inkcalc/internal/clipboard"
	"github.com/example/inkcalc/internal/overlay"
	"github.com/example/inkcalc/internal/render"
	"github.com/example/inkcalc/internal/session"
)

// commandList collects repeated -e flags.
type commandList []string

func (c *commandList) String() string { return strings.Join(*c, "; ") }

func (c *commandList) Set(s string) error {
	*c = append(*c, s)
	return nil
}

// interactiveCmd drives a session from typed commands.
type interactiveCmd struct {
	*root
	fs *flag.FlagSet

	execs  commandList
	width  int
	height int
	stdin  io.Reader

	sess     *session.Session
	composer *render.Composer
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	i := &interactiveCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(i)
	fs.Var(&i.execs, "e", "execute a command in immediate mode (may be specified multiple times)")
	fs.IntVar(&i.width, "width", session.DefaultWidth, "canvas width in pixels")
	fs.IntVar(&i.height, "height", session.DefaultHeight, "canvas height in pixels")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: i}
	}
	if i.width < 1 || i.height < 1 {
		return nil, fmt.Errorf("canvas size must be positive")
	}
	return i, nil
}

func (i *interactiveCmd) start() {
	if i.sess != nil {
		return
	}
	i.sess = i.newSession(i.width, i.height, newLiveEvaluator(i.client()))
	i.composer = render.NewComposer()
}

func (i *interactiveCmd) Run() error {
	i.start()
	if len(i.execs) > 0 {
		for _, cmd := range i.execs {
			done, err := i.executeLine(cmd)
			if err != nil {
				return err
			}
			if done {
				break
			}
		}
		return nil
	}

	fmt.Fprintln(i.stdout, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(i.stdin)
	for {
		fmt.Fprint(i.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := i.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(i.stderr, err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

const interactiveHelp = `commands:
  down X Y | move X Y | up X Y | leave   pointer events on the canvas
  stroke X,Y X,Y ...                     draw a polyline as one stroke
  color SPEC | width N                   change the brush
  undo | redo | reset                    history and session control
  eval                                   send the canvas for evaluation
  labels | drag REF X Y                  list or move result labels
  vars | history | bounds                inspect the session
  save PATH | copy [text]                export the canvas with labels
  exit                                   leave the console`

// executeLine runs one command and reports whether the console should
// stop.
func (i *interactiveCmd) executeLine(line string) (bool, error) {
	i.start()
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprintln(i.stdout, interactiveHelp)
	case "down", "move", "up":
		p, err := parsePoint(rest)
		if err != nil {
			return false, fmt.Errorf("%s: %w", cmd, err)
		}
		return false, i.pointer(cmd, p)
	case "leave":
		return false, i.sess.PointerLeave()
	case "stroke":
		return false, i.stroke(rest)
	case "color":
		if len(rest) == 0 {
			return false, fmt.Errorf("color requires a name or hex value")
		}
		c, err := session.ParseColor(strings.Join(rest, " "))
		if err != nil {
			return false, err
		}
		i.sess.SetColor(c)
	case "width":
		if len(rest) != 1 {
			return false, fmt.Errorf("width requires one integer")
		}
		w, err := strconv.Atoi(rest[0])
		if err != nil || w < 1 {
			return false, fmt.Errorf("invalid width %q", rest[0])
		}
		i.sess.SetWidth(w)
	case "undo":
		ok, err := i.sess.Undo()
		if err == nil && !ok {
			fmt.Fprintln(i.stdout, "nothing to undo")
		}
		return false, err
	case "redo":
		ok, err := i.sess.Redo()
		if err == nil && !ok {
			fmt.Fprintln(i.stdout, "nothing to redo")
		}
		return false, err
	case "reset":
		i.sess.Reset()
	case "eval":
		return false, i.evaluate()
	case "labels":
		for n, l := range i.sess.Labels() {
			fmt.Fprintf(i.stdout, "%d %s %s %s\n", n+1, shortID(l.ID), l.Anchor, l.Content)
		}
	case "drag":
		return false, i.drag(rest)
	case "vars":
		vars := i.sess.Variables()
		if len(vars) == 0 {
			fmt.Fprintln(i.stdout, "no variables")
			return false, nil
		}
		for _, name := range sortedNames(vars) {
			fmt.Fprintf(i.stdout, "%s = %s\n", name, vars[name])
		}
	case "history":
		n, idx := i.sess.History()
		fmt.Fprintf(i.stdout, "%d/%d\n", idx+1, n)
	case "bounds":
		box, ok := i.sess.Snapshot().InkBounds()
		if !ok {
			fmt.Fprintln(i.stdout, "canvas is empty")
			return false, nil
		}
		fmt.Fprintf(i.stdout, "%d,%d %d,%d anchor %s\n", box.Min.X, box.Min.Y, box.Max.X, box.Max.Y, overlay.Anchor(box))
	case "save":
		if len(rest) != 1 {
			return false, fmt.Errorf("save requires a file path")
		}
		return false, i.save(rest[0])
	case "copy":
		return false, i.copy(rest)
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return false, nil
}

func (i *interactiveCmd) pointer(kind string, p image.Point) error {
	switch kind {
	case "down":
		return i.sess.PointerDown(p)
	case "move":
		return i.sess.PointerMove(p)
	default:
		return i.sess.PointerUp(p)
	}
}

func (i *interactiveCmd) stroke(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("stroke requires at least one X,Y point")
	}
	pts := make([]image.Point, len(args))
	for n, a := range args {
		p, err := parsePoint(strings.SplitN(a, ",", 2))
		if err != nil {
			return fmt.Errorf("stroke: %w", err)
		}
		pts[n] = p
	}
	if err := i.sess.PointerDown(pts[0]); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		if err := i.sess.PointerMove(p); err != nil {
			return err
		}
	}
	return i.sess.PointerUp(pts[len(pts)-1])
}

func (i *interactiveCmd) evaluate() error {
	preview := i.sess.Snapshot().Image()
	res, err := i.sess.Evaluate(context.Background())
	if errors.Is(err, session.ErrEmptyCanvas) {
		fmt.Fprintln(i.stdout, "nothing to evaluate")
		return nil
	}
	if err != nil {
		i.notifier.Error(err)
		return err
	}
	i.notifier.Result(res.Entries, preview)
	if len(res.Entries) == 0 {
		fmt.Fprintln(i.stdout, "no expressions recognised")
		return nil
	}
	// The console has no clock to pace against, so every label is shown
	// at once.
	i.sess.Flush()
	for _, e := range res.Entries {
		fmt.Fprintln(i.stdout, overlay.Markup(e.Expression, e.Answer))
	}
	if res.Assigned > 0 {
		fmt.Fprintf(i.stdout, "%d variables assigned\n", res.Assigned)
	}
	return nil
}

func (i *interactiveCmd) drag(args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("drag requires a label and X Y")
	}
	l, err := i.findLabel(args[0])
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(args[1], 64)
	y, errY := strconv.ParseFloat(args[2], 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("invalid position %s %s", args[1], args[2])
	}
	return i.sess.MoveLabel(l.ID, overlay.Point{X: x, Y: y})
}

// findLabel resolves a 1-based index or an id prefix.
func (i *interactiveCmd) findLabel(ref string) (overlay.Label, error) {
	labels := i.sess.Labels()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(labels) {
			return overlay.Label{}, fmt.Errorf("no label %d", n)
		}
		return labels[n-1], nil
	}
	var found []overlay.Label
	for _, l := range labels {
		if strings.HasPrefix(l.ID, ref) {
			found = append(found, l)
		}
	}
	switch len(found) {
	case 0:
		return overlay.Label{}, fmt.Errorf("no label %q", ref)
	case 1:
		return found[0], nil
	default:
		return overlay.Label{}, fmt.Errorf("label %q is ambiguous", ref)
	}
}

func (i *interactiveCmd) composed() image.Image {
	return i.composer.Compose(i.sess.Snapshot(), i.sess.Labels())
}

func (i *interactiveCmd) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := png.Encode(f, i.composed()); err != nil {
		_ = f.Close()
		return fmt.Errorf("save: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	i.notifier.Save(path)
	fmt.Fprintf(i.stdout, "saved %s\n", path)
	return nil
}

func (i *interactiveCmd) copy(args []string) error {
	if len(args) > 0 && args[0] == "text" {
		labels := i.sess.Labels()
		lines := make([]string, len(labels))
		for n, l := range labels {
			lines[n] = l.Content
		}
		if err := clipboard.WriteResults(lines); err != nil {
			return fmt.Errorf("copy: %w", err)
		}
		i.notifier.Copy(fmt.Sprintf("%d results", len(lines)))
		return nil
	}
	if err := clipboard.WriteImage(i.composed()); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	i.notifier.Copy("image")
	return nil
}

func parsePoint(args []string) (image.Point, error) {
	if len(args) != 2 {
		return image.Point{}, fmt.Errorf("expected X Y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid integer %q", args[0])
	}
	y, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid integer %q", args[1])
	}
	return image.Pt(x, y), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
