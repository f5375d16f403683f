//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Without cgo the clipboard is served directly over the X protocol: a
// hidden window takes ownership of CLIPBOARD and answers selection
// requests from its event loop.

var (
	initOnce sync.Once
	initErr  error
	owner    *selectionOwner
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		o := &selectionOwner{}
		if err := o.open(); err != nil {
			initErr = err
			return
		}
		owner = o
	})
	return initErr
}

func writePNG(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(owner.atoms.png, data)
}

func writeText(data []byte) error {
	if err := ensureInit(); err != nil {
		return err
	}
	return owner.publish(owner.atoms.utf8, data)
}

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
}

type selectionOwner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atoms

	mu     sync.RWMutex
	target xproto.Atom
	data   []byte
}

func (o *selectionOwner) open() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return err
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	if err := xproto.CreateWindowChecked(conn, 0, window, screen.Root, 0, 0, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		conn.Close()
		return err
	}
	a, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	o.conn, o.window, o.atoms = conn, window, a
	go o.serve()
	return nil
}

func internAtoms(conn *xgb.Conn) (atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png"}
	got := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atoms{}, err
		}
		got[i] = reply.Atom
	}
	return atoms{clipboard: got[0], targets: got[1], utf8: got[2], textPlain: got[3], png: got[4]}, nil
}

func (o *selectionOwner) publish(target xproto.Atom, data []byte) error {
	o.mu.Lock()
	o.target = target
	o.data = append([]byte(nil), data...)
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *selectionOwner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.target, o.data = 0, nil
			o.mu.Unlock()
		}
	}
}

// offers lists the targets the held data can be converted to.
func (o *selectionOwner) offers(held xproto.Atom) []xproto.Atom {
	switch held {
	case o.atoms.utf8:
		return []xproto.Atom{o.atoms.utf8, xproto.AtomString, o.atoms.textPlain}
	case o.atoms.png:
		return []xproto.Atom{o.atoms.png}
	}
	return nil
}

func (o *selectionOwner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}

	o.mu.RLock()
	held, data := o.target, o.data
	o.mu.RUnlock()
	offers := o.offers(held)

	switch {
	case e.Target == o.atoms.targets:
		list := append([]xproto.Atom{o.atoms.targets}, offers...)
		buf := make([]byte, len(list)*4)
		for i, a := range list {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, xproto.AtomAtom, 32, uint32(len(list)), buf)
	case len(data) > 0 && containsAtom(offers, e.Target):
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property, held, 8, uint32(len(data)), data)
	default:
		property = xproto.AtomNone
	}

	notify := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	_ = xproto.SendEvent(o.conn, false, e.Requestor, 0, string(notify.Bytes()))
}

func containsAtom(list []xproto.Atom, a xproto.Atom) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}
