// Package history keeps the undo/redo stack of raster snapshots.
package history

import "github.com/example/inkcalc/internal/raster"

// Stack is an ordered list of snapshots with a cursor. When non-empty the
// cursor always satisfies 0 <= index < Len(); an empty stack has index -1.
type Stack struct {
	entries []*raster.Snapshot
	index   int
	limit   int
}

// Option modifies a Stack during creation.
type Option func(*Stack)

// WithLimit caps the number of retained snapshots; the oldest entries are
// dropped first. Zero or less keeps everything.
func WithLimit(n int) Option { return func(s *Stack) { s.limit = n } }

// New creates an empty Stack.
func New(opts ...Option) *Stack {
	s := &Stack{index: -1}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Capture appends a snapshot of r, discarding any redo branch beyond the
// current index.
func (s *Stack) Capture(r *raster.Raster) {
	snap := r.Snapshot()
	s.entries = append(s.entries[:s.index+1], snap)
	s.index = len(s.entries) - 1
	if s.limit > 0 && len(s.entries) > s.limit {
		drop := len(s.entries) - s.limit
		for i := 0; i < drop; i++ {
			s.entries[i] = nil
		}
		s.entries = s.entries[drop:]
		s.index -= drop
	}
}

// Undo steps back one entry and restores it into r. It reports false and
// leaves r untouched when already at the oldest entry.
func (s *Stack) Undo(r *raster.Raster) bool {
	if !s.CanUndo() {
		return false
	}
	s.index--
	r.Restore(s.entries[s.index])
	return true
}

// Redo steps forward one entry and restores it into r. It reports false
// when already at the newest entry.
func (s *Stack) Redo(r *raster.Raster) bool {
	if !s.CanRedo() {
		return false
	}
	s.index++
	r.Restore(s.entries[s.index])
	return true
}

// Clear drops every entry.
func (s *Stack) Clear() {
	for i := range s.entries {
		s.entries[i] = nil
	}
	s.entries = s.entries[:0]
	s.index = -1
}

func (s *Stack) CanUndo() bool { return s.index > 0 }

func (s *Stack) CanRedo() bool { return s.index >= 0 && s.index < len(s.entries)-1 }

// Len returns the number of stored snapshots.
func (s *Stack) Len() int { return len(s.entries) }

// Index returns the cursor, or -1 when empty.
func (s *Stack) Index() int { return s.index }

// Current returns the snapshot under the cursor, or nil when empty.
func (s *Stack) Current() *raster.Snapshot {
	if s.index < 0 {
		return nil
	}
	return s.entries[s.index]
}
