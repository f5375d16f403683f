package evaluate

import "sort"

// Variables is the symbol dictionary substituted into later evaluations.
// The zero value is ready to use.
type Variables struct {
	m map[string]string
}

// Get returns the last known value of name.
func (v *Variables) Get(name string) (string, bool) {
	val, ok := v.m[name]
	return val, ok
}

// Set stores value under name, overwriting any previous value.
func (v *Variables) Set(name, value string) {
	if v.m == nil {
		v.m = make(map[string]string)
	}
	v.m[name] = value
}

// Apply records every assignment entry and returns how many were applied.
func (v *Variables) Apply(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if !e.Assign {
			continue
		}
		v.Set(e.Expression, e.Answer)
		n++
	}
	return n
}

// Map returns a copy suitable for a request payload. It is never nil.
func (v *Variables) Map() map[string]string {
	out := make(map[string]string, len(v.m))
	for k, val := range v.m {
		out[k] = val
	}
	return out
}

// Names returns the symbols in sorted order.
func (v *Variables) Names() []string {
	out := make([]string, 0, len(v.m))
	for k := range v.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (v *Variables) Len() int { return len(v.m) }

// Clear forgets every symbol.
func (v *Variables) Clear() { v.m = nil }
