//go:build !(linux || freebsd || openbsd || netbsd || dragonfly) && !((darwin || windows) && cgo)

package clipboard

import "errors"

var errUnsupported = errors.New("clipboard is not supported on this platform")

func writePNG([]byte) error  { return errUnsupported }
func writeText([]byte) error { return errUnsupported }
