//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

const needsDisplay = true
