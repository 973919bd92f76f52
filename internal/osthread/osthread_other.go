//go:build !linux

package osthread

// Supported reports whether ID returns real thread ids on this platform.
const Supported = false

// ID returns 0: thread ids are not available on this platform.
func ID() int {
	return 0
}
