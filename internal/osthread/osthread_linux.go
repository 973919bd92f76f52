//go:build linux

package osthread

import "golang.org/x/sys/unix"

// Supported reports whether ID returns real thread ids on this platform.
const Supported = true

// ID returns the kernel thread id of the calling thread.
func ID() int {
	return unix.Gettid()
}
