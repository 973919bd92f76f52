// Package osthread identifies the operating system thread the calling
// goroutine is running on.
//
// The identity is only stable while the goroutine is locked to its thread
// with runtime.LockOSThread.
package osthread
