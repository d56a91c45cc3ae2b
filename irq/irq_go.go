//go:build !tinygo

// Package irq provides the short critical sections used to guard data
// shared between interrupt handlers and the background loop.
package irq

// State is a placeholder for interrupt state on regular Go.
// Host builds drive the handlers from a single goroutine, so there is
// nothing to mask.
type State uintptr

// Disable is a no-op on regular Go (for testing and simulation)
func Disable() State {
	return 0
}

// Restore is a no-op on regular Go (for testing and simulation)
func Restore(state State) {
	_ = state
}
