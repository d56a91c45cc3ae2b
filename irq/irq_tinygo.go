//go:build tinygo

// Package irq provides the short critical sections used to guard data
// shared between interrupt handlers and the background loop.
package irq

import "runtime/interrupt"

// State is the saved interrupt state returned by Disable
type State = interrupt.State

// Disable masks interrupts and returns the previous state.
// Keep the section to a handful of list pointer updates.
func Disable() State {
	return interrupt.Disable()
}

// Restore restores the interrupt state saved by Disable
func Restore(state State) {
	interrupt.Restore(state)
}
