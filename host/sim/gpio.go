package sim

import (
	"fmt"
	"sync"

	"gpsdo/core"
)

// GPIO is an in-memory output port
type GPIO struct {
	mu         sync.Mutex
	configured map[core.GPIOPin]bool
	levels     map[core.GPIOPin]bool
	edges      map[core.GPIOPin]int
}

// NewGPIO creates a port with no configured pins
func NewGPIO() *GPIO {
	return &GPIO{
		configured: make(map[core.GPIOPin]bool),
		levels:     make(map[core.GPIOPin]bool),
		edges:      make(map[core.GPIOPin]int),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.configured[pin] = true
	g.levels[pin] = false
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.configured[pin] {
		return fmt.Errorf("pin %d not configured as output", pin)
	}
	if g.levels[pin] != value {
		g.edges[pin]++
	}
	g.levels[pin] = value
	return nil
}

func (g *GPIO) GetPin(pin core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.configured[pin] {
		return false, fmt.Errorf("pin %d not configured as output", pin)
	}
	return g.levels[pin], nil
}

// Edges returns how many times pin changed level
func (g *GPIO) Edges(pin core.GPIOPin) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.edges[pin]
}
