package core

import (
	"errors"

	"gpsdo/protocol"
)

var ErrInvalidConfig = errors.New("invalid device configuration")

// MaxTickHz keeps one second of ticks within a timer's 8-bit count
const MaxTickHz = 255

// configError names the offending field. It matches ErrInvalidConfig
// with errors.Is.
type configError struct {
	msg string
}

func (e *configError) Error() string { return ErrInvalidConfig.Error() + ": " + e.msg }

func (e *configError) Unwrap() error { return ErrInvalidConfig }

func invalid(msg string) error { return &configError{msg: msg} }

// Config holds the board parameters fixed at start-up
type Config struct {
	ClockHz       uint32 `yaml:"clock_hz"`        // Nominal oscillator frequency
	TickHz        uint32 `yaml:"tick_hz"`         // Scheduler tick rate
	Prescale      uint32 `yaml:"prescale"`        // Tick timer prescaler, 0 selects automatically
	TolerancePPM  uint32 `yaml:"tolerance_ppm"`   // Largest per-second error still counted as locked
	Window        uint8  `yaml:"window"`          // Seconds averaged per report
	TimerPoolSize int    `yaml:"timer_pool_size"` // Fixed number of scheduler timers
	LinkBuffers   int    `yaml:"link_buffers"`    // Fixed number of transport buffers
}

// DefaultConfig matches the reference board: a 4 MHz crystal, 100 Hz ticks
// and 16-second reports.
func DefaultConfig() Config {
	return Config{
		ClockHz:       4000000,
		TickHz:        100,
		TolerancePPM:  1000,
		Window:        16,
		TimerPoolSize: 5,
		LinkBuffers:   4,
	}
}

// Validate checks the configuration and resolves an automatic prescaler
func (c *Config) Validate() error {
	if c.ClockHz < 1000000 {
		return invalid("clock_hz " + utoa(c.ClockHz) + " is below 1 MHz")
	}
	// Periodic tasks count whole seconds in 8-bit tick counts
	if c.TickHz < 2 || c.TickHz > MaxTickHz {
		return invalid("tick_hz must be between 2 and " + itoa(MaxTickHz))
	}
	if c.Window == 0 {
		return invalid("window must be positive")
	}
	if c.TolerancePPM == 0 || c.TolerancePPM > 100000 {
		return invalid("tolerance_ppm must be between 1 and 100000")
	}
	if c.TimerPoolSize <= 0 || c.TimerPoolSize > MaxTimers {
		return invalid("timer_pool_size must be between 1 and " + itoa(MaxTimers))
	}
	if c.LinkBuffers <= 0 || c.LinkBuffers > protocol.MaxBuffers {
		return invalid("link_buffers must be between 1 and " + itoa(protocol.MaxBuffers))
	}

	if c.Prescale == 0 {
		p, err := SelectPrescaler(c.ClockHz, c.TickHz)
		if err != nil {
			return invalid(err.Error())
		}
		c.Prescale = p
	}
	interval := c.ClockHz / c.TickHz / c.Prescale
	if interval == 0 || interval > TickCounterMax {
		return invalid("prescale " + utoa(c.Prescale) + " does not fit the tick counter")
	}
	return nil
}

// MaxError converts the tolerance into clock cycles per second with the
// device's rounding: ppm is rounded up to whole hundreds first.
func (c Config) MaxError() int32 {
	hundreds := (uint64(c.TolerancePPM) + 99) / 100
	return int32(hundreds * (uint64(c.ClockHz) / 100) / 100)
}
