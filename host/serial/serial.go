package serial

import (
	"io"
	"time"
)

// Port represents a serial port interface.
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string `yaml:"device"`

	// Baud rate of the USB bridge in front of the board
	Baud int `yaml:"baud"`

	// Read timeout (0 = blocking)
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns a default configuration for the board's bridge
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
