package mcu

import (
	"errors"
	"fmt"
	"time"

	"gpsdo/host/serial"
	"gpsdo/protocol"
)

var ErrNotConnected = errors.New("not connected to board")

// MCU represents a connection to the GPSDO board.
//
// The board is a link slave: it only transmits while the host clocks bytes
// in, so the host must keep polling for reports to come back.
type MCU struct {
	// Transport layer
	transport *protocol.HostTransport

	// Serial port
	port serial.Port

	// Connection state
	connected bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{
		connected: false,
	}
}

// Connect connects to the board via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to the board with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.Flush(); err != nil {
		port.Close()
		return fmt.Errorf("failed to flush serial port: %w", err)
	}

	m.Attach(port)
	return nil
}

// Attach runs the transport over an already open port
func (m *MCU) Attach(port serial.Port) {
	m.port = port
	m.transport = protocol.NewHostTransport(port)
	m.connected = true
}

// Close closes the connection to the board
func (m *MCU) Close() error {
	if m.transport != nil {
		if err := m.transport.Close(); err != nil {
			return err
		}
	}
	m.connected = false
	return nil
}

// IsConnected reports whether a port is attached
func (m *MCU) IsConnected() bool {
	return m.connected
}

// Poll clocks n filler bytes so the board can shift out pending frames
func (m *MCU) Poll(n int) error {
	if !m.connected {
		return ErrNotConnected
	}
	return m.transport.Poll(n)
}

// Acknowledge tells the board a report arrived
func (m *MCU) Acknowledge() error {
	if !m.connected {
		return ErrNotConnected
	}
	return m.transport.Send(protocol.CmdAcknowledge, nil)
}

// Frames returns the channel of decoded frames from the board
func (m *MCU) Frames() <-chan []byte {
	if m.transport == nil {
		return nil
	}
	return m.transport.Frames()
}

// WaitReport polls until a report frame arrives or the timeout expires
func (m *MCU) WaitReport(pollBytes int, timeout time.Duration) (protocol.Report, error) {
	if !m.connected {
		return protocol.Report{}, ErrNotConnected
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := m.transport.Poll(pollBytes); err != nil {
			return protocol.Report{}, err
		}
		frame, err := m.transport.ReceiveFrame(50 * time.Millisecond)
		if err != nil {
			if errors.Is(err, protocol.ErrTransportClosed) {
				return protocol.Report{}, err
			}
			continue
		}
		if len(frame) > 0 && frame[0] == protocol.CmdPPSReport {
			return protocol.DecodeReport(frame)
		}
	}
	return protocol.Report{}, fmt.Errorf("no report within %v", timeout)
}

// Stats returns the host transport counters
func (m *MCU) Stats() protocol.HostStats {
	if m.transport == nil {
		return protocol.HostStats{}
	}
	return m.transport.Stats()
}
