//go:build atmega1284p

package main

import (
	"errors"
	"machine"

	"gpsdo/core"
)

var errPinNotConfigured = errors.New("pin not configured as output")

// AVRGPIODriver implements core.GPIODriver for the PORTA status LEDs
type AVRGPIODriver struct {
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewAVRGPIODriver creates a driver with no pins configured
func NewAVRGPIODriver() *AVRGPIODriver {
	return &AVRGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a PORTA bit as a digital output
func (d *AVRGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}

	machinePin := machine.PA0 + machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machinePin.Low()

	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin drives an output. Called from interrupt handlers, so no allocation.
func (d *AVRGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, ok := d.configuredPins[pin]
	if !ok {
		return errPinNotConfigured
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads back the output latch
func (d *AVRGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, ok := d.configuredPins[pin]
	if !ok {
		return false, errPinNotConfigured
	}
	return machinePin.Get(), nil
}
