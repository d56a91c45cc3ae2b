package core

// LEDUnit names an indicator by its role
type LEDUnit uint8

const (
	LEDHeartbeat LEDUnit = iota // Toggled by the flasher while the scheduler runs
	LEDReport                   // On while a report waits to be clocked out
	LEDPulse                    // Toggled on every reference pulse
	LEDLock                     // On while the oscillator is within tolerance

	NumLEDs
)

// Indicator drives the status LEDs. Implementations must be safe to call
// from interrupt context.
type Indicator interface {
	On(unit LEDUnit)
	Off(unit LEDUnit)
	Toggle(unit LEDUnit)
}

// NopIndicator discards all LED updates
type NopIndicator struct{}

func (NopIndicator) On(LEDUnit)     {}
func (NopIndicator) Off(LEDUnit)    {}
func (NopIndicator) Toggle(LEDUnit) {}

// PinIndicator maps each unit to one GPIO output
type PinIndicator struct {
	gpio  GPIODriver
	pins  [NumLEDs]GPIOPin
	state [NumLEDs]bool
}

// NewPinIndicator configures one output per unit, all initially off
func NewPinIndicator(gpio GPIODriver, pins [NumLEDs]GPIOPin) (*PinIndicator, error) {
	p := &PinIndicator{gpio: gpio, pins: pins}
	for _, pin := range pins {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return nil, err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PinIndicator) set(unit LEDUnit, on bool) {
	if unit >= NumLEDs {
		return
	}
	p.state[unit] = on
	// LED writes are best effort; there is nowhere to report a failure
	_ = p.gpio.SetPin(p.pins[unit], on)
}

// On lights the LED for unit
func (p *PinIndicator) On(unit LEDUnit) { p.set(unit, true) }

// Off clears the LED for unit
func (p *PinIndicator) Off(unit LEDUnit) { p.set(unit, false) }

// Toggle inverts the LED for unit
func (p *PinIndicator) Toggle(unit LEDUnit) {
	if unit >= NumLEDs {
		return
	}
	p.set(unit, !p.state[unit])
}

// State returns the last value written for unit
func (p *PinIndicator) State(unit LEDUnit) bool {
	if unit >= NumLEDs {
		return false
	}
	return p.state[unit]
}
