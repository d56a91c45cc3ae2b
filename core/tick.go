package core

import "errors"

var (
	ErrClockOutOfRange = errors.New("clock frequency out of range for tick timer")
	ErrInvalidTiming   = errors.New("invalid tick timing parameters")
)

// TickCounterMax is the largest compare value of the 8-bit tick timer
const TickCounterMax = 255

// Prescalers offered by the tick timer, smallest first
var tickPrescalers = [...]uint32{8, 64, 256, 1024}

// SelectPrescaler picks the smallest prescaler whose compare value for one
// tick fits the 8-bit counter.
func SelectPrescaler(clockHz, tickHz uint32) (uint32, error) {
	if tickHz == 0 {
		return 0, ErrInvalidTiming
	}
	limit := uint64(TickCounterMax) * uint64(tickHz)
	if uint64(clockHz) <= limit {
		return 0, ErrClockOutOfRange
	}
	for _, p := range tickPrescalers {
		if uint64(clockHz) <= limit*uint64(p) {
			return p, nil
		}
	}
	return 0, ErrClockOutOfRange
}

// DriftCompensator keeps the long-run tick period exact when the cycles
// per tick are not a multiple of the prescaler.
//
// Each tick runs for either the lead interval (floor, short by lead
// cycles) or the lag interval (floor+1, long by lag cycles). drift holds
// the accumulated error in clock cycles, including the period just
// scheduled, and stays within [-lead, lag).
type DriftCompensator struct {
	leadInterval uint16
	lagInterval  uint16
	lead         int32
	lag          int32
	drift        int32
	prescale     uint32
}

// NewDriftCompensator derives the two reload values for clockHz/tickHz
// counted through prescale. The first tick period is a lead period.
func NewDriftCompensator(clockHz, tickHz, prescale uint32) (*DriftCompensator, error) {
	if tickHz == 0 || prescale == 0 {
		return nil, ErrInvalidTiming
	}
	cyclesPerTick := clockHz / tickHz
	interval := cyclesPerTick / prescale
	if interval == 0 || interval >= 0xFFFF {
		return nil, ErrClockOutOfRange
	}

	lead := int32(cyclesPerTick % prescale)
	return &DriftCompensator{
		leadInterval: uint16(interval),
		lagInterval:  uint16(interval + 1),
		lead:         lead,
		lag:          int32(prescale) - lead,
		drift:        -lead,
		prescale:     prescale,
	}, nil
}

// Initial returns the compare value to load before the first tick
func (d *DriftCompensator) Initial() uint16 {
	return d.leadInterval
}

// Next is called from the tick interrupt and returns the compare value
// for the following period.
func (d *DriftCompensator) Next() uint16 {
	if d.lead == 0 {
		return d.leadInterval
	}
	if d.drift >= 0 {
		d.drift -= d.lead
		return d.leadInterval
	}
	d.drift += d.lag
	return d.lagInterval
}

// Drift returns the accumulated timing error in clock cycles
func (d *DriftCompensator) Drift() int32 {
	return d.drift
}

// Prescale returns the prescaler the reload values are counted in
func (d *DriftCompensator) Prescale() uint32 {
	return d.prescale
}

// Intervals returns the lead and lag compare values
func (d *DriftCompensator) Intervals() (lead, lag uint16) {
	return d.leadInterval, d.lagInterval
}
