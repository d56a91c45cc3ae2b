// Package sim runs the firmware core against a simulated oscillator and
// reference pulse, with the host end of the link attached.
//
// Time is counted in oscillator cycles. Three interrupt sources are
// modelled: the tick timer compare, the 16-bit capture counter overflow and
// the reference edge capture. When two fall on the same cycle the overflow
// is handled first, then the capture, then the tick.
package sim

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	"gpsdo/core"
	"gpsdo/protocol"
)

// Simulated LED pins, indexed by core.LEDUnit
var ledPins = [core.NumLEDs]core.GPIOPin{0, 1, 2, 3}

const captureWrap = 1 << 16

// Options describe the simulated hardware around the firmware
type Options struct {
	OffsetPPM    float64 // Oscillator error against the reference
	JitterCycles int     // Peak reference edge jitter in cycles
	Seed         int64
	BytesPerTick int  // Link bytes the host clocks per tick, 0 when an external host uses Exchange
	Acknowledge  bool // Host answers every report with command 0x01
}

// HostStats counts what the simulated host saw on the link
type HostStats struct {
	Frames        int
	FramingErrors int
	Acks          int
}

// Board is a simulated GPSDO board with its host
type Board struct {
	dev  *core.Device
	gpio *GPIO
	leds *core.PinIndicator
	opts Options
	rng  *rand.Rand

	prescale uint64
	edgeHz   float64 // Oscillator cycles per reference second

	now          uint64
	nextTick     uint64
	nextOverflow uint64
	nextEdge     uint64
	edges        uint64
	ticks        uint64

	// Host end of the link
	decoder  *protocol.Decoder
	hostTx   []byte
	reports  []protocol.Report
	stats    HostStats
	onReport func(protocol.Report)
}

// New builds a board around a fresh device and starts its timers
func New(cfg core.Config, opts Options) (*Board, error) {
	if opts.BytesPerTick < 0 {
		return nil, errors.New("bytes per tick cannot be negative")
	}

	gpio := NewGPIO()
	leds, err := core.NewPinIndicator(gpio, ledPins)
	if err != nil {
		return nil, err
	}

	dev, err := core.NewDevice(cfg, leds)
	if err != nil {
		return nil, err
	}
	cfg = dev.Config()

	if opts.JitterCycles < 0 || uint32(opts.JitterCycles) >= cfg.ClockHz/2 {
		return nil, errors.New("jitter must be below half a second")
	}

	b := &Board{
		dev:          dev,
		gpio:         gpio,
		leds:         leds,
		opts:         opts,
		rng:          rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)>>1|1)),
		prescale:     uint64(dev.Prescale()),
		edgeHz:       float64(cfg.ClockHz) * (1 + opts.OffsetPPM*1e-6),
		nextOverflow: captureWrap,
		decoder:      protocol.NewDecoder(protocol.BufferSize),
	}
	b.nextTick = uint64(dev.InitialCompare()) * b.prescale
	b.scheduleEdge()

	if err := dev.Start(); err != nil {
		return nil, err
	}
	return b, nil
}

// SetReportHandler registers a callback for every report the host decodes
func (b *Board) SetReportHandler(h func(protocol.Report)) {
	b.onReport = h
}

// Run advances the simulation by the given number of nominal seconds
func (b *Board) Run(ctx context.Context, seconds int) error {
	clockHz := uint64(b.dev.Config().ClockHz)
	for s := 0; s < seconds; s++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.RunCycles(clockHz)
	}
	return nil
}

// RunCycles advances the simulation by n oscillator cycles
func (b *Board) RunCycles(n uint64) {
	end := b.now + n
	for {
		next := min(b.nextOverflow, b.nextEdge, b.nextTick)
		if next > end {
			break
		}
		b.step()
	}
	b.now = end
}

func (b *Board) step() {
	switch {
	case b.nextOverflow <= b.nextEdge && b.nextOverflow <= b.nextTick:
		b.now = b.nextOverflow
		b.dev.OverflowISR()
		b.nextOverflow += captureWrap

	case b.nextEdge <= b.nextTick:
		b.now = b.nextEdge
		b.dev.CaptureISR(uint16(b.now))
		b.scheduleEdge()

	default:
		b.now = b.nextTick
		compare := b.dev.TickISR()
		b.nextTick += uint64(compare) * b.prescale
		b.ticks++
		b.clockLink()
		for b.dev.Poll() > 0 {
		}
	}
}

// scheduleEdge places the next reference edge one true second after the
// previous one, measured in oscillator cycles
func (b *Board) scheduleEdge() {
	b.edges++
	edge := int64(math.Round(float64(b.edges) * b.edgeHz))
	if j := b.opts.JitterCycles; j > 0 {
		edge += int64(b.rng.IntN(2*j+1) - j)
	}
	if edge <= int64(b.now) {
		edge = int64(b.now) + 1
	}
	b.nextEdge = uint64(edge)
}

// clockLink shifts BytesPerTick bytes each way
func (b *Board) clockLink() {
	for i := 0; i < b.opts.BytesPerTick; i++ {
		out := byte(protocol.Filler)
		if len(b.hostTx) > 0 {
			out = b.hostTx[0]
			b.hostTx = b.hostTx[1:]
		}

		frame, err := b.decoder.Feed(b.dev.LinkISR(out))
		if err != nil {
			b.stats.FramingErrors++
			continue
		}
		if frame != nil {
			b.handleFrame(frame)
		}
	}
}

// Exchange clocks one byte through the device link for an external host
// and lets the background loop handle anything it completed
func (b *Board) Exchange(out byte) byte {
	in := b.dev.LinkISR(out)
	for b.dev.Poll() > 0 {
	}
	return in
}

func (b *Board) handleFrame(frame []byte) {
	b.stats.Frames++
	if frame[0] != protocol.CmdPPSReport {
		return
	}
	report, err := protocol.DecodeReport(frame)
	if err != nil {
		b.stats.FramingErrors++
		return
	}

	b.reports = append(b.reports, report)
	if b.onReport != nil {
		b.onReport(report)
	}
	if b.opts.Acknowledge {
		b.hostTx = protocol.AppendEncoded(b.hostTx, []byte{protocol.CmdAcknowledge})
		b.stats.Acks++
	}
}

// Reports returns every report received so far
func (b *Board) Reports() []protocol.Report { return b.reports }

// Device returns the simulated firmware
func (b *Board) Device() *core.Device { return b.dev }

// LED returns the current state of an indicator
func (b *Board) LED(unit core.LEDUnit) bool { return b.leds.State(unit) }

// LEDEdges returns how many times an indicator changed state
func (b *Board) LEDEdges(unit core.LEDUnit) int { return b.gpio.Edges(ledPins[unit]) }

// Cycles returns the simulated time in oscillator cycles
func (b *Board) Cycles() uint64 { return b.now }

// Ticks returns the number of tick interrupts delivered
func (b *Board) Ticks() uint64 { return b.ticks }

// HostStats returns the host side link counters
func (b *Board) HostStats() HostStats { return b.stats }
