package core

import "gpsdo/protocol"

// Outbound is the transmit side of the host link
type Outbound interface {
	GetSendBuffer() *protocol.Buffer
	QueueSend(buf *protocol.Buffer)
}

// DisciplineStats is a snapshot of the discipline engine
type DisciplineStats struct {
	Locked      bool
	Intervals   uint8  // Intervals accumulated in the current window
	Accumulated int32  // Error accumulated in the current window, cycles
	LastError   int32  // Error of the most recent interval, cycles
	MaxError    int32  // Largest error still counted as locked, cycles
	Reports     uint32 // Reports queued to the host
	ReportDrops uint32 // Full windows lost because no buffer was free
	Unlocks     uint32 // Intervals rejected as out of tolerance
}

// Discipline measures oscillator cycles between reference pulses and
// reports the error accumulated over a window of pulses.
//
// The capture timer counts every oscillator cycle. Its 16-bit latch is
// extended to 32 bits by counting overflows between edges, so one interval
// is (high<<16 | latch) - previous latch, modulo 2^32.
type Discipline struct {
	nominal  uint32
	window   uint8
	maxError int32

	// Interrupt state
	prevLatch uint16
	high      uint16

	// Background state
	accumulated int32
	intervals   uint8
	lastError   int32
	locked      bool
	reports     uint32
	reportDrops uint32
	unlocks     uint32

	sched *Scheduler
	out   Outbound
	leds  Indicator
}

// NewDiscipline creates the engine for a validated configuration
func NewDiscipline(cfg Config, sched *Scheduler, out Outbound, leds Indicator) *Discipline {
	if leds == nil {
		leds = NopIndicator{}
	}
	return &Discipline{
		nominal:  cfg.ClockHz,
		window:   cfg.Window,
		maxError: cfg.MaxError(),
		sched:    sched,
		out:      out,
		leds:     leds,
	}
}

// OverflowISR runs when the capture counter wraps
func (d *Discipline) OverflowISR() {
	d.high++
}

// CaptureISR runs on every reference edge with the latched counter value.
// It posts the interval for background processing.
func (d *Discipline) CaptureISR(latch uint16) {
	interval := (uint32(d.high)<<16 | uint32(latch)) - uint32(d.prevLatch)
	d.prevLatch = latch
	d.high = 0

	d.sched.PostImmediate(TaskPPSReport, 0, PayloadFromUint32(interval))
	d.leds.Toggle(LEDPulse)
}

// Report folds one measured interval into the window. An interval outside
// the tolerance drops lock and restarts the window; the host is not told.
// A full window is sent to the host and the window restarts even when no
// buffer was available.
func (d *Discipline) Report(interval uint32) {
	err := int32(interval - d.nominal)
	d.lastError = err

	DebugPrintln(padLeft(itoa(err), 8) + " cycles")

	if int64(err) > int64(d.maxError) || int64(err) < -int64(d.maxError) {
		if d.locked {
			DebugPrintln("lock lost: error " + itoa(err) + " exceeds " + itoa(d.maxError))
			d.leds.Off(LEDLock)
		}
		d.locked = false
		d.unlocks++
		d.reset()
		return
	}

	if !d.locked {
		d.locked = true
		d.leds.On(LEDLock)
	}

	d.accumulated += err
	d.intervals++
	if d.intervals < d.window {
		return
	}

	DebugPrintln("F_CPU: " + padLeft(utoa(d.nominal), 8) +
		", Interval: " + utoa(uint32(d.intervals)) +
		", Error: " + padLeft(itoa(d.accumulated), 8))

	if buf := d.out.GetSendBuffer(); buf != nil {
		d.leds.On(LEDReport)
		r := protocol.Report{NominalHz: d.nominal, Window: d.intervals, Accumulated: d.accumulated}
		r.WriteTo(buf)
		d.out.QueueSend(buf)
		d.reports++
	} else {
		d.reportDrops++
	}
	d.reset()
}

func (d *Discipline) reset() {
	d.accumulated = 0
	d.intervals = 0
}

// Locked reports whether the most recent interval was within tolerance
func (d *Discipline) Locked() bool {
	return d.locked
}

// Stats returns a snapshot of the background state
func (d *Discipline) Stats() DisciplineStats {
	return DisciplineStats{
		Locked:      d.locked,
		Intervals:   d.intervals,
		Accumulated: d.accumulated,
		LastError:   d.lastError,
		MaxError:    d.maxError,
		Reports:     d.reports,
		ReportDrops: d.reportDrops,
		Unlocks:     d.unlocks,
	}
}
