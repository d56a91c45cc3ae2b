package core

import (
	"bytes"
	"testing"

	"gpsdo/protocol"
)

// fakeOutbound hands out a limited number of buffers and keeps what was queued
type fakeOutbound struct {
	available int
	sent      [][]byte
}

func (f *fakeOutbound) GetSendBuffer() *protocol.Buffer {
	if f.available == 0 {
		return nil
	}
	f.available--
	return new(protocol.Buffer)
}

func (f *fakeOutbound) QueueSend(buf *protocol.Buffer) {
	f.sent = append(f.sent, append([]byte(nil), buf.Bytes()...))
}

type disciplineFixture struct {
	sched *Scheduler
	out   *fakeOutbound
	leds  *recordingIndicator
	pps   *Discipline

	counter uint64 // Free-running oscillator cycle count
}

func newDisciplineFixture(t *testing.T, buffers int) *disciplineFixture {
	t.Helper()
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	s, err := NewScheduler(cfg.TimerPoolSize, nil)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	f := &disciplineFixture{
		sched: s,
		out:   &fakeOutbound{available: buffers},
		leds:  &recordingIndicator{},
	}
	f.pps = NewDiscipline(cfg, s, f.out, f.leds)
	return f
}

// pulse advances the oscillator by cycles, raising overflow interrupts on
// each 16-bit wrap, then captures and processes the edge.
func (f *disciplineFixture) pulse(cycles uint32) {
	next := f.counter + uint64(cycles)
	for w := f.counter >> 16; w < next>>16; w++ {
		f.pps.OverflowISR()
	}
	f.counter = next
	f.pps.CaptureISR(uint16(next))

	f.sched.DispatchDue(func(tm *Timer) uint8 {
		if tm.Kind == TaskPPSReport {
			f.pps.Report(tm.Payload.Uint32())
		}
		return TaskDone
	})
}

func TestDisciplineMaxErrorRounding(t *testing.T) {
	tests := []struct {
		ppm     uint32
		clockHz uint32
		want    int32
	}{
		{1000, 4000000, 4000},
		{1, 4000000, 400},     // Rounded up to 100 ppm
		{150, 4000000, 800},   // Rounded up to 200 ppm
		{100, 10000000, 1000}, // Exact
		{15000, 8000000, 120000},
	}
	for _, tt := range tests {
		cfg := Config{ClockHz: tt.clockHz, TolerancePPM: tt.ppm}
		if got := cfg.MaxError(); got != tt.want {
			t.Errorf("MaxError(%d ppm, %d Hz) = %d, want %d", tt.ppm, tt.clockHz, got, tt.want)
		}
	}
}

func TestDisciplineCaptureInterval(t *testing.T) {
	f := newDisciplineFixture(t, 0)

	// Start mid-way so intervals cross 16-bit wraps at varying latches
	f.counter = 65000
	f.pps.prevLatch = uint16(f.counter)

	for i := 0; i < 5; i++ {
		f.pulse(4000000 + uint32(i))
		if got := f.pps.Stats().LastError; got != int32(i) {
			t.Fatalf("Pulse %d: error = %d, want %d", i, got, i)
		}
	}
	if f.leds.toggles[LEDPulse] != 5 {
		t.Errorf("Expected pulse LED toggled 5 times, got %d", f.leds.toggles[LEDPulse])
	}
}

func TestDisciplineWindowReport(t *testing.T) {
	f := newDisciplineFixture(t, 4)

	errs := []int32{3, -1, 0, 2, 5, -4, 1, 1, 0, 0, -2, 7, 3, -3, 2, 1}
	var sum int32
	for _, e := range errs {
		f.pulse(uint32(4000000 + e))
		sum += e
	}

	if len(f.out.sent) != 1 {
		t.Fatalf("Expected exactly one report, got %d", len(f.out.sent))
	}
	want := protocol.Report{NominalHz: 4000000, Window: 16, Accumulated: sum}.AppendBinary(nil)
	if !bytes.Equal(f.out.sent[0], want) {
		t.Errorf("Report bytes = % x, want % x", f.out.sent[0], want)
	}

	st := f.pps.Stats()
	if st.Intervals != 0 || st.Accumulated != 0 {
		t.Errorf("Window not reset: %+v", st)
	}
	if !st.Locked || !f.leds.state[LEDLock] {
		t.Error("Expected locked state")
	}
	if !f.leds.state[LEDReport] {
		t.Error("Report LED should be on while the report is queued")
	}
}

func TestDisciplineOutOfTolerance(t *testing.T) {
	f := newDisciplineFixture(t, 4)

	for i := 0; i < 10; i++ {
		f.pulse(4000000 + 10)
	}
	// One interval outside the 4000-cycle tolerance restarts the window
	f.pulse(4000000 + 4001)

	st := f.pps.Stats()
	if st.Locked || st.Intervals != 0 || st.Accumulated != 0 {
		t.Fatalf("Expected unlocked and reset, got %+v", st)
	}
	if f.leds.state[LEDLock] {
		t.Error("Lock LED should be off")
	}

	// Fifteen more good intervals are not enough for a report
	for i := 0; i < 15; i++ {
		f.pulse(4000000 - 20)
	}
	if len(f.out.sent) != 0 {
		t.Fatalf("Unexpected report after reset: %d sent", len(f.out.sent))
	}
	f.pulse(4000000 - 20)
	if len(f.out.sent) != 1 {
		t.Fatalf("Expected a report after a full window, got %d", len(f.out.sent))
	}
	r, err := protocol.DecodeReport(f.out.sent[0])
	if err != nil {
		t.Fatalf("DecodeReport failed: %v", err)
	}
	if r.Accumulated != -320 {
		t.Errorf("Accumulated = %d, want -320", r.Accumulated)
	}
}

func TestDisciplineToleranceBoundary(t *testing.T) {
	f := newDisciplineFixture(t, 1)

	f.pulse(4000000 - 4000)
	if !f.pps.Locked() {
		t.Error("An error equal to the tolerance is still locked")
	}
	f.pulse(4000000 - 4001)
	if f.pps.Locked() {
		t.Error("An error beyond the tolerance must unlock")
	}
	if f.pps.Stats().Unlocks != 1 {
		t.Errorf("Expected 1 unlock, got %d", f.pps.Stats().Unlocks)
	}
}

func TestDisciplineNoBuffer(t *testing.T) {
	f := newDisciplineFixture(t, 0)

	for i := 0; i < 16; i++ {
		f.pulse(4000000 + 1)
	}
	st := f.pps.Stats()
	if st.ReportDrops != 1 || st.Reports != 0 {
		t.Errorf("Expected one dropped report, got %+v", st)
	}
	// The window restarts even though nothing was sent
	if st.Intervals != 0 || st.Accumulated != 0 {
		t.Errorf("Window not reset after a dropped report: %+v", st)
	}
	if f.leds.state[LEDReport] {
		t.Error("Report LED must stay off when nothing was queued")
	}
}
