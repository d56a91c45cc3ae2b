package core

import "testing"

func TestSelectPrescaler(t *testing.T) {
	tests := []struct {
		name    string
		clockHz uint32
		tickHz  uint32
		want    uint32
		wantErr bool
	}{
		{"4MHz at 100Hz", 4000000, 100, 256, false},
		{"1MHz at 100Hz", 1000000, 100, 64, false},
		{"16MHz at 100Hz", 16000000, 100, 1024, false},
		{"2MHz at 1000Hz", 2000000, 1000, 8, false},
		{"too slow", 20000, 100, 0, true},
		{"too fast", 40000000, 100, 0, true},
		{"zero tick rate", 4000000, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectPrescaler(tt.clockHz, tt.tickHz)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectPrescaler error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SelectPrescaler = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDriftCompensatorIntervals(t *testing.T) {
	d, err := NewDriftCompensator(4000000, 100, 256)
	if err != nil {
		t.Fatalf("NewDriftCompensator failed: %v", err)
	}

	lead, lag := d.Intervals()
	if lead != 156 || lag != 157 {
		t.Errorf("Intervals = %d, %d; want 156, 157", lead, lag)
	}
	if d.Initial() != 156 {
		t.Errorf("Initial = %d, want 156", d.Initial())
	}
	if d.Drift() != -64 {
		t.Errorf("Initial drift = %d, want -64", d.Drift())
	}
}

// TestDriftCompensatorBounded checks that the cycles actually counted
// never stray from the ideal by more than one prescaler step.
func TestDriftCompensatorBounded(t *testing.T) {
	configs := []struct {
		clockHz, tickHz, prescale uint32
	}{
		{4000000, 100, 256},
		{10000000, 100, 1024},
		{14247000, 100, 1024},
		{7023000, 100, 1024},
		{1000000, 100, 64},
	}

	for _, c := range configs {
		d, err := NewDriftCompensator(c.clockHz, c.tickHz, c.prescale)
		if err != nil {
			t.Fatalf("NewDriftCompensator(%d, %d, %d) failed: %v", c.clockHz, c.tickHz, c.prescale, err)
		}

		ideal := int64(c.clockHz / c.tickHz)
		// The first period uses the initial compare value
		counted := int64(d.Initial()) * int64(c.prescale)
		for n := int64(1); n <= 10000; n++ {
			diff := counted - n*ideal
			if diff < -int64(c.prescale) || diff > int64(c.prescale) {
				t.Fatalf("F=%d: cumulative error %d after %d ticks exceeds %d",
					c.clockHz, diff, n, c.prescale)
			}
			if d.Drift() < -int32(c.prescale) || d.Drift() >= int32(c.prescale) {
				t.Fatalf("F=%d: drift %d out of range", c.clockHz, d.Drift())
			}
			counted += int64(d.Next()) * int64(c.prescale)
		}
	}
}

func TestDriftCompensatorExact(t *testing.T) {
	// 3.2768 MHz / 100 / 64 is exactly 512
	d, err := NewDriftCompensator(3276800, 100, 64)
	if err != nil {
		t.Fatalf("NewDriftCompensator failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		if got := d.Next(); got != 512 {
			t.Fatalf("Next = %d, want 512", got)
		}
	}
	if d.Drift() != 0 {
		t.Errorf("Drift = %d, want 0", d.Drift())
	}
}

func TestNewDriftCompensatorErrors(t *testing.T) {
	if _, err := NewDriftCompensator(4000000, 0, 256); err != ErrInvalidTiming {
		t.Errorf("Expected ErrInvalidTiming for zero tick rate, got %v", err)
	}
	if _, err := NewDriftCompensator(1000, 100, 1024); err != ErrClockOutOfRange {
		t.Errorf("Expected ErrClockOutOfRange for a clock below one prescaler step, got %v", err)
	}
}
