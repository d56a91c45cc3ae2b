package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpsdo/core"
	"gpsdo/protocol"
)

func newBoard(t *testing.T, opts Options) *Board {
	t.Helper()
	if opts.BytesPerTick == 0 {
		opts.BytesPerTick = 4
	}
	b, err := New(core.DefaultConfig(), opts)
	require.NoError(t, err)
	return b
}

func captureDebug(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	core.SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() { core.SetDebugWriter(nil) })
	return &lines
}

func TestExactOscillatorReportsZero(t *testing.T) {
	b := newBoard(t, Options{})

	require.NoError(t, b.Run(context.Background(), 33))

	reports := b.Reports()
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, protocol.Report{NominalHz: 4000000, Window: 16, Accumulated: 0}, r)
	}
	assert.True(t, b.Device().Discipline().Locked())
	assert.True(t, b.LED(core.LEDLock))
}

func TestOffsetOscillator(t *testing.T) {
	lines := captureDebug(t)
	b := newBoard(t, Options{OffsetPPM: 10})

	require.NoError(t, b.Run(context.Background(), 17))

	reports := b.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, int32(640), reports[0].Accumulated)
	assert.InDelta(t, 10000.0, reports[0].OffsetPPB(), 1e-6)
	assert.Contains(t, *lines, "      40 cycles")
	assert.Contains(t, *lines, "F_CPU:  4000000, Interval: 16, Error:      640")
}

func TestJitterCancelsOverWindow(t *testing.T) {
	b := newBoard(t, Options{JitterCycles: 100, Seed: 7})

	require.NoError(t, b.Run(context.Background(), 17))

	require.Len(t, b.Reports(), 1)
	// Interval errors telescope: only the last edge's jitter remains
	assert.InDelta(t, 0, b.Reports()[0].Accumulated, 100)
}

func TestOutOfToleranceNeverReports(t *testing.T) {
	b := newBoard(t, Options{OffsetPPM: 2000})

	require.NoError(t, b.Run(context.Background(), 20))

	assert.Empty(t, b.Reports())
	stats := b.Device().Status().Discipline
	assert.False(t, stats.Locked)
	assert.Equal(t, int32(8000), stats.LastError)
	assert.GreaterOrEqual(t, stats.Unlocks, uint32(19))
	assert.False(t, b.LED(core.LEDLock))
}

func TestAcknowledgementsReachDevice(t *testing.T) {
	lines := captureDebug(t)
	b := newBoard(t, Options{Acknowledge: true})

	require.NoError(t, b.Run(context.Background(), 18))

	require.Len(t, b.Reports(), 1)
	assert.Equal(t, 1, b.HostStats().Acks)
	assert.Equal(t, uint32(1), b.Device().Status().Acks)
	assert.Contains(t, *lines, "Received message 1")
}

func TestTicksAndHeartbeat(t *testing.T) {
	b := newBoard(t, Options{})

	require.NoError(t, b.Run(context.Background(), 10))

	assert.InDelta(t, 1000, b.Ticks(), 1)
	assert.InDelta(t, 20, b.LEDEdges(core.LEDHeartbeat), 1)
	assert.GreaterOrEqual(t, b.Device().Status().Uptime, uint32(8))
	assert.Equal(t, uint64(40000000), b.Cycles())
}

func TestRunCancelled(t *testing.T) {
	b := newBoard(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.Run(ctx, 5), context.Canceled)
	assert.Zero(t, b.Cycles())
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(core.DefaultConfig(), Options{BytesPerTick: -1})
	assert.Error(t, err)

	_, err = New(core.DefaultConfig(), Options{BytesPerTick: 1, JitterCycles: 3000000})
	assert.Error(t, err)

	bad := core.DefaultConfig()
	bad.TickHz = 1
	_, err = New(bad, Options{BytesPerTick: 1})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
