package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gpsdo/host/config"
	"gpsdo/host/metrics"
	"gpsdo/protocol"
)

//go:generate mockgen -destination mock_board_test.go -package monitor -write_package_comment=false gpsdo/host/monitor Board

func testConfig(ack bool) config.MonitorConfig {
	return config.MonitorConfig{
		PollInterval: time.Millisecond,
		PollBytes:    16,
		Acknowledge:  ack,
	}
}

func reportFrame(accumulated int32) []byte {
	return protocol.Report{NominalHz: 4000000, Window: 16, Accumulated: accumulated}.AppendBinary(nil)
}

func TestRunHandlesReportAndAcknowledges(t *testing.T) {
	ctrl := gomock.NewController(t)
	board := NewMockBoard(ctrl)
	m := metrics.NewGPSDOMetrics("test")

	frames := make(chan []byte, 4)
	frames <- reportFrame(640)

	board.EXPECT().Frames().Return((<-chan []byte)(frames))
	board.EXPECT().Poll(16).Return(nil).MinTimes(1)
	board.EXPECT().Stats().Return(protocol.HostStats{Frames: 1}).AnyTimes()
	board.EXPECT().Acknowledge().Return(nil).Times(1)

	mon := New(board, testConfig(true), m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []protocol.Report
	mon.SetReportHandler(func(r protocol.Report) {
		got = append(got, r)
		cancel()
	})

	require.NoError(t, mon.Run(ctx))
	require.Len(t, got, 1)
	assert.Equal(t, int32(640), got[0].Accumulated)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcksTotal))
}

func TestRunPollError(t *testing.T) {
	ctrl := gomock.NewController(t)
	board := NewMockBoard(ctrl)

	board.EXPECT().Frames().Return(make(<-chan []byte))
	board.EXPECT().Poll(gomock.Any()).Return(errors.New("port gone"))

	mon := New(board, testConfig(false), metrics.NewGPSDOMetrics("test"))

	err := mon.Run(context.Background())
	assert.ErrorContains(t, err, "port gone")
}

func TestRunWithoutTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	board := NewMockBoard(ctrl)
	board.EXPECT().Frames().Return(nil)

	mon := New(board, testConfig(false), metrics.NewGPSDOMetrics("test"))
	assert.Error(t, mon.Run(context.Background()))
}

func TestHandleFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	board := NewMockBoard(ctrl)
	m := metrics.NewGPSDOMetrics("test")

	fixed := time.Unix(1700000000, 0)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = time.Now }()

	mon := New(board, testConfig(false), m)

	mon.HandleFrame(nil)
	mon.HandleFrame([]byte{0x42, 0x00})
	mon.HandleFrame([]byte{protocol.CmdPPSReport, 0x00, 0x01})
	mon.HandleFrame(reportFrame(-32))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesTotal.WithLabelValues(metrics.FrameMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesTotal.WithLabelValues(metrics.FrameUnknown)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesTotal.WithLabelValues(metrics.FrameReport)))
	assert.Equal(t, -32.0, testutil.ToFloat64(m.AccumulatedCycles))
	assert.Equal(t, 1.7e9, testutil.ToFloat64(m.LastReportTimestamp))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AcksTotal))
}

func TestHandleFrameAcknowledgeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	board := NewMockBoard(ctrl)
	m := metrics.NewGPSDOMetrics("test")

	board.EXPECT().Acknowledge().Return(errors.New("write failed"))

	mon := New(board, testConfig(true), m)
	mon.HandleFrame(reportFrame(0))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AcksTotal))
}
