// Package monitor drives a connected board: it clocks the link, decodes the
// reports that come back and publishes them as metrics.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"gpsdo/host/config"
	"gpsdo/host/logger"
	"gpsdo/host/metrics"
	"gpsdo/protocol"
)

// Board is the host view of a GPSDO board. *mcu.MCU implements it.
type Board interface {
	Poll(n int) error
	Acknowledge() error
	Frames() <-chan []byte
	Stats() protocol.HostStats
}

// timeNow is replaced in tests
var timeNow = time.Now

// ReportHandler is called for every valid report
type ReportHandler func(protocol.Report)

// Monitor polls a board at a fixed rate
type Monitor struct {
	board   Board
	cfg     config.MonitorConfig
	limiter *rate.Limiter
	metrics *metrics.GPSDOMetrics
	log     zerolog.Logger

	onReport ReportHandler
}

// New creates a monitor. Polls are spaced cfg.PollInterval apart.
func New(board Board, cfg config.MonitorConfig, m *metrics.GPSDOMetrics) *Monitor {
	return &Monitor{
		board:   board,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.PollInterval), 1),
		metrics: m,
		log:     logger.With("monitor"),
	}
}

// SetReportHandler registers a callback for decoded reports
func (m *Monitor) SetReportHandler(h ReportHandler) {
	m.onReport = h
}

// Run polls the board until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) error {
	frames := m.board.Frames()
	if frames == nil {
		return errors.New("board has no transport")
	}

	for {
		if err := m.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := m.board.Poll(m.cfg.PollBytes); err != nil {
			return fmt.Errorf("poll board: %w", err)
		}

		m.drain(frames)
		m.metrics.ObserveLink(m.board.Stats())
	}
}

// drain handles every frame already waiting
func (m *Monitor) drain(frames <-chan []byte) {
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			m.HandleFrame(frame)
		default:
			return
		}
	}
}

// HandleFrame classifies one frame from the board
func (m *Monitor) HandleFrame(frame []byte) {
	if len(frame) == 0 {
		m.metrics.ObserveFrame(metrics.FrameMalformed)
		return
	}

	if frame[0] != protocol.CmdPPSReport {
		m.metrics.ObserveFrame(metrics.FrameUnknown)
		m.log.Debug().Hex("frame", frame).Msg("Ignoring unknown frame")
		return
	}

	report, err := protocol.DecodeReport(frame)
	if err != nil {
		m.metrics.ObserveFrame(metrics.FrameMalformed)
		m.log.Warn().Err(err).Int("length", len(frame)).Msg("Malformed report")
		return
	}

	m.metrics.ObserveReport(report, timeNow())
	m.log.Info().
		Uint32("nominal_hz", report.NominalHz).
		Uint8("window", report.Window).
		Int32("accumulated", report.Accumulated).
		Float64("offset_ppb", report.OffsetPPB()).
		Msg("PPS report")

	if m.onReport != nil {
		m.onReport(report)
	}

	if !m.cfg.Acknowledge {
		return
	}
	if err := m.board.Acknowledge(); err != nil {
		m.log.Error().Err(err).Msg("Failed to acknowledge report")
		return
	}
	m.metrics.AcksTotal.Inc()
}
