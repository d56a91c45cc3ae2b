package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gpsdo/protocol"
)

// Frame kinds counted by FramesTotal
const (
	FrameReport    = "report"
	FrameUnknown   = "unknown"
	FrameMalformed = "malformed"
)

// GPSDOMetrics encapsulates all metrics exported by the host monitor
type GPSDOMetrics struct {
	// Discipline reports
	ReportsTotal        prometheus.Counter
	OffsetPPB           prometheus.Gauge
	AccumulatedCycles   prometheus.Gauge
	NominalHz           prometheus.Gauge
	WindowSeconds       prometheus.Gauge
	LastReportTimestamp prometheus.Gauge

	// Link
	FramesTotal       *prometheus.CounterVec
	AcksTotal         prometheus.Counter
	LinkFramingErrors prometheus.Gauge
	LinkOverruns      prometheus.Gauge

	// Build info
	BuildInfo *prometheus.GaugeVec
}

// NewGPSDOMetrics creates all metrics under namespace
func NewGPSDOMetrics(namespace string) *GPSDOMetrics {
	return &GPSDOMetrics{
		ReportsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Number of PPS reports received from the board",
		}),
		OffsetPPB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frequency_offset_ppb",
			Help:      "Average oscillator frequency offset over the last report window in parts per billion",
		}),
		AccumulatedCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accumulated_error_cycles",
			Help:      "Sum of per-second cycle errors in the last report",
		}),
		NominalHz: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nominal_frequency_hertz",
			Help:      "Nominal oscillator frequency reported by the board",
		}),
		WindowSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_window_seconds",
			Help:      "Number of one-second intervals averaged per report",
		}),
		LastReportTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_report_timestamp_seconds",
			Help:      "Unix time the last report was received",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames received from the board by kind",
		}, []string{"kind"}),
		AcksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acknowledgements_total",
			Help:      "Acknowledgements sent to the board",
		}),
		LinkFramingErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_framing_errors",
			Help:      "Framing errors seen by the host decoder",
		}),
		LinkOverruns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_overruns",
			Help:      "Frames dropped because the host was not draining them",
		}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Host tool build information",
		}, []string{"version"}),
	}
}

// ObserveReport records one decoded report received at now
func (m *GPSDOMetrics) ObserveReport(r protocol.Report, now time.Time) {
	m.ReportsTotal.Inc()
	m.FramesTotal.WithLabelValues(FrameReport).Inc()
	m.OffsetPPB.Set(r.OffsetPPB())
	m.AccumulatedCycles.Set(float64(r.Accumulated))
	m.NominalHz.Set(float64(r.NominalHz))
	m.WindowSeconds.Set(float64(r.Window))
	m.LastReportTimestamp.Set(float64(now.UnixNano()) / 1e9)
}

// ObserveFrame counts a frame that was not a valid report
func (m *GPSDOMetrics) ObserveFrame(kind string) {
	m.FramesTotal.WithLabelValues(kind).Inc()
}

// ObserveLink copies the transport counters
func (m *GPSDOMetrics) ObserveLink(stats protocol.HostStats) {
	m.LinkFramingErrors.Set(float64(stats.FramingErrors))
	m.LinkOverruns.Set(float64(stats.Overruns))
}

func (m *GPSDOMetrics) getAllMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsTotal,
		m.OffsetPPB,
		m.AccumulatedCycles,
		m.NominalHz,
		m.WindowSeconds,
		m.LastReportTimestamp,
		m.FramesTotal,
		m.AcksTotal,
		m.LinkFramingErrors,
		m.LinkOverruns,
		m.BuildInfo,
	}
}

// Describe implements prometheus.Collector interface
func (m *GPSDOMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range m.getAllMetrics() {
		metric.Describe(ch)
	}
}

// Collect implements prometheus.Collector interface
func (m *GPSDOMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, metric := range m.getAllMetrics() {
		metric.Collect(ch)
	}
}
