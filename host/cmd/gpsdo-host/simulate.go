package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gpsdo/core"
	"gpsdo/host/logger"
	"gpsdo/host/metrics"
	"gpsdo/host/sim"
	"gpsdo/protocol"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the firmware against a simulated oscillator.",
	Long: "`simulate` runs the device core with a virtual crystal and " +
		"reference pulse, logging firmware debug lines and reports.",
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int("seconds", 0, "Simulated run length, overrides the configuration")
	simulateCmd.Flags().Float64("offset-ppm", 0, "Oscillator error, overrides the configuration")
	simulateCmd.Flags().Int("jitter", 0, "Peak reference jitter in cycles, overrides the configuration")
	simulateCmd.Flags().Bool("ack", false, "Acknowledge every report")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	simCfg := cfg.Simulator
	if cmd.Flags().Changed("seconds") {
		simCfg.Seconds, _ = cmd.Flags().GetInt("seconds")
	}
	if cmd.Flags().Changed("offset-ppm") {
		simCfg.OffsetPPM, _ = cmd.Flags().GetFloat64("offset-ppm")
	}
	if cmd.Flags().Changed("jitter") {
		simCfg.JitterCycles, _ = cmd.Flags().GetInt("jitter")
	}
	ack := cfg.Monitor.Acknowledge
	if cmd.Flags().Changed("ack") {
		ack, _ = cmd.Flags().GetBool("ack")
	}

	logger.Startup(core.Version, simCfg)
	defer logger.Shutdown("done")

	core.SetDebugWriter(logger.DeviceWriter("sim"))
	defer core.SetDebugWriter(nil)

	board, err := sim.New(simCfg.Device, sim.Options{
		OffsetPPM:    simCfg.OffsetPPM,
		JitterCycles: simCfg.JitterCycles,
		Seed:         simCfg.Seed,
		BytesPerTick: simCfg.BytesPerTick,
		Acknowledge:  ack,
	})
	if err != nil {
		return err
	}

	m := metrics.NewGPSDOMetrics(cfg.Metrics.Namespace)
	log := logger.With("sim")
	board.SetReportHandler(func(r protocol.Report) {
		m.ObserveReport(r, time.Now())
		log.Info().
			Uint32("nominal_hz", r.NominalHz).
			Uint8("window", r.Window).
			Int32("accumulated", r.Accumulated).
			Float64("offset_ppb", r.OffsetPPB()).
			Msg("PPS report")
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := board.Run(ctx, simCfg.Seconds); err != nil {
		return err
	}

	status := board.Device().Status()
	log.Info().
		Uint32("uptime", status.Uptime).
		Bool("locked", status.Discipline.Locked).
		Uint32("reports", status.Discipline.Reports).
		Uint32("report_drops", status.Discipline.ReportDrops).
		Uint32("unlocks", status.Discipline.Unlocks).
		Uint32("acks", status.Acks).
		Int("host_frames", board.HostStats().Frames).
		Msg("Simulation finished")
	return nil
}
