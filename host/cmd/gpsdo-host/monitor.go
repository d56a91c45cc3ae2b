package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gpsdo/core"
	"gpsdo/host/logger"
	"gpsdo/host/mcu"
	"gpsdo/host/metrics"
	"gpsdo/host/monitor"
	"gpsdo/host/publish"
	"gpsdo/protocol"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll a board and export its reports.",
	Long: "`monitor` keeps the serial link clocked and logs every report. " +
		"With --once it waits for a single report, prints it and exits.",
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringP("device", "d", "", "Serial device, overrides the configuration")
	monitorCmd.Flags().Bool("once", false, "Wait for one report and exit")
	monitorCmd.Flags().Duration("timeout", 40*time.Second, "How long --once waits for a report")
	monitorCmd.Flags().Bool("ack", false, "Acknowledge every report")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if device, _ := cmd.Flags().GetString("device"); device != "" {
		cfg.Serial.Device = device
	}
	if cmd.Flags().Changed("ack") {
		cfg.Monitor.Acknowledge, _ = cmd.Flags().GetBool("ack")
	}

	logger.Startup(core.Version, cfg)
	defer logger.Shutdown("done")

	board := mcu.NewMCU()
	if err := board.ConnectWithConfig(&cfg.Serial); err != nil {
		return err
	}
	defer board.Close()

	if once, _ := cmd.Flags().GetBool("once"); once {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return waitOnce(board, timeout)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistryWithNamespace(cfg.Metrics.Namespace)
	if err := reg.Register(); err != nil {
		return err
	}
	reg.GetMetrics().BuildInfo.WithLabelValues(core.Version).Set(1)

	mon := monitor.New(board, cfg.Monitor, reg.GetMetrics())

	if cfg.MQTT.Broker != "" {
		pub, err := publish.Connect(cfg.MQTT)
		if err != nil {
			return err
		}
		defer pub.Close()

		mon.SetReportHandler(func(r protocol.Report) {
			if err := pub.Publish(r, time.Now()); err != nil {
				logger.Error("publish", "Failed to publish report", err)
			}
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	if addr := cfg.Monitor.MetricsAddress; addr != "" {
		g.Go(func() error {
			return metrics.Serve(ctx, addr, reg.GetRegistry())
		})
	}
	g.Go(func() error {
		err := mon.Run(ctx)
		stop()
		return err
	})
	return g.Wait()
}

func waitOnce(board *mcu.MCU, timeout time.Duration) error {
	report, err := board.WaitReport(cfg.Monitor.PollBytes, timeout)
	if err != nil {
		return err
	}
	fmt.Printf("nominal %d Hz, window %d s, error %d cycles (%.1f ppb)\n",
		report.NominalHz, report.Window, report.Accumulated, report.OffsetPPB())

	if cfg.Monitor.Acknowledge {
		return board.Acknowledge()
	}
	return nil
}
