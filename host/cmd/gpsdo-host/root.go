package main

import (
	"os"

	"github.com/spf13/cobra"

	"gpsdo/host/config"
	"gpsdo/host/logger"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gpsdo-host",
	Short: "Host tool for the GPS disciplined oscillator.",
	Long: `gpsdo-host clocks the board's serial link, decodes the frequency ` +
		`reports it sends and exports them as Prometheus metrics. The ` +
		`simulate command runs the firmware against a virtual oscillator.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFromYamlWithEnvOverrides(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		cfg.Logging.Component = "gpsdo-host"
		return logger.InitLogger(cfg.Logging)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
