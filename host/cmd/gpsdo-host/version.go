package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gpsdo/core"
	"gpsdo/protocol"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print firmware and protocol versions.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("GPSDO " + core.Version + ", link protocol " + protocol.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
