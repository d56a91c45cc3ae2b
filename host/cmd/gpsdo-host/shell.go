package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	"gpsdo/host/logger"
	"gpsdo/host/mcu"
)

const boardKey = "$board"

var shellCmd = &cobra.Command{
	Use:   "shell [command...]",
	Short: "Interactive console for a connected board.",
	Long: "`shell` opens the serial link and accepts console commands. " +
		"Arguments after -- run one command and exit.",
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringP("device", "d", "", "Serial device, overrides the configuration")
}

func runShell(cmd *cobra.Command, args []string) error {
	if device, _ := cmd.Flags().GetString("device"); device != "" {
		cfg.Serial.Device = device
	}

	board := mcu.NewMCU()
	if err := board.ConnectWithConfig(&cfg.Serial); err != nil {
		return err
	}
	defer board.Close()
	logger.Info("shell", "Connected to "+cfg.Serial.Device)

	sh := ishell.New()
	sh.Set(boardKey, board)
	sh.SetPrompt("gpsdo> ")
	for _, c := range shellCommands {
		sh.AddCmd(c)
	}

	if len(args) > 0 {
		return sh.Process(args...)
	}
	sh.Run()
	return nil
}

func boardFrom(c *ishell.Context) *mcu.MCU {
	return c.Get(boardKey).(*mcu.MCU)
}

var shellCommands = []*ishell.Cmd{
	{
		Name: "poll",
		Help: "[BYTES] clock filler bytes so the board can send",
		Func: func(c *ishell.Context) {
			n := cfg.Monitor.PollBytes
			if len(c.Args) > 0 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v <= 0 {
					c.Err(fmt.Errorf("invalid byte count %q", c.Args[0]))
					return
				}
				n = v
			}
			if err := boardFrom(c).Poll(n); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	},
	{
		Name:    "wait",
		Aliases: []string{"report"},
		Help:    "[SECONDS] wait for the next report",
		Func: func(c *ishell.Context) {
			timeout := 40 * time.Second
			if len(c.Args) > 0 {
				v, err := strconv.Atoi(c.Args[0])
				if err != nil || v <= 0 {
					c.Err(fmt.Errorf("invalid timeout %q", c.Args[0]))
					return
				}
				timeout = time.Duration(v) * time.Second
			}
			r, err := boardFrom(c).WaitReport(cfg.Monitor.PollBytes, timeout)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("nominal %d Hz, window %d s, error %d cycles (%.1f ppb)\n",
				r.NominalHz, r.Window, r.Accumulated, r.OffsetPPB())
		},
	},
	{
		Name: "ack",
		Help: "send an acknowledgement (command 0x01)",
		Func: func(c *ishell.Context) {
			if err := boardFrom(c).Acknowledge(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	},
	{
		Name: "stats",
		Help: "show link counters",
		Func: func(c *ishell.Context) {
			s := boardFrom(c).Stats()
			c.Printf("frames %d, framing errors %d, overruns %d\n",
				s.Frames, s.FramingErrors, s.Overruns)
		},
	},
}
