//go:build atmega1284p

package main

import "machine"

var (
	debugUART    *machine.UART
	debugEnabled bool
)

// InitDebugUART uses USART0 at 4800 baud, the rate of the board's
// diagnostic header
func InitDebugUART() {
	debugUART = machine.UART0

	err := debugUART.Configure(machine.UARTConfig{BaudRate: 4800})
	if err != nil {
		debugEnabled = false
		return
	}
	debugEnabled = true
}

// DebugPrintln writes a line to the debug UART
func DebugPrintln(s string) {
	if !debugEnabled {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
