// Command gpsdo-host talks to a GPSDO board over its serial link, or runs
// the firmware against a simulated oscillator.
package main

func main() {
	Execute()
}
