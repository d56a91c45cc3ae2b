//go:build atmega1284p

package main

import (
	"device/avr"
	"runtime/interrupt"

	"gpsdo/core"
)

// LEDs on PORTA, indexed by core.LEDUnit
var ledPins = [core.NumLEDs]core.GPIOPin{0, 1, 2, 3}

var dev *core.Device

func main() {
	state := interrupt.Disable()

	InitDebugUART()
	core.SetDebugWriter(DebugPrintln)

	leds, err := core.NewPinIndicator(NewAVRGPIODriver(), ledPins)
	if err != nil {
		halt()
	}

	dev, err = core.NewDevice(core.DefaultConfig(), leds)
	if err != nil {
		DebugPrintln("device: " + err.Error())
		halt()
	}

	display := InitDisplay()

	InitLinkSPI()
	InitCaptureTimer()
	InitTickTimer(dev.InitialCompare(), dev.Prescale())

	if err := dev.Start(); err != nil {
		DebugPrintln("start: " + err.Error())
		halt()
	}

	interrupt.Restore(state)

	for {
		if dev.Poll() > 0 {
			display.Refresh(dev.Status())
			continue
		}

		// Sleep until the next interrupt. sei delays interrupts by one
		// instruction so an interrupt cannot slip in between the idle
		// check and sleep.
		state := interrupt.Disable()
		if dev.Idle() {
			avr.SMCR.Set(avr.SMCR_SE)
			avr.Asm("sei")
			avr.Asm("sleep")
			avr.SMCR.Set(0)
		} else {
			interrupt.Restore(state)
		}
	}
}

func halt() {
	for {
		avr.Asm("sleep")
	}
}
