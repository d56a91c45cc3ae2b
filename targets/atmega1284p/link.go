//go:build atmega1284p

package main

import (
	"device/avr"
	"runtime/interrupt"

	"gpsdo/protocol"
)

// MISO on PB6
const misoBit = 6

// InitLinkSPI makes the controller an SPI slave. The host clocks every
// byte, so each transfer complete interrupt receives one byte and loads
// the next one to shift out.
func InitLinkSPI() {
	avr.DDRB.Set(1 << misoBit)
	avr.SPCR.Set(avr.SPCR_SPE)
	avr.SPDR.Set(protocol.Filler)

	interrupt.New(avr.IRQ_SPI_STC, func(interrupt.Interrupt) {
		avr.SPDR.Set(dev.LinkISR(avr.SPDR.Get()))
	})
	avr.SPCR.SetBits(avr.SPCR_SPIE)
}
