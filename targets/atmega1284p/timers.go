//go:build atmega1284p

package main

import (
	"device/avr"
	"runtime/interrupt"
)

// InitTickTimer runs timer 0 in CTC mode. The compare value is reloaded
// from the tick handler so lead and lag periods alternate.
func InitTickTimer(compare uint16, prescale uint32) {
	avr.TCCR0A.Set(avr.TCCR0A_WGM01)
	avr.OCR0A.Set(ctcTop(compare))
	avr.TCNT0.Set(0)
	avr.TCCR0B.Set(clockSelect(prescale))

	interrupt.New(avr.IRQ_TIMER0_COMPA, func(interrupt.Interrupt) {
		avr.OCR0A.Set(ctcTop(dev.TickISR()))
	})
	avr.TIMSK0.SetBits(avr.TIMSK0_OCIE0A)
}

// ctcTop converts counts per period to OCR0A. In CTC mode the timer
// counts from 0 to OCR0A inclusive.
func ctcTop(compare uint16) uint8 {
	return uint8(compare - 1)
}

func clockSelect(prescale uint32) uint8 {
	switch prescale {
	case 8:
		return avr.TCCR0B_CS01
	case 64:
		return avr.TCCR0B_CS01 | avr.TCCR0B_CS00
	case 256:
		return avr.TCCR0B_CS02
	default:
		return avr.TCCR0B_CS02 | avr.TCCR0B_CS00
	}
}

// InitCaptureTimer runs timer 1 from the undivided oscillator and latches
// it on the rising edge of the reference pulse on ICP1, with the noise
// canceller enabled.
func InitCaptureTimer() {
	avr.TCCR1A.Set(0)
	avr.TCCR1B.Set(avr.TCCR1B_ICNC1 | avr.TCCR1B_ICES1 | avr.TCCR1B_CS10)

	interrupt.New(avr.IRQ_TIMER1_OVF, func(interrupt.Interrupt) {
		dev.OverflowISR()
	})
	interrupt.New(avr.IRQ_TIMER1_CAPT, func(interrupt.Interrupt) {
		// Low byte first latches the high byte
		lo := uint16(avr.ICR1L.Get())
		hi := uint16(avr.ICR1H.Get())
		dev.CaptureISR(hi<<8 | lo)
	})
	avr.TIMSK1.SetBits(avr.TIMSK1_ICIE1 | avr.TIMSK1_TOIE1)
}
