//go:build atmega1284p

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780"

	"gpsdo/core"
)

// Display shows lock state and uptime on a 16x2 character LCD wired in
// 4-bit mode to PORTC
type Display struct {
	lcd     hd44780.Device
	ok      bool
	uptime  uint32
	locked  bool
	reports uint32
}

// InitDisplay configures the LCD. A missing display is not fatal.
func InitDisplay() *Display {
	d := &Display{}
	lcd, err := hd44780.NewGPIO4Bit(
		[]machine.Pin{machine.PC0, machine.PC1, machine.PC2, machine.PC3},
		machine.PC4, machine.PC5, machine.NoPin)
	if err != nil {
		return d
	}
	if err := lcd.Configure(hd44780.Config{Width: 16, Height: 2}); err != nil {
		return d
	}
	d.lcd = lcd
	d.ok = true
	d.uptime = ^uint32(0)
	return d
}

// Refresh redraws when anything shown has changed
func (d *Display) Refresh(status core.DeviceStatus) {
	if !d.ok {
		return
	}
	if status.Uptime == d.uptime &&
		status.Discipline.Locked == d.locked &&
		status.Discipline.Reports == d.reports {
		return
	}
	d.uptime = status.Uptime
	d.locked = status.Discipline.Locked
	d.reports = status.Discipline.Reports

	state := "FREE "
	if d.locked {
		state = "LOCK "
	}

	d.lcd.ClearDisplay()
	d.lcd.SetCursor(0, 0)
	d.lcd.Write([]byte("GPSDO " + core.Version + " " + state))
	d.lcd.SetCursor(0, 1)
	d.lcd.Write([]byte(core.FormatUptime(d.uptime)))
	d.lcd.Display()
}
