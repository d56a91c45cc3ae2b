// Package protocol implements the SLIP-framed link between the GPSDO
// controller and its host.
package protocol

// Version represents the link protocol version
const Version = "0.1.0"

// SLIP control bytes
const (
	End    = 0xC0 // Frame delimiter
	Esc    = 0xDB // Escape introducer
	EscEnd = 0xDC // ESC,EscEnd decodes to End
	EscEsc = 0xDD // ESC,EscEsc decodes to Esc
	Filler = 0x00 // Idle line byte, sent whenever there is nothing else
)

// Command bytes. The first byte of a frame selects its handler.
const (
	CmdPPSReport   = 0x01 // Controller to host: averaged frequency error
	CmdAcknowledge = 0x01 // Host to controller: acknowledgement
)
