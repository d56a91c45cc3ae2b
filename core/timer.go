package core

import "encoding/binary"

// TaskKind selects the background routine that runs when a timer fires.
// The set is closed: every kind is handled by Device.runTask.
type TaskKind uint8

const (
	TaskNone      TaskKind = iota
	TaskFlasher            // Toggle the heartbeat LED
	TaskClock              // Advance and log the uptime clock
	TaskPPSReport          // Fold one reference interval into the discipline state
)

// Completion codes returned by a task
const (
	TaskReschedule = 0 // Reload a periodic timer
	TaskDone       = 1 // Retire the timer
)

// Payload is the 4-byte user data carried by a timer.
// It reads as four bytes, two little-endian words or one little-endian long.
type Payload [4]byte

// PayloadFromUint32 packs a 32-bit value
func PayloadFromUint32(v uint32) Payload {
	var p Payload
	binary.LittleEndian.PutUint32(p[:], v)
	return p
}

// PayloadFromWords packs two 16-bit words, low word first
func PayloadFromWords(lo, hi uint16) Payload {
	var p Payload
	binary.LittleEndian.PutUint16(p[0:2], lo)
	binary.LittleEndian.PutUint16(p[2:4], hi)
	return p
}

// Uint32 returns the payload as one 32-bit value
func (p Payload) Uint32() uint32 {
	return binary.LittleEndian.Uint32(p[:])
}

// Word returns word 0 (low) or 1 (high)
func (p Payload) Word(i int) uint16 {
	return binary.LittleEndian.Uint16(p[i*2 : i*2+2])
}

// SetUint32 overwrites the payload with a 32-bit value
func (p *Payload) SetUint32(v uint32) {
	binary.LittleEndian.PutUint32(p[:], v)
}

// nodeIndex links timers inside the scheduler arena
type nodeIndex int8

const nilNode nodeIndex = -1

// MaxTimers bounds the arena so that indexes fit a nodeIndex
const MaxTimers = 127

// Timer is one scheduling unit. Timers are owned by the scheduler arena
// and sit on exactly one of its lists at any time.
type Timer struct {
	Remaining uint8    // Ticks until due, counted down by ProcessTicks
	Interval  uint8    // Reload value for periodic timers, 0 for one-shot
	Kind      TaskKind // Routine to run when due
	Context   uint8    // Lets one routine serve several logical timers
	Payload   Payload

	next nodeIndex
}
