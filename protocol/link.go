package protocol

import (
	"errors"

	"gpsdo/irq"
)

// MaxBuffers bounds the link pool so that indexes fit a bufIndex
const MaxBuffers = 127

var ErrInvalidBufferCount = errors.New("link buffer count out of range")

// LinkStats counts link events for diagnostics
type LinkStats struct {
	FramesReceived uint32 // Frames moved to the receive queue
	FramesSent     uint32 // Frames fully transmitted
	FramingErrors  uint32 // Frames dropped for a bad escape or overflow
	RxDropped      uint32 // Frames lost because no buffer was free
}

// PoolStats is a snapshot of where the link buffers are
type PoolStats struct {
	Free     int
	RxActive int // 0 or 1: frame being assembled
	RxQueued int // Received, waiting for DispatchReceived
	TxActive int // 0 or 1: frame being transmitted
	TxQueued int // Waiting to be transmitted
	Held     int // Handed out by GetSendBuffer, not yet queued
}

// Total returns the number of buffers across all states
func (p PoolStats) Total() int {
	return p.Free + p.RxActive + p.RxQueued + p.TxActive + p.TxQueued + p.Held
}

// Link is the controller side of the duplex link. The remote end clocks
// it one byte at a time: every clock delivers a received byte to
// ReceiveByteISR and takes one byte from TransmitByteISR.
//
// The free list and both queues are shared with the interrupt handlers;
// background calls guard them with irq.Disable/irq.Restore.
type Link struct {
	bufs []Buffer
	free bufIndex

	rx      bufIndex
	rxState decodeState
	rxHead  bufIndex
	rxTail  bufIndex

	tx       bufIndex
	txEscape byte // Second byte of an escape still to be sent, or 0
	txHead   bufIndex
	txTail   bufIndex

	held  int
	stats LinkStats

	sentCallback func() // Called from interrupt context when a frame completes
}

// NewLink builds the buffer pool once
func NewLink(count int) (*Link, error) {
	if count <= 0 || count > MaxBuffers {
		return nil, ErrInvalidBufferCount
	}

	l := &Link{
		bufs:   make([]Buffer, count),
		free:   nilBuf,
		rx:     nilBuf,
		rxHead: nilBuf,
		rxTail: nilBuf,
		tx:     nilBuf,
		txHead: nilBuf,
		txTail: nilBuf,
	}
	for i := count - 1; i >= 0; i-- {
		l.bufs[i].next = l.free
		l.free = bufIndex(i)
	}
	return l, nil
}

// SetSentCallback sets a callback run (in interrupt context) each time a
// frame has been fully transmitted
func (l *Link) SetSentCallback(callback func()) {
	l.sentCallback = callback
}

// Capacity returns the fixed number of buffers in the pool
func (l *Link) Capacity() int {
	return len(l.bufs)
}

func (l *Link) popFree() bufIndex {
	i := l.free
	if i != nilBuf {
		l.free = l.bufs[i].next
		l.bufs[i].reset()
	}
	return i
}

func (l *Link) pushFree(i bufIndex) {
	l.bufs[i].next = l.free
	l.free = i
}

// enqueue appends to a FIFO given its head and tail
func (l *Link) enqueue(head, tail *bufIndex, i bufIndex) {
	l.bufs[i].next = nilBuf
	if *tail == nilBuf {
		*head = i
	} else {
		l.bufs[*tail].next = i
	}
	*tail = i
}

// dequeue removes the oldest entry of a FIFO
func (l *Link) dequeue(head, tail *bufIndex) bufIndex {
	i := *head
	if i == nilBuf {
		return nilBuf
	}
	*head = l.bufs[i].next
	if *head == nilBuf {
		*tail = nilBuf
	}
	l.bufs[i].next = nilBuf
	return i
}

// dropRx returns the frame under assembly to the pool
func (l *Link) dropRx() {
	if l.rx != nilBuf {
		l.pushFree(l.rx)
		l.rx = nilBuf
	}
	l.stats.FramingErrors++
}

func (l *Link) appendRx(b byte) {
	buf := &l.bufs[l.rx]
	if buf.pos >= len(buf.data) {
		l.dropRx()
		l.rxState = stateResync
		return
	}
	buf.data[buf.pos] = b
	buf.pos++
}

// ReceiveByteISR runs for every byte clocked in from the host
func (l *Link) ReceiveByteISR(b byte) {
	switch l.rxState {
	case stateIdle:
		if b == Filler || b == End {
			return
		}
		l.rx = l.popFree()
		if l.rx == nilBuf {
			// Nothing to assemble into: lose the whole frame
			l.stats.RxDropped++
			l.rxState = stateResync
			return
		}
		if b == Esc {
			l.rxState = stateEscaped
			return
		}
		l.rxState = stateFrame
		l.appendRx(b)

	case stateFrame:
		switch b {
		case End:
			buf := &l.bufs[l.rx]
			buf.cnt = buf.pos
			buf.pos = 0
			l.enqueue(&l.rxHead, &l.rxTail, l.rx)
			l.rx = nilBuf
			l.rxState = stateIdle
			l.stats.FramesReceived++
		case Esc:
			l.rxState = stateEscaped
		default:
			l.appendRx(b)
		}

	case stateEscaped:
		switch b {
		case EscEnd:
			l.rxState = stateFrame
			l.appendRx(End)
		case EscEsc:
			l.rxState = stateFrame
			l.appendRx(Esc)
		case End:
			// Bad escape, but the frame boundary is already here
			l.dropRx()
			l.rxState = stateIdle
		default:
			l.dropRx()
			l.rxState = stateResync
		}

	case stateResync:
		if b == End {
			l.rxState = stateIdle
		}
	}
}

// TransmitByteISR returns the next byte to clock out. It always produces
// exactly one byte: Filler when there is nothing to send.
func (l *Link) TransmitByteISR() byte {
	if l.tx == nilBuf {
		return Filler
	}

	if l.txEscape != 0 {
		b := l.txEscape
		l.txEscape = 0
		return b
	}

	buf := &l.bufs[l.tx]
	if buf.cnt > 0 {
		b := buf.data[buf.pos]
		buf.pos++
		buf.cnt--
		switch b {
		case End:
			l.txEscape = EscEnd
			return Esc
		case Esc:
			l.txEscape = EscEsc
			return Esc
		}
		return b
	}

	// Buffer drained: close the frame and move on to the next one
	l.pushFree(l.tx)
	l.tx = l.dequeue(&l.txHead, &l.txTail)
	l.stats.FramesSent++
	if l.sentCallback != nil {
		l.sentCallback()
	}
	return End
}

// Exchange performs one full-duplex byte clock
func (l *Link) Exchange(rx byte) byte {
	l.ReceiveByteISR(rx)
	return l.TransmitByteISR()
}

// GetSendBuffer takes a buffer from the pool to compose an outbound
// message, or returns nil when the pool is empty. Background only.
func (l *Link) GetSendBuffer() *Buffer {
	state := irq.Disable()
	i := l.popFree()
	if i != nilBuf {
		l.held++
	}
	irq.Restore(state)

	if i == nilBuf {
		return nil
	}
	return &l.bufs[i]
}

// indexOf maps a buffer handed out by GetSendBuffer back to its slot
func (l *Link) indexOf(buf *Buffer) bufIndex {
	for i := range l.bufs {
		if &l.bufs[i] == buf {
			return bufIndex(i)
		}
	}
	return nilBuf
}

// QueueSend hands a composed buffer to the transmitter. It becomes the
// active frame if the transmitter is idle, otherwise it joins the queue.
func (l *Link) QueueSend(buf *Buffer) {
	i := l.indexOf(buf)
	if i == nilBuf {
		return
	}

	buf.cnt = buf.pos
	buf.pos = 0

	state := irq.Disable()
	l.held--
	if l.tx == nilBuf {
		l.tx = i
	} else {
		l.enqueue(&l.txHead, &l.txTail, i)
	}
	irq.Restore(state)
}

// ReleaseBuffer returns a buffer from GetSendBuffer without sending it
func (l *Link) ReleaseBuffer(buf *Buffer) {
	i := l.indexOf(buf)
	if i == nilBuf {
		return
	}

	state := irq.Disable()
	l.held--
	l.pushFree(i)
	irq.Restore(state)
}

// DispatchReceived hands every queued frame to dispatch as a command
// byte and its arguments, then returns the buffer to the pool. Empty
// frames are discarded. Returns the number of frames handled.
func (l *Link) DispatchReceived(dispatch func(cmd byte, args []byte)) int {
	n := 0
	for {
		state := irq.Disable()
		i := l.dequeue(&l.rxHead, &l.rxTail)
		irq.Restore(state)

		if i == nilBuf {
			return n
		}

		buf := &l.bufs[i]
		if buf.cnt > 0 && dispatch != nil {
			dispatch(buf.data[0], buf.data[1:buf.cnt])
		}
		n++

		state = irq.Disable()
		l.pushFree(i)
		irq.Restore(state)
	}
}

// Idle reports whether nothing is waiting to be sent or dispatched
func (l *Link) Idle() bool {
	state := irq.Disable()
	defer irq.Restore(state)
	return l.rxHead == nilBuf && l.tx == nilBuf
}

// Stats returns a copy of the link counters
func (l *Link) Stats() LinkStats {
	state := irq.Disable()
	defer irq.Restore(state)
	return l.stats
}

func (l *Link) listLen(head bufIndex) int {
	n := 0
	for i := head; i != nilBuf; i = l.bufs[i].next {
		n++
	}
	return n
}

// Pool reports where every buffer currently is
func (l *Link) Pool() PoolStats {
	state := irq.Disable()
	defer irq.Restore(state)

	p := PoolStats{
		Free:     l.listLen(l.free),
		RxQueued: l.listLen(l.rxHead),
		TxQueued: l.listLen(l.txHead),
		Held:     l.held,
	}
	if l.rx != nilBuf {
		p.RxActive = 1
	}
	if l.tx != nilBuf {
		p.TxActive = 1
	}
	return p
}
