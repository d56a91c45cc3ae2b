package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var ErrTransportClosed = errors.New("transport stopped")

// FrameHandler is called from the read loop for every complete frame.
// The frame is a private copy.
type FrameHandler func(frame []byte)

// HostStats counts host-side link events
type HostStats struct {
	Frames        uint64
	FramingErrors uint64
	Overruns      uint64 // Frames dropped because the frame channel was full
}

// HostTransport is the host end of the link: it clocks the controller by
// writing bytes (real frames or filler) and decodes the frames coming back.
type HostTransport struct {
	// Serial I/O
	port io.ReadWriteCloser

	// Staging ring between raw reads and the decoder
	input   *RingBuffer
	decoder *Decoder

	frames       chan []byte
	frameHandler FrameHandler

	writeMutex sync.Mutex

	frameCount    uint64 // atomic
	framingErrors uint64 // atomic
	overruns      uint64 // atomic

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport creates a host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:     port,
		input:    NewRingBuffer(512),
		decoder:  NewDecoder(BufferSize),
		frames:   make(chan []byte, 16),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// SetFrameHandler sets a callback for frames. Frames are also delivered
// on the Frames channel.
func (t *HostTransport) SetFrameHandler(handler FrameHandler) {
	t.frameHandler = handler
}

// Frames returns the channel of received frames
func (t *HostTransport) Frames() <-chan []byte {
	return t.frames
}

// Send encodes and writes one frame made of cmd followed by args
func (t *HostTransport) Send(cmd byte, args []byte) error {
	if len(args)+1 > BufferSize {
		return fmt.Errorf("command 0x%02x: %w", cmd, ErrFrameTooBig)
	}
	msg := make([]byte, 0, 2*(len(args)+1)+1)
	msg = AppendEncoded(msg, append([]byte{cmd}, args...))
	return t.write(msg)
}

// Poll writes n filler bytes so the controller can clock out pending data
func (t *HostTransport) Poll(n int) error {
	return t.write(make([]byte, n))
}

func (t *HostTransport) write(msg []byte) error {
	select {
	case <-t.stopChan:
		return ErrTransportClosed
	default:
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// ReceiveFrame waits for the next frame
func (t *HostTransport) ReceiveFrame(timeout time.Duration) ([]byte, error) {
	select {
	case frame := <-t.frames:
		return frame, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("frame timeout after %v", timeout)

	case <-t.stopChan:
		return nil, ErrTransportClosed
	}
}

// readLoop continuously reads from the port and decodes frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.consume(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-t.stopChan:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}
}

// consume stages raw bytes through the ring and decodes them
func (t *HostTransport) consume(data []byte) {
	for len(data) > 0 {
		pushed := t.input.Push(data)
		data = data[pushed:]

		for {
			b, ok := t.input.PopByte()
			if !ok {
				break
			}
			frame, err := t.decoder.Feed(b)
			if err != nil {
				atomic.AddUint64(&t.framingErrors, 1)
				continue
			}
			if frame != nil {
				t.deliver(append([]byte(nil), frame...))
			}
		}
	}
}

func (t *HostTransport) deliver(frame []byte) {
	atomic.AddUint64(&t.frameCount, 1)

	if t.frameHandler != nil {
		t.frameHandler(frame)
	}

	select {
	case t.frames <- frame:
	default:
		atomic.AddUint64(&t.overruns, 1)
	}
}

// Stats returns the host-side counters
func (t *HostTransport) Stats() HostStats {
	return HostStats{
		Frames:        atomic.LoadUint64(&t.frameCount),
		FramingErrors: atomic.LoadUint64(&t.framingErrors),
		Overruns:      atomic.LoadUint64(&t.overruns),
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		if t.port != nil {
			err = t.port.Close()
		}
		<-t.doneChan // Wait for read loop to finish
	})
	return err
}
