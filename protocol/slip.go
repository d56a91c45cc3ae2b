package protocol

import "errors"

var (
	ErrFraming     = errors.New("invalid escape sequence in frame")
	ErrFrameTooBig = errors.New("frame exceeds maximum length")
)

// AppendEncoded appends payload to dst as one SLIP frame: special bytes
// are escaped and the frame is closed with End.
func AppendEncoded(dst, payload []byte) []byte {
	for _, b := range payload {
		switch b {
		case End:
			dst = append(dst, Esc, EscEnd)
		case Esc:
			dst = append(dst, Esc, EscEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, End)
}

type decodeState uint8

const (
	stateIdle decodeState = iota
	stateFrame
	stateEscaped
	stateResync // Dropping bytes until the next End
)

// Decoder reassembles SLIP frames from a byte stream on the host side.
// Filler and stray End bytes between frames are skipped. A bad escape or
// an oversize frame drops the frame and skips to the next End.
type Decoder struct {
	buf   []byte
	max   int
	state decodeState
}

// NewDecoder creates a decoder for frames of at most max bytes
func NewDecoder(max int) *Decoder {
	return &Decoder{
		buf: make([]byte, 0, max),
		max: max,
	}
}

// Feed consumes one byte. It returns a complete frame when b closes one,
// or ErrFraming/ErrFrameTooBig when the current frame was dropped. The
// returned frame is only valid until the next call.
func (d *Decoder) Feed(b byte) ([]byte, error) {
	switch d.state {
	case stateIdle:
		switch b {
		case Filler, End:
			return nil, nil
		case Esc:
			d.buf = d.buf[:0]
			d.state = stateEscaped
			return nil, nil
		}
		d.buf = append(d.buf[:0], b)
		d.state = stateFrame

	case stateFrame:
		switch b {
		case End:
			d.state = stateIdle
			return d.buf, nil
		case Esc:
			d.state = stateEscaped
			return nil, nil
		}
		return nil, d.appendByte(b)

	case stateEscaped:
		switch b {
		case EscEnd:
			d.state = stateFrame
			return nil, d.appendByte(End)
		case EscEsc:
			d.state = stateFrame
			return nil, d.appendByte(Esc)
		case End:
			d.state = stateIdle
		default:
			d.state = stateResync
		}
		d.buf = d.buf[:0]
		return nil, ErrFraming

	case stateResync:
		if b == End {
			d.state = stateIdle
		}
	}
	return nil, nil
}

func (d *Decoder) appendByte(b byte) error {
	if len(d.buf) >= d.max {
		d.buf = d.buf[:0]
		d.state = stateResync
		return ErrFrameTooBig
	}
	d.buf = append(d.buf, b)
	return nil
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.state = stateIdle
}
