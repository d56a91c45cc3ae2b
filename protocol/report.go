package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// ReportSize is the encoded length of a PPS report including the command byte
const ReportSize = 10

var ErrShortReport = errors.New("pps report too short")

// Report carries the frequency error accumulated over one averaging window.
//
// Layout: [0x01][nominal Hz, LE32][window, u8][accumulated error, LE32 signed]
type Report struct {
	NominalHz   uint32 // Nominal oscillator frequency
	Window      uint8  // Number of one-second intervals accumulated
	Accumulated int32  // Sum of per-interval errors in cycles
}

// AppendBinary appends the encoded report to dst
func (r Report) AppendBinary(dst []byte) []byte {
	dst = append(dst, CmdPPSReport)
	dst = binary.LittleEndian.AppendUint32(dst, r.NominalHz)
	dst = append(dst, r.Window)
	return binary.LittleEndian.AppendUint32(dst, uint32(r.Accumulated))
}

// WriteTo writes the encoded report to w
func (r Report) WriteTo(w io.Writer) (int64, error) {
	var scratch [ReportSize]byte
	n, err := w.Write(r.AppendBinary(scratch[:0]))
	return int64(n), err
}

// DecodeReport parses a frame whose first byte is CmdPPSReport
func DecodeReport(frame []byte) (Report, error) {
	if len(frame) < ReportSize {
		return Report{}, ErrShortReport
	}
	return Report{
		NominalHz:   binary.LittleEndian.Uint32(frame[1:5]),
		Window:      frame[5],
		Accumulated: int32(binary.LittleEndian.Uint32(frame[6:10])),
	}, nil
}

// OffsetPPB converts the report into an average fractional frequency
// offset in parts per billion
func (r Report) OffsetPPB() float64 {
	if r.NominalHz == 0 || r.Window == 0 {
		return 0
	}
	return float64(r.Accumulated) / float64(r.Window) / float64(r.NominalHz) * 1e9
}
