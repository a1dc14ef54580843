package gst

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// FrameHeaderSize is the packet index, size and flag bytes preceding each payload.
const FrameHeaderSize = 4

// MaxPayloadSize is the largest payload whose frame size still fits one byte.
const MaxPayloadSize = 0xFF - FrameHeaderSize

var (
	// ErrPacketTooLarge is returned when a payload cannot be described by the size byte.
	ErrPacketTooLarge = errors.New("packet payload too large for frame")
	// ErrTruncatedFrame is returned when a file ends inside a frame.
	ErrTruncatedFrame = errors.New("truncated frame")
	// ErrBadFrameSize is returned when a frame declares a size below the header size.
	ErrBadFrameSize = errors.New("frame size smaller than header")
)

// Frame is one framed packet as stored in a GST file.
type Frame struct {
	Index  uint8
	Packet Packet
}

// Size is the total frame length including the header.
func (f Frame) Size() int {
	return FrameHeaderSize + len(f.Packet.Payload)
}

// AppendFrame appends the framed form of p to dst. frameCount is reduced modulo 256.
func AppendFrame(dst []byte, frameCount uint32, p Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return dst, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(p.Payload))
	}
	dst = append(dst, byte(frameCount), byte(len(p.Payload)+FrameHeaderSize))
	dst = binary.BigEndian.AppendUint16(dst, uint16(p.Flags))
	return append(dst, p.Payload...), nil
}

// Writer appends framed packets to an underlying writer.
type Writer struct {
	w      io.Writer
	buf    []byte
	frames uint32
	bytes  int64
}

// NewWriter returns a Writer appending to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, 0, 64)}
}

// WritePacket frames p with the running frame count and writes it in one call.
func (w *Writer) WritePacket(p Packet) error {
	buf, err := AppendFrame(w.buf[:0], w.frames, p)
	if err != nil {
		return err
	}
	w.buf = buf
	n, err := w.w.Write(buf)
	w.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("writing frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() uint32 {
	return w.frames
}

// BytesWritten returns the number of bytes written so far.
func (w *Writer) BytesWritten() int64 {
	return w.bytes
}

// Scanner reads frames back from a GST stream until EOF.
type Scanner struct {
	r     *bufio.Reader
	frame Frame
	err   error
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next frame. It returns false at EOF or on error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	var hdr [FrameHeaderSize]byte
	n, err := io.ReadFull(s.r, hdr[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return false
		}
		s.err = fmt.Errorf("%w: header: %v", ErrTruncatedFrame, err)
		return false
	}
	size := int(hdr[1])
	if size < FrameHeaderSize {
		s.err = fmt.Errorf("%w: %d", ErrBadFrameSize, size)
		return false
	}
	payload := make([]byte, size-FrameHeaderSize)
	if _, err := io.ReadFull(s.r, payload); err != nil {
		s.err = fmt.Errorf("%w: payload: %v", ErrTruncatedFrame, err)
		return false
	}
	s.frame = Frame{
		Index: hdr[0],
		Packet: Packet{
			Flags:   Flag(binary.BigEndian.Uint16(hdr[2:])),
			Payload: payload,
		},
	}
	return true
}

// Frame returns the frame read by the last successful Scan.
func (s *Scanner) Frame() Frame {
	return s.frame
}

// Err returns the first error encountered, or nil at a clean EOF.
func (s *Scanner) Err() error {
	return s.err
}
