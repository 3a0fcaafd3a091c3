package framing

import (
	"errors"
	"io"

	"main/pkg/exception"
)

// Delimiter terminates every frame on the wire. The byte is reserved:
// a payload that contains it is split by the receiver.
const Delimiter byte = '*'

var (
	// ErrNilWriter is returned when a nil writer receiver is used.
	ErrNilWriter = errors.New("framing: nil writer")
)

// Append appends payload plus the trailing delimiter to dst.
func Append(dst []byte, payload []byte) []byte {
	dst = append(dst, payload...)
	return append(dst, Delimiter)
}

// Writer frames payloads onto an io.Writer.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter creates a writer that frames onto w.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, exception.ErrNilInstance
	}
	return &Writer{w: w}, nil
}

// Write sends one framed payload.
func (w *Writer) Write(payload []byte) error {
	if w == nil {
		return ErrNilWriter
	}
	w.buf = Append(w.buf[:0], payload)
	return writeFull(w.w, w.buf)
}

func writeFull(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}
