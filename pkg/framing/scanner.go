package framing

import (
	"bytes"
	"errors"
	"io"

	"main/pkg/exception"
)

var (
	// ErrIncompleteFrame is returned when the source ends with bytes after the last delimiter.
	ErrIncompleteFrame = errors.New("framing: incomplete trailing frame")
)

const readChunkSize = 4096

// Scanner splits a byte stream into delimiter-terminated frames.
// Chunk boundaries of the underlying reader never affect the framing.
type Scanner struct {
	r     io.Reader
	buf   []byte
	chunk [readChunkSize]byte
	err   error
}

// NewScanner creates a scanner over r.
func NewScanner(r io.Reader) (*Scanner, error) {
	if r == nil {
		return nil, exception.ErrNilInstance
	}
	return &Scanner{r: r}, nil
}

// Next returns the next frame without its delimiter.
// The returned slice is only valid until the following call.
// It returns io.EOF after a cleanly terminated stream and
// ErrIncompleteFrame when the stream ends mid-frame. Once an
// error is returned the scanner stays in that state.
func (s *Scanner) Next() ([]byte, error) {
	if s == nil {
		return nil, exception.ErrNilInstance
	}
	for {
		if i := bytes.IndexByte(s.buf, Delimiter); i >= 0 {
			frame := s.buf[:i]
			s.buf = s.buf[i+1:]
			return frame, nil
		}
		if s.err != nil {
			if errors.Is(s.err, io.EOF) && len(s.buf) > 0 {
				s.err = ErrIncompleteFrame
			}
			return nil, s.err
		}
		s.fill()
	}
}

func (s *Scanner) fill() {
	n, err := s.r.Read(s.chunk[:])
	if n > 0 {
		s.buf = append(s.buf, s.chunk[:n]...)
	}
	if err != nil {
		s.err = err
	}
}
