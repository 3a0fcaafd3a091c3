package tcp

import (
	"errors"
	"net"

	"main/pkg/exception"
)

var (
	// ErrNilServer is returned when a nil server receiver is used.
	ErrNilServer = errors.New("tcp: nil server")
	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("tcp: already listening")
	// ErrNotListening is returned when Accept is called before Listen.
	ErrNotListening = errors.New("tcp: not listening")
)

// Server listens for TCP connections.
type Server struct {
	addr string
	ln   *net.TCPListener
}

// NewServer creates a server for the provided listen address.
func NewServer(addr string) (*Server, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	return &Server{addr: addr}, nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// ListenAddr returns the bound address, which differs from the
// configured one when listening on port 0.
func (s *Server) ListenAddr() string {
	if s == nil || s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Listen starts listening on the configured address.
func (s *Server) Listen() error {
	if s == nil {
		return ErrNilServer
	}
	if s.addr == "" {
		return exception.ErrEmptyAddress
	}
	if s.ln != nil {
		return ErrAlreadyListening
	}
	laddr, err := net.ResolveTCPAddr(network, s.addr)
	if err != nil {
		return err
	}
	ln, err := net.ListenTCP(network, laddr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Accept waits for the next incoming connection.
func (s *Server) Accept() (*net.TCPConn, error) {
	if s == nil {
		return nil, ErrNilServer
	}
	if s.ln == nil {
		return nil, ErrNotListening
	}
	return s.ln.AcceptTCP()
}

// Close stops the listener.
func (s *Server) Close() error {
	if s == nil {
		return ErrNilServer
	}
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}
