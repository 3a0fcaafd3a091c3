// Package sink terminates the order flow: it accepts framed order
// intents over TCP, pushes them through a bounded delivery queue and
// hands each one to the configured handlers in arrival order.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/framing"
	"main/pkg/tcp"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("sink: already started")

// Handler consumes decoded order intents. Handlers run on the single
// pump goroutine and must not block for long.
type Handler interface {
	HandleOrder(intent schema.OrderIntent)
}

// Config controls the order sink server.
type Config struct {
	// Addr is the TCP address order intents arrive on.
	Addr string
	// QueueSize bounds the delivery queue between connection readers
	// and the handler pump. Zero means 1024.
	QueueSize int
}

func (c Config) withDefaults() Config {
	if c.QueueSize == 0 {
		c.QueueSize = 1024
	}
	return c
}

// Validate checks the listen address and queue size.
func (c Config) Validate() error {
	if len(c.Addr) == 0 {
		return exception.ErrEmptyAddress
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("sink: negative queue size: %d", c.QueueSize)
	}
	return nil
}

// Server accepts order connections and dispatches decoded intents.
type Server struct {
	cfg      Config
	handlers []Handler
	metrics  *obs.Metrics

	srv   *tcp.Server
	queue *bus.Queue
	done  chan struct{}

	readers sync.WaitGroup
	pump    sync.WaitGroup
	started uint32
	closed  uint32
}

// New creates a sink server delivering intents to handlers in the
// given order. metrics may be nil.
func New(cfg Config, metrics *obs.Metrics, handlers ...Handler) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(handlers) == 0 {
		return nil, errors.New("sink: no handlers")
	}

	srv, err := tcp.NewServer(cfg.Addr)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		handlers: handlers,
		metrics:  metrics,
		srv:      srv,
		queue:    bus.NewQueue(cfg.QueueSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins listening and spawns the accept loop and handler pump.
// The server shuts down when ctx is cancelled or Close is called.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return exception.ErrNilInstance
	}
	if !atomic.CompareAndSwapUint32(&s.started, 0, 1) {
		return ErrAlreadyStarted
	}
	if err := s.srv.Listen(); err != nil {
		return fmt.Errorf("listen order sink: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	s.pump.Add(1)
	go func() {
		defer s.pump.Done()
		s.queue.Run(ctx, s.dispatch)
	}()

	s.readers.Add(1)
	go s.acceptLoop(ctx)

	logs.Infof("order sink listening: %s", s.srv.ListenAddr())
	return nil
}

// Wait blocks until every connection reader exited and the queued
// deliveries reached the handlers.
func (s *Server) Wait() {
	s.readers.Wait()
	s.queue.Close()
	s.pump.Wait()
}

// Close stops the listener and disconnects live order connections.
func (s *Server) Close() error {
	if s == nil {
		return exception.ErrNilInstance
	}
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return nil
	}
	close(s.done)
	return s.srv.Close()
}

// ListenAddr returns the bound listener address.
func (s *Server) ListenAddr() string {
	return s.srv.ListenAddr()
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.readers.Done()
	for {
		conn, err := s.srv.Accept()
		if err != nil {
			if ctx.Err() != nil || atomic.LoadUint32(&s.closed) == 1 || errors.Is(err, net.ErrClosed) {
				return
			}
			logs.Errorf("accept order connection: %v", err)
			continue
		}
		s.readers.Add(1)
		go func(c *net.TCPConn) {
			defer s.readers.Done()
			s.handleConn(ctx, c)
		}(conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn *net.TCPConn) {
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-sys.Shutdown():
			_ = conn.Close()
		case <-ctx.Done():
			_ = conn.Close()
		case <-s.done:
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	logs.Infof("order connection accepted: %s", conn.RemoteAddr())

	sc, err := framing.NewScanner(conn)
	if err != nil {
		return
	}
	for {
		frame, err := sc.Next()
		if err != nil {
			quiet := errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
				ctx.Err() != nil || atomic.LoadUint32(&s.closed) == 1
			if !quiet {
				logs.Warnf("order connection %s dropped: %v", conn.RemoteAddr(), err)
			}
			return
		}
		intent, err := codec.DecodeOrderIntent(frame)
		if err != nil {
			logs.Errorf("malformed order intent %q dropped: %v", frame, err)
			s.metrics.IncParseFailure()
			continue
		}
		s.metrics.IncOrderReceived()

		if err := s.queue.TryPublish(bus.Delivery{Intent: intent, ReceivedAt: time.Now()}); err != nil {
			if errors.Is(err, bus.ErrQueueClosed) {
				return
			}
			s.metrics.IncQueueDrop()
			logs.Warnf("delivery queue full, %s %s x%d dropped", intent.Side, intent.Symbol, intent.Quantity)
		}
	}
}

func (s *Server) dispatch(d bus.Delivery) {
	for _, h := range s.handlers {
		h.HandleOrder(d.Intent)
	}
}
