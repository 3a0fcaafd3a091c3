package tcp

import (
	"context"
	"net"
	"time"

	"main/pkg/exception"
)

const network = "tcp"

// Client dials TCP endpoints using a preconfigured address.
type Client struct {
	addr string
}

// NewClient creates a client for the provided address.
func NewClient(addr string) (*Client, error) {
	if addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	return &Client{addr: addr}, nil
}

// Addr returns the configured address.
func (c *Client) Addr() string {
	if c == nil {
		return ""
	}
	return c.addr
}

// Dial opens a TCP connection.
func (c *Client) Dial() (*net.TCPConn, error) {
	return c.DialContext(context.Background())
}

// DialContext opens a TCP connection, honoring ctx cancellation.
func (c *Client) DialContext(ctx context.Context) (*net.TCPConn, error) {
	if c == nil {
		return nil, exception.ErrNilInstance
	}
	if c.addr == "" {
		return nil, exception.ErrEmptyAddress
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, c.addr)
	if err != nil {
		return nil, err
	}
	return conn.(*net.TCPConn), nil
}

// DialRetry dials until it succeeds or ctx is cancelled, waiting per the
// backoff schedule between attempts. onError, when set, is invoked with
// each failed attempt before the wait.
func (c *Client) DialRetry(ctx context.Context, b Backoff, onError func(attempt int, wait time.Duration, err error)) (*net.TCPConn, error) {
	if c == nil {
		return nil, exception.ErrNilInstance
	}
	for attempt := 1; ; attempt++ {
		conn, err := c.DialContext(ctx)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		wait := b.Next(attempt)
		if onError != nil {
			onError(attempt, wait, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
