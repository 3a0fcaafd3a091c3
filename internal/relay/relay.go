package relay

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/codec"
	"main/internal/obs"
	"main/pkg/exception"
	"main/pkg/framing"
	"main/pkg/tcp"
)

// Config controls the price relay.
type Config struct {
	FeedAddr string
	// Retry paces reconnect attempts; the zero value falls back to a
	// fixed five second wait.
	Retry tcp.Backoff
}

func (c Config) withDefaults() Config {
	if c.Retry == (tcp.Backoff{}) {
		c.Retry = tcp.Fixed(5 * time.Second)
	}
	return c
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.FeedAddr == "" {
		return exception.ErrEmptyAddress
	}
	return nil
}

// Relay subscribes to the price feed and mirrors every record into the
// shared price table, reconnecting until its context is cancelled.
type Relay struct {
	cfg     Config
	table   *book.Table
	metrics *obs.Metrics
}

// New creates a relay writing into table.
func New(cfg Config, table *book.Table, metrics *obs.Metrics) (*Relay, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, exception.ErrNilInstance
	}
	return &Relay{cfg: cfg, table: table, metrics: metrics}, nil
}

// Run dials the feed, consumes frames and reconnects on disconnect.
// It returns nil once ctx is cancelled; an error means the table write
// path failed and the process should stop.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil {
		return exception.ErrNilInstance
	}
	client, err := tcp.NewClient(r.cfg.FeedAddr)
	if err != nil {
		return err
	}
	for {
		conn, err := client.DialRetry(ctx, r.cfg.Retry, func(attempt int, wait time.Duration, err error) {
			logs.Warnf("price feed unreachable (attempt %d), retrying in %s: %v", attempt, wait, err)
		})
		if err != nil {
			return nil
		}
		logs.Infof("price feed connected: %s", conn.RemoteAddr())
		if err := r.consume(ctx, conn); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (r *Relay) consume(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc, err := framing.NewScanner(conn)
	if err != nil {
		return err
	}
	for {
		frame, err := sc.Next()
		if err != nil {
			if ctx.Err() == nil {
				logs.Warnf("price feed disconnected, reconnecting: %v", err)
			}
			return nil
		}
		if err := r.apply(frame); err != nil {
			return err
		}
	}
}

// apply re-splits a frame on the delimiter before parsing. The feed
// frames every record on its own, but a sender that frames a whole
// batch as one unit with the same byte between records decodes the
// same way.
func (r *Relay) apply(frame []byte) error {
	for _, record := range bytes.Split(frame, []byte{framing.Delimiter}) {
		if len(record) == 0 {
			continue
		}
		point, err := codec.ParsePricePoint(record)
		if err != nil {
			logs.Warnf("malformed price record %q dropped: %v", record, err)
			r.metrics.IncParseFailure()
			continue
		}
		if err := r.table.Update(point.Symbol, point.Price); err != nil {
			if err == book.ErrUntracked {
				logs.Warnf("untracked symbol dropped: %s", point.Symbol)
				continue
			}
			return errors.Wrap(err, "update price table")
		}
		r.metrics.IncUpdateApplied()
	}
	return nil
}
