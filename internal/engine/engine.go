// Package engine consumes the news channel, joins each score with the
// latest shared-table price and turns agreeing signals into order
// intents for a single symbol.
package engine

import (
	"context"
	"net"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/framing"
	"main/pkg/tcp"
)

// PriceReader supplies the most recent price for a symbol.
type PriceReader interface {
	Read(symbol string) (float64, error)
}

// Config controls the decision engine.
type Config struct {
	// NewsAddr is the news channel to subscribe to.
	NewsAddr string
	// OrderAddr is the order sink to deliver intents to.
	OrderAddr string
	// Symbol is the instrument the engine trades.
	Symbol string
	// Strategy tunes windows, thresholds and order size.
	Strategy StrategyConfig
	// Retry paces reconnect attempts for both remote ends.
	Retry tcp.Backoff
}

func (c Config) withDefaults() Config {
	c.Strategy = c.Strategy.withDefaults()
	if c.Retry == (tcp.Backoff{}) {
		c.Retry = tcp.Fixed(5 * time.Second)
	}
	return c
}

// Validate checks addresses and the strategy tuning.
func (c Config) Validate() error {
	if len(c.NewsAddr) == 0 || len(c.OrderAddr) == 0 {
		return exception.ErrEmptyAddress
	}
	if len(c.Symbol) == 0 {
		return errors.New("engine: empty trade symbol")
	}
	return c.Strategy.Validate()
}

// Engine runs the per-symbol decision loop.
type Engine struct {
	cfg      Config
	prices   PriceReader
	strategy *Strategy
	metrics  *obs.Metrics
}

// New creates an engine reading prices from prices. metrics may be nil.
func New(cfg Config, prices PriceReader, metrics *obs.Metrics) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prices == nil {
		return nil, exception.ErrNilInstance
	}

	strategy, err := NewStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		prices:   prices,
		strategy: strategy,
		metrics:  metrics,
	}, nil
}

// Position returns the position the engine currently holds.
func (e *Engine) Position() schema.Position {
	return e.strategy.Position()
}

// Run connects to the order sink, then subscribes to the news channel
// and evaluates every score until ctx is cancelled. News outages are
// retried with the strategy state intact. A failed order delivery is
// fatal: the held position and the sink would disagree otherwise.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil {
		return exception.ErrNilInstance
	}

	orderClient, err := tcp.NewClient(e.cfg.OrderAddr)
	if err != nil {
		return err
	}
	orderConn, err := orderClient.DialRetry(ctx, e.cfg.Retry, func(attempt int, wait time.Duration, err error) {
		logs.Warnf("order sink unreachable (attempt %d), retrying in %s: %v", attempt, wait, err)
	})
	if err != nil {
		return nil
	}
	defer orderConn.Close()
	stopOrder := context.AfterFunc(ctx, func() { _ = orderConn.Close() })
	defer stopOrder()
	logs.Infof("order sink connected: %s", orderConn.RemoteAddr())

	orders, err := framing.NewWriter(orderConn)
	if err != nil {
		return err
	}

	newsClient, err := tcp.NewClient(e.cfg.NewsAddr)
	if err != nil {
		return err
	}
	for {
		conn, err := newsClient.DialRetry(ctx, e.cfg.Retry, func(attempt int, wait time.Duration, err error) {
			logs.Warnf("news channel unreachable (attempt %d), retrying in %s: %v", attempt, wait, err)
		})
		if err != nil {
			return nil
		}
		logs.Infof("news channel connected: %s", conn.RemoteAddr())

		if err := e.consume(ctx, conn, orders); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (e *Engine) consume(ctx context.Context, conn net.Conn, orders *framing.Writer) error {
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
				logs.Warnf("news channel disconnected, reconnecting: %v", err)
			}
			return nil
		}
		if err := e.tick(ctx, frame, orders); err != nil {
			return err
		}
	}
}

// tick runs one news frame through the strategy. Only order delivery
// failures bubble up.
func (e *Engine) tick(ctx context.Context, frame []byte, orders *framing.Writer) error {
	start := time.Now()
	e.metrics.IncEngineTick()

	sentiment, err := codec.ParseSentiment(frame)
	if err != nil {
		logs.Warnf("malformed news frame %q dropped: %v", frame, err)
		e.metrics.IncParseFailure()
		return nil
	}

	price, err := e.prices.Read(e.cfg.Symbol)
	if err != nil {
		logs.Warnf("price unavailable for %s, tick skipped: %v", e.cfg.Symbol, err)
		e.metrics.IncTickSkipped()
		return nil
	}
	if price <= 0 {
		logs.Debugf("no price published yet for %s, tick skipped", e.cfg.Symbol)
		e.metrics.IncTickSkipped()
		return nil
	}

	decision, ok := e.strategy.Evaluate(price, sentiment)
	e.metrics.ObserveDecision(time.Since(start))
	if !ok {
		if !e.strategy.Warm() {
			logs.Debugf("warming up: %d/%d samples", e.strategy.Fill(), e.cfg.Strategy.LongWindow)
			e.metrics.IncTickSkipped()
		}
		return nil
	}

	intent := schema.OrderIntent{
		Symbol:         e.cfg.Symbol,
		Side:           decision.Side,
		Quantity:       e.cfg.Strategy.Quantity,
		Price:          price,
		Sentiment:      sentiment,
		ShortMA:        decision.ShortMA,
		LongMA:         decision.LongMA,
		PositionBefore: e.strategy.Position(),
		PositionAfter:  decision.Desired,
		Reason:         decision.Reason,
		Timestamp:      float64(time.Now().UnixNano()) / float64(time.Second),
	}
	payload, err := codec.EncodeOrderIntent(nil, intent)
	if err != nil {
		return errors.Wrap(err, "encode order intent")
	}
	if err := orders.Write(payload); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "deliver order intent")
	}
	e.strategy.Commit(decision.Desired)
	e.metrics.IncOrderSent()
	logs.Infof("order sent: %s %s x%d @ %.2f (%s -> %s)",
		intent.Side, intent.Symbol, intent.Quantity, intent.Price, intent.PositionBefore, intent.PositionAfter)
	return nil
}
