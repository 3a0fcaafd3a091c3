package engine

import (
	"fmt"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// StrategyConfig tunes the crossover rules.
type StrategyConfig struct {
	// ShortWindow is the fast moving average length in ticks.
	ShortWindow int
	// LongWindow is the slow moving average length in ticks. It also
	// bounds how much price history the strategy retains.
	LongWindow int
	// BullishThreshold is the sentiment score above which news reads bullish.
	BullishThreshold int
	// BearishThreshold is the sentiment score below which news reads bearish.
	BearishThreshold int
	// Quantity is the order size attached to every intent.
	Quantity int64
}

func (c StrategyConfig) withDefaults() StrategyConfig {
	if c.ShortWindow == 0 {
		c.ShortWindow = 5
	}
	if c.LongWindow == 0 {
		c.LongWindow = 20
	}
	if c.BullishThreshold == 0 {
		c.BullishThreshold = 70
	}
	if c.BearishThreshold == 0 {
		c.BearishThreshold = 30
	}
	if c.Quantity == 0 {
		c.Quantity = 10
	}
	return c
}

// Validate checks the window and threshold relations.
func (c StrategyConfig) Validate() error {
	if c.ShortWindow <= 0 {
		return errors.Errorf("short window must be positive: %d", c.ShortWindow)
	}
	if c.LongWindow <= c.ShortWindow {
		return errors.Errorf("long window must exceed short window: %d <= %d", c.LongWindow, c.ShortWindow)
	}
	if c.BullishThreshold < schema.SentimentMin || c.BullishThreshold > schema.SentimentMax {
		return errors.Errorf("bullish threshold out of range: %d", c.BullishThreshold)
	}
	if c.BearishThreshold < schema.SentimentMin || c.BearishThreshold > schema.SentimentMax {
		return errors.Errorf("bearish threshold out of range: %d", c.BearishThreshold)
	}
	if c.BearishThreshold >= c.BullishThreshold {
		return errors.Errorf("bearish threshold must sit below bullish: %d >= %d", c.BearishThreshold, c.BullishThreshold)
	}
	if c.Quantity <= 0 {
		return errors.Errorf("quantity must be positive: %d", c.Quantity)
	}
	return nil
}

// Decision is a position change the strategy wants executed.
type Decision struct {
	Side    schema.Side
	Desired schema.Position
	ShortMA float64
	LongMA  float64
	Reason  string
}

// Strategy folds price and sentiment observations into position
// decisions. It holds no connections and is not safe for concurrent
// use; the engine drives it from a single goroutine.
type Strategy struct {
	cfg      StrategyConfig
	prices   []float64
	next     int
	count    int
	position schema.Position
}

// NewStrategy creates a flat strategy with an empty price history.
func NewStrategy(cfg StrategyConfig) (*Strategy, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Strategy{
		cfg:      cfg,
		prices:   make([]float64, cfg.LongWindow),
		position: schema.PositionFlat,
	}, nil
}

// Position returns the currently held position.
func (s *Strategy) Position() schema.Position {
	return s.position
}

// Warm reports whether the history ring holds a full long window.
func (s *Strategy) Warm() bool {
	return s.count >= s.cfg.LongWindow
}

// Fill returns how many price samples the ring holds.
func (s *Strategy) Fill() int {
	return s.count
}

// Evaluate folds one observation and reports whether a position change
// is wanted. Both the crossover and the sentiment score must point the
// same way, and the resulting position must differ from the held one.
// The held position only moves when the caller confirms via Commit.
func (s *Strategy) Evaluate(price float64, sentiment int) (Decision, bool) {
	s.push(price)
	if !s.Warm() {
		return Decision{}, false
	}

	shortMA := s.average(s.cfg.ShortWindow)
	longMA := s.average(s.cfg.LongWindow)
	signal := crossSignal(shortMA, longMA)
	if signal == schema.SignalHold || signal != s.sentimentSignal(sentiment) {
		return Decision{}, false
	}

	desired, side := schema.PositionLong, schema.SideBuy
	if signal == schema.SignalSell {
		desired, side = schema.PositionShort, schema.SideSell
	}
	if desired == s.position {
		return Decision{}, false
	}

	tone, relation := "bullish", "above"
	if signal == schema.SignalSell {
		tone, relation = "bearish", "below"
	}
	return Decision{
		Side:    side,
		Desired: desired,
		ShortMA: shortMA,
		LongMA:  longMA,
		Reason:  fmt.Sprintf("short ma %.4f %s long ma %.4f with %s sentiment %d", shortMA, relation, longMA, tone, sentiment),
	}, true
}

// Commit records that the desired position became real. Call it only
// after the matching order intent was delivered.
func (s *Strategy) Commit(p schema.Position) {
	s.position = p
}

func (s *Strategy) push(price float64) {
	s.prices[s.next] = price
	s.next = (s.next + 1) % len(s.prices)
	if s.count < len(s.prices) {
		s.count++
	}
}

// average walks the ring backwards over the newest n samples.
func (s *Strategy) average(n int) float64 {
	sum := 0.0
	idx := s.next
	for i := 0; i < n; i++ {
		idx--
		if idx < 0 {
			idx = len(s.prices) - 1
		}
		sum += s.prices[idx]
	}
	return sum / float64(n)
}

func crossSignal(shortMA, longMA float64) schema.Signal {
	switch {
	case shortMA > longMA:
		return schema.SignalBuy
	case shortMA < longMA:
		return schema.SignalSell
	default:
		return schema.SignalHold
	}
}

func (s *Strategy) sentimentSignal(score int) schema.Signal {
	switch {
	case score > s.cfg.BullishThreshold:
		return schema.SignalBuy
	case score < s.cfg.BearishThreshold:
		return schema.SignalSell
	default:
		return schema.SignalHold
	}
}
