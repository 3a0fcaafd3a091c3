package sink

import (
	"sync"

	"main/internal/schema"
)

// Tally folds handled intents into a signed net quantity per symbol.
// Reads are safe while the pump keeps applying orders.
type Tally struct {
	mu  sync.RWMutex
	net map[string]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{net: make(map[string]int64)}
}

// HandleOrder applies one intent to the running position.
func (t *Tally) HandleOrder(intent schema.OrderIntent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch intent.Side {
	case schema.SideBuy:
		t.net[intent.Symbol] += intent.Quantity
	case schema.SideSell:
		t.net[intent.Symbol] -= intent.Quantity
	}
}

// Net returns the signed net quantity for a symbol.
func (t *Tally) Net(symbol string) int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.net[symbol]
}

// Count returns the number of symbols with recorded orders.
func (t *Tally) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.net)
}

// Snapshot copies the current per-symbol net quantities.
func (t *Tally) Snapshot() map[string]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int64, len(t.net))
	for symbol, qty := range t.net {
		out[symbol] = qty
	}
	return out
}
