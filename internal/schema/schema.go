package schema

// SymbolWidth is the fixed byte width of a symbol field in the shared
// price table. Shorter names are NUL padded.
const SymbolWidth = 10

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Position is the engine's exposure for the traded symbol.
type Position string

const (
	PositionFlat  Position = "FLAT"
	PositionLong  Position = "LONG"
	PositionShort Position = "SHORT"
)

// Signal is the vote of one strategy input.
type Signal uint8

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Sentiment scores fall in [SentimentMin, SentimentMax].
const (
	SentimentMin = 0
	SentimentMax = 100
)

// PricePoint is one symbol's price at a moment.
type PricePoint struct {
	Symbol string
	Price  float64
}
