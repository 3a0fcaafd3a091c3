package schema

// OrderIntent is the order emitted by the decision engine. The JSON
// field names are the wire contract with the order sink.
type OrderIntent struct {
	Symbol         string   `json:"symbol"`
	Side           Side     `json:"side"`
	Quantity       int64    `json:"quantity"`
	Price          float64  `json:"price"`
	Sentiment      int      `json:"sentiment"`
	ShortMA        float64  `json:"short_ma"`
	LongMA         float64  `json:"long_ma"`
	PositionBefore Position `json:"position_before"`
	PositionAfter  Position `json:"position_after"`
	Reason         string   `json:"reason"`
	Timestamp      float64  `json:"timestamp"`
}
