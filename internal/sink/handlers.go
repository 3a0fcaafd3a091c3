package sink

import (
	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// LogHandler prints a trade confirmation line for every intent.
type LogHandler struct{}

// NewLogHandler creates a LogHandler.
func NewLogHandler() LogHandler {
	return LogHandler{}
}

// HandleOrder logs the confirmation.
func (LogHandler) HandleOrder(intent schema.OrderIntent) {
	logs.Infof("trade confirmed: %s %s x%d @ %.2f sentiment=%d position %s -> %s (%s)",
		intent.Side, intent.Symbol, intent.Quantity, intent.Price,
		intent.Sentiment, intent.PositionBefore, intent.PositionAfter, intent.Reason)
}
