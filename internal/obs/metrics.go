package obs

import (
	"sync/atomic"
	"time"
)

// Metrics collects lightweight counters and latency stats for the
// pipeline processes. All methods are safe for concurrent use and on a
// nil receiver.
type Metrics struct {
	priceTicks      uint64
	newsTicks       uint64
	framesSent      uint64
	subscriberDrops uint64

	updatesApplied uint64
	parseFailures  uint64

	engineTicks    uint64
	skippedTicks   uint64
	ordersSent     uint64
	ordersReceived uint64
	ordersStored   uint64

	queueDrops  uint64
	queueClosed uint64

	fanoutLatency   LatencyStats
	decisionLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	PriceTicks      uint64
	NewsTicks       uint64
	FramesSent      uint64
	SubscriberDrops uint64
	UpdatesApplied  uint64
	ParseFailures   uint64
	EngineTicks     uint64
	SkippedTicks    uint64
	OrdersSent      uint64
	OrdersReceived  uint64
	OrdersStored    uint64
	QueueDrops      uint64
	QueueClosed     uint64
	FanoutLatency   LatencySnapshot
	DecisionLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncPriceTick counts one price broadcast cycle.
func (m *Metrics) IncPriceTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.priceTicks, 1)
}

// IncNewsTick counts one news broadcast cycle.
func (m *Metrics) IncNewsTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.newsTicks, 1)
}

// AddFramesSent counts frames delivered to subscribers.
func (m *Metrics) AddFramesSent(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.framesSent, uint64(n))
}

// AddSubscriberDrops counts pruned subscribers.
func (m *Metrics) AddSubscriberDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.subscriberDrops, uint64(n))
}

// IncUpdateApplied counts a price written to the shared table.
func (m *Metrics) IncUpdateApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.updatesApplied, 1)
}

// IncParseFailure counts a skipped malformed payload.
func (m *Metrics) IncParseFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.parseFailures, 1)
}

// IncEngineTick counts one processed news tick.
func (m *Metrics) IncEngineTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.engineTicks, 1)
}

// IncTickSkipped counts a tick skipped before reaching a decision.
func (m *Metrics) IncTickSkipped() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.skippedTicks, 1)
}

// IncOrderSent counts an order written to the sink.
func (m *Metrics) IncOrderSent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersSent, 1)
}

// IncOrderReceived counts an order decoded by the sink.
func (m *Metrics) IncOrderReceived() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersReceived, 1)
}

// IncOrderStored counts an order persisted by the sink store.
func (m *Metrics) IncOrderStored() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ordersStored, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveFanout measures one broadcast cycle.
func (m *Metrics) ObserveFanout(d time.Duration) {
	if m == nil {
		return
	}
	m.fanoutLatency.Observe(d)
}

// ObserveDecision measures one engine tick.
func (m *Metrics) ObserveDecision(d time.Duration) {
	if m == nil {
		return
	}
	m.decisionLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		PriceTicks:      atomic.LoadUint64(&m.priceTicks),
		NewsTicks:       atomic.LoadUint64(&m.newsTicks),
		FramesSent:      atomic.LoadUint64(&m.framesSent),
		SubscriberDrops: atomic.LoadUint64(&m.subscriberDrops),
		UpdatesApplied:  atomic.LoadUint64(&m.updatesApplied),
		ParseFailures:   atomic.LoadUint64(&m.parseFailures),
		EngineTicks:     atomic.LoadUint64(&m.engineTicks),
		SkippedTicks:    atomic.LoadUint64(&m.skippedTicks),
		OrdersSent:      atomic.LoadUint64(&m.ordersSent),
		OrdersReceived:  atomic.LoadUint64(&m.ordersReceived),
		OrdersStored:    atomic.LoadUint64(&m.ordersStored),
		QueueDrops:      atomic.LoadUint64(&m.queueDrops),
		QueueClosed:     atomic.LoadUint64(&m.queueClosed),
		FanoutLatency:   m.fanoutLatency.Snapshot(),
		DecisionLatency: m.decisionLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
