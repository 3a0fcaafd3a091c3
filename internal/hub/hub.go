package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/codec"
	"main/internal/mdg"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/framing"
	"main/pkg/tcp"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("hub: already started")
)

// Config controls the broadcast hub.
type Config struct {
	PriceAddr     string
	NewsAddr      string
	PriceInterval time.Duration
	NewsInterval  time.Duration
	// Seed makes the generated stream reproducible; 0 picks a
	// time-based seed.
	Seed int64
}

func (c Config) withDefaults() Config {
	if c.PriceInterval <= 0 {
		c.PriceInterval = time.Second
	}
	if c.NewsInterval <= 0 {
		c.NewsInterval = 3 * time.Second
	}
	return c
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.PriceAddr == "" || c.NewsAddr == "" {
		return exception.ErrEmptyAddress
	}
	return nil
}

// Hub broadcasts synthetic prices and sentiment scores over two TCP
// channels, each with its own subscriber set.
type Hub struct {
	cfg     Config
	walker  *mdg.Walker
	news    *mdg.SentimentSource
	priceCh *channel
	newsCh  *channel
	metrics *obs.Metrics

	priceSrv *tcp.Server
	newsSrv  *tcp.Server

	wg      sync.WaitGroup
	started uint32
	closed  uint32
}

// New creates a hub generating data for every symbol in the universe.
func New(cfg Config, universe *schema.Universe, metrics *obs.Metrics) (*Hub, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	walker, err := mdg.NewWalker(universe, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return &Hub{
		cfg:     cfg,
		walker:  walker,
		news:    mdg.NewSentimentSource(cfg.Seed),
		priceCh: newChannel("price"),
		newsCh:  newChannel("news"),
		metrics: metrics,
	}, nil
}

// Start binds both channels and launches the accept and tick loops.
// The loops stop when ctx is cancelled.
func (h *Hub) Start(ctx context.Context) error {
	if h == nil {
		return exception.ErrNilInstance
	}
	if !atomic.CompareAndSwapUint32(&h.started, 0, 1) {
		return ErrAlreadyStarted
	}

	priceSrv, err := tcp.NewServer(h.cfg.PriceAddr)
	if err != nil {
		return err
	}
	if err := priceSrv.Listen(); err != nil {
		return fmt.Errorf("listen price channel: %w", err)
	}
	newsSrv, err := tcp.NewServer(h.cfg.NewsAddr)
	if err != nil {
		_ = priceSrv.Close()
		return err
	}
	if err := newsSrv.Listen(); err != nil {
		_ = priceSrv.Close()
		return fmt.Errorf("listen news channel: %w", err)
	}
	h.priceSrv, h.newsSrv = priceSrv, newsSrv

	go func() {
		<-ctx.Done()
		_ = h.Close()
	}()

	h.wg.Add(4)
	go h.acceptLoop(ctx, priceSrv, h.priceCh)
	go h.acceptLoop(ctx, newsSrv, h.newsCh)
	go h.priceLoop(ctx)
	go h.newsLoop(ctx)

	logs.Infof("price channel listening: %s", priceSrv.ListenAddr())
	logs.Infof("news channel listening: %s", newsSrv.ListenAddr())
	return nil
}

// Wait blocks until the loops have stopped.
func (h *Hub) Wait() {
	if h == nil {
		return
	}
	h.wg.Wait()
}

// Close stops both listeners and disconnects every subscriber.
// It is idempotent.
func (h *Hub) Close() error {
	if h == nil {
		return exception.ErrNilInstance
	}
	if !atomic.CompareAndSwapUint32(&h.closed, 0, 1) {
		return nil
	}
	var err error
	if h.priceSrv != nil {
		if cerr := h.priceSrv.Close(); cerr != nil {
			err = cerr
		}
	}
	if h.newsSrv != nil {
		if cerr := h.newsSrv.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	h.priceCh.closeAll()
	h.newsCh.closeAll()
	return err
}

// PriceListenAddr returns the bound price channel address.
func (h *Hub) PriceListenAddr() string {
	if h == nil || h.priceSrv == nil {
		return ""
	}
	return h.priceSrv.ListenAddr()
}

// NewsListenAddr returns the bound news channel address.
func (h *Hub) NewsListenAddr() string {
	if h == nil || h.newsSrv == nil {
		return ""
	}
	return h.newsSrv.ListenAddr()
}

func (h *Hub) acceptLoop(ctx context.Context, srv *tcp.Server, ch *channel) {
	defer h.wg.Done()
	for {
		conn, err := srv.Accept()
		if err != nil {
			if ctx.Err() != nil || atomic.LoadUint32(&h.closed) == 1 || errors.Is(err, net.ErrClosed) {
				return
			}
			logs.Errorf("%s accept: %v", ch.name, err)
			continue
		}
		ch.add(conn)
	}
}

func (h *Hub) priceLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.PriceInterval)
	defer ticker.Stop()
	var buf []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			buf = codec.AppendPriceTick(buf[:0], h.walker.Step())
			h.broadcast(h.priceCh, buf)
			h.metrics.IncPriceTick()
		}
	}
}

func (h *Hub) newsLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.cfg.NewsInterval)
	defer ticker.Stop()
	var buf []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			buf = codec.AppendSentiment(buf[:0], h.news.Next())
			buf = append(buf, framing.Delimiter)
			h.broadcast(h.newsCh, buf)
			h.metrics.IncNewsTick()
		}
	}
}

func (h *Hub) broadcast(ch *channel, payload []byte) {
	if ch.len() == 0 {
		logs.Debugf("%s tick skipped: no subscribers", ch.name)
		return
	}
	start := time.Now()
	delivered, pruned := ch.broadcast(payload)
	h.metrics.ObserveFanout(time.Since(start))
	h.metrics.AddFramesSent(delivered)
	h.metrics.AddSubscriberDrops(pruned)
}
