package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/hub"
	"main/internal/obs"
	"main/internal/ops"
)

func main() {
	if err := run(); err != nil {
		log.Printf("feedgen: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	seed := flag.Int64("seed", 0, "Random seed (0=time based)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "feedgen",
			ServerAddress:   *pyroscopeAddr,
			Tags: map[string]string{
				"env": "local",
			},
			Logger: emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics()
	h, err := hub.New(hub.Config{
		PriceAddr:     loaded.PriceAddr,
		NewsAddr:      loaded.NewsAddr,
		PriceInterval: loaded.PriceInterval,
		NewsInterval:  loaded.NewsInterval,
		Seed:          *seed,
	}, loaded.Universe, metrics)
	if err != nil {
		return err
	}
	if err := h.Start(ctx); err != nil {
		return err
	}
	h.Wait()

	snapshot := metrics.Snapshot()
	log.Printf("metrics: price_ticks=%d news_ticks=%d frames=%d drops=%d fanout=%+v",
		snapshot.PriceTicks, snapshot.NewsTicks, snapshot.FramesSent,
		snapshot.SubscriberDrops, snapshot.FanoutLatency)
	return nil
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
