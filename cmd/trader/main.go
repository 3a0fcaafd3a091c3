package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"main/internal/book"
	"main/internal/engine"
	"main/internal/obs"
	"main/internal/ops"
	"main/pkg/shm"
	"main/pkg/tcp"
)

func main() {
	if err := run(); err != nil {
		log.Printf("trader: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	shmDir := flag.String("shm-dir", shm.DefaultDir, "Shared memory directory")
	symbol := flag.String("symbol", "", "Trade symbol (default: config tradeSymbol)")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}
	tradeSymbol := *symbol
	if tradeSymbol == "" {
		tradeSymbol = loaded.TradeSymbol
	}

	table, err := book.AttachIn(*shmDir, loaded.Segment, loaded.Universe)
	if err != nil {
		if err == shm.ErrNotFound {
			log.Printf("price table %q not found; start bookkeeper first", loaded.Segment)
		}
		return err
	}
	defer func() {
		if err := table.Close(); err != nil {
			log.Printf("close price table: %v", err)
		}
	}()
	log.Printf("price table attached: %s", table.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics()
	eng, err := engine.New(engine.Config{
		NewsAddr:  loaded.NewsAddr,
		OrderAddr: loaded.OrderAddr,
		Symbol:    tradeSymbol,
		Strategy:  loaded.Strategy,
		Retry:     tcp.Fixed(loaded.RetryInterval),
	}, table, metrics)
	if err != nil {
		return err
	}
	if err := eng.Run(ctx); err != nil {
		return err
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: ticks=%d skipped=%d orders=%d parse_failures=%d decision=%+v position=%s",
		snapshot.EngineTicks, snapshot.SkippedTicks, snapshot.OrdersSent,
		snapshot.ParseFailures, snapshot.DecisionLatency, eng.Position())
	return nil
}
