package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"main/internal/book"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/relay"
	"main/pkg/shm"
	"main/pkg/tcp"
)

func main() {
	if err := run(); err != nil {
		log.Printf("bookkeeper: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	shmDir := flag.String("shm-dir", shm.DefaultDir, "Shared memory directory")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	table, err := book.CreateIn(*shmDir, loaded.Segment, loaded.Universe)
	if err != nil {
		return err
	}
	defer func() {
		if err := table.Unlink(); err != nil {
			log.Printf("unlink price table: %v", err)
		}
		if err := table.Close(); err != nil {
			log.Printf("close price table: %v", err)
		}
	}()
	if table.Created() {
		log.Printf("price table created: %s (%d symbols)", table.Name(), loaded.Universe.Count())
	} else {
		log.Printf("price table reused: %s (%d symbols)", table.Name(), loaded.Universe.Count())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := obs.NewMetrics()
	r, err := relay.New(relay.Config{
		FeedAddr: loaded.PriceAddr,
		Retry:    tcp.Fixed(loaded.RetryInterval),
	}, table, metrics)
	if err != nil {
		return err
	}
	if err := r.Run(ctx); err != nil {
		return err
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: updates=%d parse_failures=%d", snapshot.UpdatesApplied, snapshot.ParseFailures)
	return nil
}
