package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"main/internal/obs"
	"main/internal/ops"
	"main/internal/sink"
	"main/pkg/conn"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ordersink: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to JSON config")
	queueSize := flag.Int("queue-size", 0, "Delivery queue capacity (0=default)")
	pgDSN := flag.String("pg-dsn", "", "PostgreSQL DSN for order archiving (empty=disabled)")
	flag.Parse()

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}

	metrics := obs.NewMetrics()
	tally := sink.NewTally()
	handlers := []sink.Handler{sink.NewLogHandler(), tally}

	if *pgDSN != "" {
		client, err := conn.New(conn.Option{ConnString: *pgDSN})
		if err != nil {
			return err
		}
		store, err := sink.NewStore(client, metrics)
		if err != nil {
			_ = client.Close()
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close order store: %v", err)
			}
		}()
		handlers = append(handlers, store)
		log.Printf("order archiving enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := sink.New(sink.Config{
		Addr:      loaded.OrderAddr,
		QueueSize: *queueSize,
	}, metrics, handlers...)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	srv.Wait()

	for symbol, qty := range tally.Snapshot() {
		log.Printf("net position: %s %+d", symbol, qty)
	}
	snapshot := metrics.Snapshot()
	log.Printf("metrics: received=%d stored=%d drops=%d parse_failures=%d",
		snapshot.OrdersReceived, snapshot.OrdersStored, snapshot.QueueDrops, snapshot.ParseFailures)
	return nil
}
