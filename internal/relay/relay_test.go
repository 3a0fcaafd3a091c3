package relay

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/exception"
	"main/pkg/framing"
	"main/pkg/tcp"
)

func testTable(t *testing.T) *book.Table {
	t.Helper()
	universe, err := schema.NewUniverse([]string{"AAPL", "MSFT"})
	require.NoError(t, err)
	table, err := book.CreateIn(t.TempDir(), "pricebook", universe)
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })
	return table
}

// feedServer hands every accepted subscriber to the test.
type feedServer struct {
	ln    net.Listener
	conns chan net.Conn
}

func startFeed(t *testing.T) *feedServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	f := &feedServer{ln: ln, conns: make(chan net.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			f.conns <- conn
		}
	}()
	return f
}

func (f *feedServer) accept(t *testing.T) net.Conn {
	t.Helper()
	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case conn := <-f.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-timer.C:
		t.Fatal("relay never connected")
	}
	return nil
}

func runRelay(t *testing.T, r *Relay) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errCh
}

func waitStop(t *testing.T, cancel context.CancelFunc, errCh chan error) {
	t.Helper()
	cancel()
	timer := time.NewTimer(2 * time.Second)
	defer timer.Stop()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-timer.C:
		t.Fatal("relay did not stop on cancel")
	}
}

func TestRelayConstructorRejects(t *testing.T) {
	if _, err := New(Config{}, nil, nil); err != exception.ErrEmptyAddress {
		t.Fatalf("expected ErrEmptyAddress, got %v", err)
	}
	if _, err := New(Config{FeedAddr: "127.0.0.1:9000"}, nil, nil); err != exception.ErrNilInstance {
		t.Fatalf("expected ErrNilInstance, got %v", err)
	}
}

func TestRelayMirrorsFramedRecords(t *testing.T) {
	feed := startFeed(t)
	table := testTable(t)
	metrics := obs.NewMetrics()

	r, err := New(Config{FeedAddr: feed.ln.Addr().String(), Retry: tcp.Fixed(20 * time.Millisecond)}, table, metrics)
	require.NoError(t, err)
	cancel, errCh := runRelay(t, r)

	conn := feed.accept(t)
	var buf []byte
	buf = framing.Append(buf, []byte("AAPL,187.25"))
	buf = framing.Append(buf, []byte("MSFT,415.10"))
	_, err = conn.Write(buf)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 2
	}, 2*time.Second, 10*time.Millisecond)

	price, err := table.Read("AAPL")
	require.NoError(t, err)
	require.Equal(t, 187.25, price)
	price, err = table.Read("MSFT")
	require.NoError(t, err)
	require.Equal(t, 415.10, price)

	waitStop(t, cancel, errCh)
}

func TestRelayResplitsBatchedFrame(t *testing.T) {
	feed := startFeed(t)
	table := testTable(t)
	metrics := obs.NewMetrics()

	r, err := New(Config{FeedAddr: feed.ln.Addr().String(), Retry: tcp.Fixed(20 * time.Millisecond)}, table, metrics)
	require.NoError(t, err)
	cancel, errCh := runRelay(t, r)

	// a whole batch framed as one unit, records joined by the same byte
	conn := feed.accept(t)
	_, err = conn.Write([]byte("AAPL,101.50*MSFT,243.76*"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 2
	}, 2*time.Second, 10*time.Millisecond)

	price, err := table.Read("MSFT")
	require.NoError(t, err)
	require.Equal(t, 243.76, price)

	waitStop(t, cancel, errCh)
}

func TestRelayDropsBadRecords(t *testing.T) {
	feed := startFeed(t)
	table := testTable(t)
	metrics := obs.NewMetrics()

	r, err := New(Config{FeedAddr: feed.ln.Addr().String(), Retry: tcp.Fixed(20 * time.Millisecond)}, table, metrics)
	require.NoError(t, err)
	cancel, errCh := runRelay(t, r)

	conn := feed.accept(t)
	var buf []byte
	buf = framing.Append(buf, []byte("garbage"))
	buf = framing.Append(buf, []byte("TSLA,250.00"))
	buf = framing.Append(buf, []byte("AAPL,187.25"))
	_, err = conn.Write(buf)
	require.NoError(t, err)

	// the malformed record and the untracked symbol drop, the stream
	// keeps flowing
	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 1
	}, 2*time.Second, 10*time.Millisecond)

	snap := metrics.Snapshot()
	require.EqualValues(t, 1, snap.ParseFailures)

	price, err := table.Read("AAPL")
	require.NoError(t, err)
	require.Equal(t, 187.25, price)

	waitStop(t, cancel, errCh)
}

func TestRelayReconnects(t *testing.T) {
	feed := startFeed(t)
	table := testTable(t)
	metrics := obs.NewMetrics()

	r, err := New(Config{FeedAddr: feed.ln.Addr().String(), Retry: tcp.Fixed(20 * time.Millisecond)}, table, metrics)
	require.NoError(t, err)
	cancel, errCh := runRelay(t, r)

	first := feed.accept(t)
	_, err = first.Write(framing.Append(nil, []byte("AAPL,100.00")))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, first.Close())

	second := feed.accept(t)
	_, err = second.Write(framing.Append(nil, []byte("AAPL,101.00")))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 2
	}, 2*time.Second, 10*time.Millisecond)

	price, err := table.Read("AAPL")
	require.NoError(t, err)
	require.Equal(t, 101.00, price)

	waitStop(t, cancel, errCh)
}

func TestRelayWaitsForFeed(t *testing.T) {
	// reserve an address, then bind it only after the relay started
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	table := testTable(t)
	metrics := obs.NewMetrics()
	r, err := New(Config{FeedAddr: addr, Retry: tcp.Fixed(20 * time.Millisecond)}, table, metrics)
	require.NoError(t, err)
	cancel, errCh := runRelay(t, r)

	time.Sleep(60 * time.Millisecond)

	late, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	defer late.Close()

	go func() {
		conn, err := late.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write(framing.Append(nil, []byte("MSFT,350.50")))
	}()

	require.Eventually(t, func() bool {
		return metrics.Snapshot().UpdatesApplied == 1
	}, 5*time.Second, 20*time.Millisecond)

	price, err := table.Read("MSFT")
	require.NoError(t, err)
	require.Equal(t, 350.50, price)

	waitStop(t, cancel, errCh)
}
