package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(SegmentEnv, "")

	loaded, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if loaded.PriceAddr != "127.0.0.1:9000" {
		t.Fatalf("price addr mismatch: %s", loaded.PriceAddr)
	}
	if loaded.NewsAddr != "127.0.0.1:9001" {
		t.Fatalf("news addr mismatch: %s", loaded.NewsAddr)
	}
	if loaded.OrderAddr != "127.0.0.1:9002" {
		t.Fatalf("order addr mismatch: %s", loaded.OrderAddr)
	}
	if loaded.Universe.Count() != 4 {
		t.Fatalf("universe size mismatch: %d", loaded.Universe.Count())
	}
	if loaded.TradeSymbol != "AAPL" {
		t.Fatalf("trade symbol mismatch: %s", loaded.TradeSymbol)
	}
	if loaded.Segment != "pricebook" {
		t.Fatalf("segment mismatch: %s", loaded.Segment)
	}
	if loaded.PriceInterval != time.Second {
		t.Fatalf("price interval mismatch: %s", loaded.PriceInterval)
	}
	if loaded.NewsInterval != 3*time.Second {
		t.Fatalf("news interval mismatch: %s", loaded.NewsInterval)
	}
	if loaded.RetryInterval != 5*time.Second {
		t.Fatalf("retry interval mismatch: %s", loaded.RetryInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(SegmentEnv, "")

	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"host": "0.0.0.0",
		"pricePort": 7000,
		"newsPort": 7001,
		"orderPort": 7002,
		"symbols": ["TSLA", "NVDA"],
		"tradeSymbol": "NVDA",
		"segment": "testbook",
		"shortWindow": 3,
		"longWindow": 9,
		"bullishThreshold": 60,
		"bearishThreshold": 40,
		"quantity": 25,
		"priceInterval": "250ms",
		"newsInterval": "1s",
		"retryInterval": "2s"
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PriceAddr != "0.0.0.0:7000" {
		t.Fatalf("price addr mismatch: %s", loaded.PriceAddr)
	}
	if loaded.TradeSymbol != "NVDA" {
		t.Fatalf("trade symbol mismatch: %s", loaded.TradeSymbol)
	}
	if loaded.Segment != "testbook" {
		t.Fatalf("segment mismatch: %s", loaded.Segment)
	}
	if loaded.Strategy.ShortWindow != 3 || loaded.Strategy.LongWindow != 9 {
		t.Fatalf("windows mismatch: %+v", loaded.Strategy)
	}
	if loaded.Strategy.Quantity != 25 {
		t.Fatalf("quantity mismatch: %d", loaded.Strategy.Quantity)
	}
	if loaded.PriceInterval != 250*time.Millisecond {
		t.Fatalf("price interval mismatch: %s", loaded.PriceInterval)
	}
	if symbols := loaded.Universe.Symbols(); len(symbols) != 2 || symbols[0] != "TSLA" {
		t.Fatalf("symbols mismatch: %v", symbols)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(SegmentEnv, "")

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.PriceAddr != "127.0.0.1:9000" {
		t.Fatalf("empty path should resolve defaults, got %s", loaded.PriceAddr)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestSegmentEnvWins(t *testing.T) {
	t.Setenv(SegmentEnv, "envbook")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"segment": "filebook"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Segment != "envbook" {
		t.Fatalf("env override lost: %s", loaded.Segment)
	}
}

func TestResolveRejects(t *testing.T) {
	testCases := []struct {
		desc string
		cfg  FileConfig
	}{
		{
			desc: "port out of range",
			cfg:  FileConfig{PricePort: 70000},
		},
		{
			desc: "negative port",
			cfg:  FileConfig{NewsPort: -1},
		},
		{
			desc: "trade symbol not in universe",
			cfg:  FileConfig{TradeSymbol: "TSLA"},
		},
		{
			desc: "symbol too long",
			cfg:  FileConfig{Symbols: []string{"ABCDEFGHIJK"}},
		},
		{
			desc: "unparseable interval",
			cfg:  FileConfig{PriceInterval: "fast"},
		},
		{
			desc: "non-positive interval",
			cfg:  FileConfig{NewsInterval: "-1s"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := resolve(tc.cfg); err == nil {
				t.Fatal("expected resolve error")
			}
		})
	}
}
