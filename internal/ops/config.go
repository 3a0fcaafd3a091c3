// Package ops loads the JSON runtime configuration shared by the
// pipeline commands and resolves it into ready-to-use settings.
package ops

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"main/internal/engine"
	"main/internal/schema"
)

const (
	defaultHost      = "127.0.0.1"
	defaultPricePort = 9000
	defaultNewsPort  = 9001
	defaultOrderPort = 9002
	defaultSegment   = "pricebook"

	defaultPriceInterval = time.Second
	defaultNewsInterval  = 3 * time.Second
	defaultRetryInterval = 5 * time.Second
)

// SegmentEnv is the environment variable that overrides the shared
// price table segment name.
const SegmentEnv = "PRICEBOOK_SHM_NAME"

var defaultSymbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN"}

// FileConfig mirrors the JSON config layout. Zero values fall back to
// the built-in defaults.
type FileConfig struct {
	Host             string   `json:"host"`
	PricePort        int      `json:"pricePort"`
	NewsPort         int      `json:"newsPort"`
	OrderPort        int      `json:"orderPort"`
	Symbols          []string `json:"symbols"`
	TradeSymbol      string   `json:"tradeSymbol"`
	Segment          string   `json:"segment"`
	ShortWindow      int      `json:"shortWindow"`
	LongWindow       int      `json:"longWindow"`
	BullishThreshold int      `json:"bullishThreshold"`
	BearishThreshold int      `json:"bearishThreshold"`
	Quantity         int64    `json:"quantity"`
	PriceInterval    string   `json:"priceInterval"`
	NewsInterval     string   `json:"newsInterval"`
	RetryInterval    string   `json:"retryInterval"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Universe      *schema.Universe
	PriceAddr     string
	NewsAddr      string
	OrderAddr     string
	TradeSymbol   string
	Segment       string
	Strategy      engine.StrategyConfig
	PriceInterval time.Duration
	NewsInterval  time.Duration
	RetryInterval time.Duration
}

// Default resolves the built-in configuration.
func Default() (Loaded, error) {
	return resolve(FileConfig{})
}

// Load reads a JSON config file and resolves it. An empty path yields
// the built-in defaults.
func Load(path string) (Loaded, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	pricePort, err := resolvePort("pricePort", cfg.PricePort, defaultPricePort)
	if err != nil {
		return Loaded{}, err
	}
	newsPort, err := resolvePort("newsPort", cfg.NewsPort, defaultNewsPort)
	if err != nil {
		return Loaded{}, err
	}
	orderPort, err := resolvePort("orderPort", cfg.OrderPort, defaultOrderPort)
	if err != nil {
		return Loaded{}, err
	}

	symbols := cfg.Symbols
	if len(symbols) == 0 {
		symbols = defaultSymbols
	}
	universe, err := schema.NewUniverse(symbols)
	if err != nil {
		return Loaded{}, err
	}

	tradeSymbol := cfg.TradeSymbol
	if tradeSymbol == "" {
		tradeSymbol, _ = universe.At(0)
	} else if _, ok := universe.Index(tradeSymbol); !ok {
		return Loaded{}, fmt.Errorf("trade symbol not in universe: %s", tradeSymbol)
	}

	segment := cfg.Segment
	if env := os.Getenv(SegmentEnv); env != "" {
		segment = env
	}
	if segment == "" {
		segment = defaultSegment
	}

	priceInterval, err := resolveInterval("priceInterval", cfg.PriceInterval, defaultPriceInterval)
	if err != nil {
		return Loaded{}, err
	}
	newsInterval, err := resolveInterval("newsInterval", cfg.NewsInterval, defaultNewsInterval)
	if err != nil {
		return Loaded{}, err
	}
	retryInterval, err := resolveInterval("retryInterval", cfg.RetryInterval, defaultRetryInterval)
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Universe:    universe,
		PriceAddr:   net.JoinHostPort(host, strconv.Itoa(pricePort)),
		NewsAddr:    net.JoinHostPort(host, strconv.Itoa(newsPort)),
		OrderAddr:   net.JoinHostPort(host, strconv.Itoa(orderPort)),
		TradeSymbol: tradeSymbol,
		Segment:     segment,
		Strategy: engine.StrategyConfig{
			ShortWindow:      cfg.ShortWindow,
			LongWindow:       cfg.LongWindow,
			BullishThreshold: cfg.BullishThreshold,
			BearishThreshold: cfg.BearishThreshold,
			Quantity:         cfg.Quantity,
		},
		PriceInterval: priceInterval,
		NewsInterval:  newsInterval,
		RetryInterval: retryInterval,
	}, nil
}

func resolvePort(name string, value, fallback int) (int, error) {
	if value == 0 {
		return fallback, nil
	}
	if value < 1 || value > 65535 {
		return 0, fmt.Errorf("%s out of range: %d", name, value)
	}
	return value, nil
}

func resolveInterval(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive: %s", name, value)
	}
	return d, nil
}
