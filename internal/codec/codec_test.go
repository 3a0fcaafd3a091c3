package codec

import (
	"bytes"
	"testing"

	"main/internal/schema"
	"main/pkg/framing"
)

func TestAppendPricePointTwoDecimals(t *testing.T) {
	testCases := []struct {
		desc     string
		point    schema.PricePoint
		expected string
	}{
		{
			"plain",
			schema.PricePoint{Symbol: "AAPL", Price: 101.5},
			"AAPL,101.50",
		},
		{
			"round half",
			schema.PricePoint{Symbol: "MSFT", Price: 243.755},
			"MSFT,243.76",
		},
		{
			"integral",
			schema.PricePoint{Symbol: "AMZN", Price: 100},
			"AMZN,100.00",
		},
		{
			"floor price",
			schema.PricePoint{Symbol: "GOOGL", Price: 0.01},
			"GOOGL,0.01",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got := AppendPricePoint(nil, tc.point)
			if string(got) != tc.expected {
				t.Fatalf("record mismatch! should be %q but got %q", tc.expected, got)
			}
		})
	}
}

func TestParsePricePointRoundTrip(t *testing.T) {
	record := AppendPricePoint(nil, schema.PricePoint{Symbol: "AAPL", Price: 187.25})
	point, err := ParsePricePoint(record)
	if err != nil {
		t.Fatalf("ParsePricePoint: %v", err)
	}
	if point.Symbol != "AAPL" || point.Price != 187.25 {
		t.Fatalf("point mismatch: got %+v", point)
	}
}

func TestParsePricePointRejects(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
	}{
		{"no separator", "AAPL187.25"},
		{"empty symbol", ",187.25"},
		{"empty price", "AAPL,"},
		{"not a number", "AAPL,abc"},
		{"nan", "AAPL,NaN"},
		{"infinite", "AAPL,+Inf"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := ParsePricePoint([]byte(tc.input)); err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
		})
	}
}

// A tick frames every symbol on its own instead of framing the joined
// batch once. Both spellings produce identical bytes because the
// delimiter doubles as the in-batch separator, so per-record framing
// costs nothing and parses unambiguously.
func TestAppendPriceTickMatchesJoinedBatch(t *testing.T) {
	points := []schema.PricePoint{
		{Symbol: "AAPL", Price: 187.25},
		{Symbol: "MSFT", Price: 415.1},
		{Symbol: "GOOGL", Price: 176.84},
	}

	tick := AppendPriceTick(nil, points)

	var batch []byte
	for _, p := range points {
		batch = AppendPricePoint(batch, p)
		batch = append(batch, framing.Delimiter)
	}
	if !bytes.Equal(tick, batch) {
		t.Fatalf("tick bytes diverge from joined batch: %q vs %q", tick, batch)
	}

	records := bytes.Split(tick, []byte{framing.Delimiter})
	if len(records) != len(points)+1 || len(records[len(records)-1]) != 0 {
		t.Fatalf("tick should hold %d delimited records, got %q", len(points), tick)
	}
	for i, p := range points {
		got, err := ParsePricePoint(records[i])
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.Symbol != p.Symbol {
			t.Fatalf("record %d symbol mismatch: got %q want %q", i, got.Symbol, p.Symbol)
		}
	}
}

func TestSentimentRoundTrip(t *testing.T) {
	for _, score := range []int{0, 1, 50, 99, 100} {
		got, err := ParseSentiment(AppendSentiment(nil, score))
		if err != nil {
			t.Fatalf("score %d: %v", score, err)
		}
		if got != score {
			t.Fatalf("score mismatch: got %d want %d", got, score)
		}
	}
}

func TestParseSentimentRejects(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
	}{
		{"negative", "-1"},
		{"above max", "101"},
		{"empty", ""},
		{"not a number", "bullish"},
		{"fractional", "73.5"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := ParseSentiment([]byte(tc.input)); err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
		})
	}
}

func TestOrderIntentRoundTrip(t *testing.T) {
	orig := schema.OrderIntent{
		Symbol:         "AAPL",
		Side:           schema.SideSell,
		Quantity:       10,
		Price:          187.25,
		Sentiment:      12,
		ShortMA:        186.1,
		LongMA:         188.4,
		PositionBefore: schema.PositionLong,
		PositionAfter:  schema.PositionShort,
		Reason:         "short ma below long ma with bearish sentiment 12",
		Timestamp:      1700000000.5,
	}

	encoded, err := EncodeOrderIntent(nil, orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeOrderIntent(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != orig {
		t.Fatalf("intent mismatch: got %+v want %+v", decoded, orig)
	}
}

func TestDecodeOrderIntentRejects(t *testing.T) {
	testCases := []struct {
		desc  string
		input string
	}{
		{"not json", "AAPL,187.25"},
		{"missing symbol", `{"side":"BUY","quantity":10}`},
		{"bad side", `{"symbol":"AAPL","side":"HOLD","quantity":10}`},
		{"zero quantity", `{"symbol":"AAPL","side":"BUY","quantity":0}`},
		{"negative quantity", `{"symbol":"AAPL","side":"SELL","quantity":-5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := DecodeOrderIntent([]byte(tc.input)); err == nil {
				t.Fatalf("expected error for %q", tc.input)
			}
		})
	}
}
