package mdg

import (
	"math"
	"testing"

	"main/internal/schema"
	"main/pkg/exception"
)

func testUniverse(t *testing.T) *schema.Universe {
	t.Helper()
	u, err := schema.NewUniverse([]string{"AAPL", "MSFT", "GOOGL", "AMZN"})
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	return u
}

func TestNewWalkerNilUniverse(t *testing.T) {
	if _, err := NewWalker(nil, 1); err != exception.ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestWalkerInitialRange(t *testing.T) {
	w, err := NewWalker(testUniverse(t), 42)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}
	for i, p := range w.prices {
		if p < initialPriceMin || p >= initialPriceMax {
			t.Fatalf("initial price[%d] out of range: %v", i, p)
		}
	}
}

func TestWalkerStepBounded(t *testing.T) {
	w, err := NewWalker(testUniverse(t), 42)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}
	prev := make([]float64, len(w.prices))
	copy(prev, w.prices)

	for round := 0; round < 500; round++ {
		points := w.Step()
		for i, pt := range points {
			if pt.Price < floorPrice {
				t.Fatalf("price below floor: %v", pt.Price)
			}
			if delta := math.Abs(pt.Price - prev[i]); delta > maxStep {
				t.Fatalf("step %d moved %s by %v, max is %v", round, pt.Symbol, delta, maxStep)
			}
			prev[i] = pt.Price
		}
	}
}

func TestWalkerDeterministicBySeed(t *testing.T) {
	universe := testUniverse(t)
	a, err := NewWalker(universe, 7)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}
	b, err := NewWalker(universe, 7)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}

	for round := 0; round < 100; round++ {
		pa, pb := a.Step(), b.Step()
		for i := range pa {
			if pa[i] != pb[i] {
				t.Fatalf("step %d diverged at %d: %+v vs %+v", round, i, pa[i], pb[i])
			}
		}
	}
}

func TestWalkerFloorClamps(t *testing.T) {
	w, err := NewWalker(testUniverse(t), 42)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}
	for i := range w.prices {
		w.prices[i] = floorPrice
	}
	for round := 0; round < 200; round++ {
		for _, pt := range w.Step() {
			if pt.Price < floorPrice {
				t.Fatalf("floor violated: %v", pt.Price)
			}
		}
	}
}

func TestWalkerReusesPointSlice(t *testing.T) {
	w, err := NewWalker(testUniverse(t), 42)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}
	first := w.Step()
	second := w.Step()
	if &first[0] != &second[0] {
		t.Fatal("Step should reuse its point slice")
	}
}

func TestSentimentRange(t *testing.T) {
	src := NewSentimentSource(42)
	for i := 0; i < 5000; i++ {
		score := src.Next()
		if score < schema.SentimentMin || score > schema.SentimentMax {
			t.Fatalf("score out of range: %d", score)
		}
	}
}

func TestSentimentDeterministicBySeed(t *testing.T) {
	a, b := NewSentimentSource(7), NewSentimentSource(7)
	for i := 0; i < 100; i++ {
		if sa, sb := a.Next(), b.Next(); sa != sb {
			t.Fatalf("draw %d diverged: %d vs %d", i, sa, sb)
		}
	}
}
