package mdg

import (
	"math/rand"
	"time"

	"main/internal/schema"
	"main/pkg/exception"
)

const (
	initialPriceMin = 100.0
	initialPriceMax = 300.0
	// maxStep bounds one tick's move in either direction.
	maxStep = 0.5
	// floorPrice keeps walked prices strictly positive.
	floorPrice = 0.01
)

// Walker produces a bounded random walk for every symbol in the
// universe. Not safe for concurrent use.
type Walker struct {
	universe *schema.Universe
	prices   []float64
	points   []schema.PricePoint
	rng      *rand.Rand
}

// NewWalker seeds a walker for all symbols. Seed 0 picks a time-based
// seed; any other value makes the walk reproducible.
func NewWalker(universe *schema.Universe, seed int64) (*Walker, error) {
	if universe == nil || universe.Count() == 0 {
		return nil, exception.ErrInvalidArgument
	}
	w := &Walker{
		universe: universe,
		prices:   make([]float64, universe.Count()),
		points:   make([]schema.PricePoint, universe.Count()),
		rng:      newRand(seed),
	}
	for i := range w.prices {
		w.prices[i] = initialPriceMin + w.rng.Float64()*(initialPriceMax-initialPriceMin)
	}
	return w, nil
}

// Step advances every symbol by one tick and returns the new points.
// The returned slice is reused across calls.
func (w *Walker) Step() []schema.PricePoint {
	for i := range w.prices {
		delta := w.rng.Float64()*2*maxStep - maxStep
		price := w.prices[i] + delta
		if price < floorPrice {
			price = floorPrice
		}
		w.prices[i] = price
		name, _ := w.universe.At(i)
		w.points[i] = schema.PricePoint{Symbol: name, Price: price}
	}
	return w.points
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
