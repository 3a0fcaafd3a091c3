package mdg

import (
	"math/rand"

	"main/internal/schema"
)

// SentimentSource produces uniform random sentiment scores.
// Not safe for concurrent use.
type SentimentSource struct {
	rng *rand.Rand
}

// NewSentimentSource seeds a source. Seed 0 picks a time-based seed.
func NewSentimentSource(seed int64) *SentimentSource {
	return &SentimentSource{rng: newRand(seed)}
}

// Next returns a score in [SentimentMin, SentimentMax].
func (s *SentimentSource) Next() int {
	return schema.SentimentMin + s.rng.Intn(schema.SentimentMax-schema.SentimentMin+1)
}
