package loggen

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// WeightedChoice draws values with probability proportional to their weight
type WeightedChoice[T any] struct {
	values     []T
	cumulative []uint64
}

// NewWeightedChoice builds the cumulative weight table for values
func NewWeightedChoice[T any](values []T, weights []uint64) (*WeightedChoice[T], error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("weighted choice needs at least one value")
	}
	if len(values) != len(weights) {
		return nil, fmt.Errorf("weighted choice has %d values but %d weights", len(values), len(weights))
	}

	cumulative := make([]uint64, len(weights))
	var total uint64
	for i, w := range weights {
		if w == 0 {
			return nil, fmt.Errorf("weight at index %d must be positive", i)
		}
		total += w
		cumulative[i] = total
	}

	return &WeightedChoice[T]{
		values:     append([]T(nil), values...),
		cumulative: cumulative,
	}, nil
}

// MustWeightedChoice is like NewWeightedChoice but panics on invalid input
func MustWeightedChoice[T any](values []T, weights []uint64) *WeightedChoice[T] {
	wc, err := NewWeightedChoice(values, weights)
	if err != nil {
		panic(err)
	}
	return wc
}

// Pick returns one value using a single uniform draw from rng
func (wc *WeightedChoice[T]) Pick(rng *rand.Rand) T {
	n := rng.Uint64N(wc.Total())
	i := sort.Search(len(wc.cumulative), func(i int) bool {
		return wc.cumulative[i] > n
	})
	return wc.values[i]
}

// Total returns the sum of all weights
func (wc *WeightedChoice[T]) Total() uint64 {
	return wc.cumulative[len(wc.cumulative)-1]
}

// Values returns a copy of the candidate values
func (wc *WeightedChoice[T]) Values() []T {
	return append([]T(nil), wc.values...)
}

// Probability returns the share of draws expected for the value at index i
func (wc *WeightedChoice[T]) Probability(i int) float64 {
	weight := wc.cumulative[i]
	if i > 0 {
		weight -= wc.cumulative[i-1]
	}
	return float64(weight) / float64(wc.Total())
}
