package engine

import (
	"math"
	"strconv"
)

// Weighted pairs a candidate with its relative weight.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// ChooseUniform picks one candidate with equal probability:
// index floor(src.Float64() * len(choices)).
func ChooseUniform[T any](src Source, choices []T) (T, error) {
	var zero T
	if len(choices) == 0 {
		return zero, newConfigurationError("choices must not be empty")
	}

	idx := int(src.Float64() * float64(len(choices)))
	if idx >= len(choices) {
		idx = len(choices) - 1
	}
	return choices[idx], nil
}

// ChooseWeighted picks at most one candidate proportionally to weights.
//
// The draw r is taken from [0, max(1, total)). When the weights sum to 1 or
// more, some candidate is always selected. When they sum to less than 1, the
// weights act as independent trigger probabilities: r may land beyond the
// last cumulative boundary, in which case ok is false and nothing is chosen.
// "Small chance of X" pools rely on this.
//
// Returns ConfigurationError if the lengths differ, the list is empty, any
// weight is negative or not finite, or the sum is not positive.
func ChooseWeighted[T any](src Source, choices []T, weights []float64) (choice T, ok bool, err error) {
	var zero T
	if len(choices) == 0 {
		return zero, false, newConfigurationError("choices must not be empty")
	}
	if len(choices) != len(weights) {
		return zero, false, newConfigurationError("choices and weights must have the same length",
			"choices", strconv.Itoa(len(choices)),
			"weights", strconv.Itoa(len(weights)),
		)
	}

	total := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return zero, false, newConfigurationError("weights must be finite and non-negative",
				"index", strconv.Itoa(i),
				"weight", strconv.FormatFloat(w, 'g', -1, 64),
			)
		}
		total += w
	}
	if total <= 0 {
		return zero, false, newConfigurationError("sum of weights must be greater than zero",
			"total", strconv.FormatFloat(total, 'g', -1, 64),
		)
	}

	r := src.Float64() * math.Max(1, total)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r < cumulative {
			return choices[i], true, nil
		}
	}

	// Only reachable when total < 1 (probabilistic gate) or through float
	// rounding at the very top of the range.
	return zero, false, nil
}

// Choose dispatches to ChooseUniform when no weights are given and to
// ChooseWeighted otherwise.
func Choose[T any](src Source, choices []T, weights []float64) (T, bool, error) {
	if len(weights) == 0 {
		c, err := ChooseUniform(src, choices)
		return c, err == nil, err
	}
	return ChooseWeighted(src, choices, weights)
}

// ChooseFromPairs is the tuple form of ChooseWeighted.
func ChooseFromPairs[T any](src Source, pairs []Weighted[T]) (T, bool, error) {
	choices := make([]T, len(pairs))
	weights := make([]float64, len(pairs))
	for i, p := range pairs {
		choices[i] = p.Value
		weights[i] = p.Weight
	}
	return ChooseWeighted(src, choices, weights)
}

// Pick is ChooseFromPairs for callers that require a selection: a miss is
// reported as ErrNoCandidate.
func Pick[T any](src Source, pairs []Weighted[T]) (T, error) {
	c, ok, err := ChooseFromPairs(src, pairs)
	if err != nil {
		return c, err
	}
	if !ok {
		return c, ErrNoCandidate
	}
	return c, nil
}
