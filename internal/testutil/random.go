package testutil

import (
	"fmt"
	"sync"
)

// Float64Source is the subset of engine.Source that ScriptedSource needs
// for its fallback. Declared here so engine tests can use this package.
type Float64Source interface {
	Float64() float64
}

// ScriptedSource returns predetermined draws in order.
//
// This lets a test force a specific branch of a weighted pool: with weights
// [0.1, 0.05] a draw of 0.12 selects the second candidate and a draw of 0.5
// selects nothing.
//
// When the script is exhausted the fallback source is used; without a
// fallback, Float64 panics so that an unexpected extra draw fails the test.
//
// Thread-safety: ScriptedSource is safe for concurrent use via internal mutex.
type ScriptedSource struct {
	mu       sync.Mutex
	values   []float64
	idx      int
	fallback Float64Source
}

// NewScriptedSource creates a source that returns values in order.
// Each value must lie in [0, 1).
func NewScriptedSource(values ...float64) *ScriptedSource {
	for i, v := range values {
		if v < 0 || v >= 1 {
			panic(fmt.Sprintf("ScriptedSource: value %d out of range [0,1): %v", i, v))
		}
	}
	return &ScriptedSource{values: append([]float64(nil), values...)}
}

// WithFallback sets the source used after the script runs out.
func (s *ScriptedSource) WithFallback(src Float64Source) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = src
	return s
}

// Float64 returns the next scripted draw.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.values) {
		if s.fallback != nil {
			return s.fallback.Float64()
		}
		panic(fmt.Sprintf("ScriptedSource: script exhausted after %d draws", len(s.values)))
	}
	v := s.values[s.idx]
	s.idx++
	return v
}

// Remaining returns the number of scripted draws not yet consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values) - s.idx
}
