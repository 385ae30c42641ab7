package engine

import (
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterState is the snapshot type used throughout the engine tests.
type counterState struct {
	ID    string         `json:"id"`
	Count int            `json:"count"`
	Tags  []string       `json:"tags"`
	Meta  map[string]int `json:"meta"`
}

func (s *counterState) SnapshotID() string { return s.ID }

func (s *counterState) Clone(id string) *counterState {
	return &counterState{
		ID:    id,
		Count: s.Count,
		Tags:  slices.Clone(s.Tags),
		Meta:  maps.Clone(s.Meta),
	}
}

func newCounterState() *counterState {
	return &counterState{
		ID:    "seed",
		Count: 0,
		Tags:  []string{"a"},
		Meta:  map[string]int{"k": 1},
	}
}

func TestClone_AssignsFreshID(t *testing.T) {
	gen := NewSequenceGenerator("s")
	src := newCounterState()

	c := Clone(src, gen)

	assert.Equal(t, "s-1", c.ID)
	assert.NotEqual(t, src.ID, c.ID)
	assert.Equal(t, src.Count, c.Count)
	assert.Equal(t, src.Tags, c.Tags)
	assert.Equal(t, src.Meta, c.Meta)
}

func TestClone_IsIndependent(t *testing.T) {
	gen := NewSequenceGenerator("s")
	src := newCounterState()

	c := Clone(src, gen)
	c.Count = 42
	c.Tags[0] = "changed"
	c.Tags = append(c.Tags, "b")
	c.Meta["k"] = 99
	c.Meta["new"] = 1

	require.Equal(t, newCounterState(), src, "source must not observe clone mutations")
}

func TestClone_SuccessiveClonesDiffer(t *testing.T) {
	gen := NewSequenceGenerator("s")
	src := newCounterState()

	a := Clone(src, gen)
	b := Clone(src, gen)

	assert.NotEqual(t, a.ID, b.ID)
	a.Meta["k"] = 5
	assert.Equal(t, 1, b.Meta["k"])
}
