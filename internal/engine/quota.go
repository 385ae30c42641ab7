package engine

import (
	"fmt"
	"strconv"
)

// DefaultMaxDepth is the default maximum nesting depth of dispatch.
//
// A top-level Process has depth 0; the child process an event executes in has
// depth 1; a random event triggered from inside that event runs at depth 2,
// and so on. A ruleset whose random events keep re-triggering one another
// would otherwise recurse without bound.
const DefaultMaxDepth = 16

// checkDepth validates that a dispatch creating a child at childDepth stays
// within maxDepth. Returns a RuntimeError with ErrCodeDepthExceeded otherwise.
func checkDepth(event string, childDepth, maxDepth int) error {
	if childDepth <= maxDepth {
		return nil
	}
	return &RuntimeError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("nested dispatch exceeded max depth (%d > %d)", childDepth, maxDepth),
		Event:   event,
		Details: map[string]string{
			"depth":     strconv.Itoa(childDepth),
			"max_depth": strconv.Itoa(maxDepth),
		},
	}
}
