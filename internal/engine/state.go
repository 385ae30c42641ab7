package engine

// Snapshot is the contract a state type must satisfy to be driven by a
// Process. S is the concrete snapshot type itself (usually a pointer).
//
// Clone must return a deep copy that shares no mutable substructure with the
// receiver and carries id as its identifier. Field names and order are kept
// as-is; only the identifier changes.
type Snapshot[S any] interface {
	SnapshotID() string
	Clone(id string) S
}

// Clone returns a fully independent copy of s with a fresh identifier from gen.
func Clone[S Snapshot[S]](s S, gen IDGenerator) S {
	return s.Clone(gen.Generate())
}
