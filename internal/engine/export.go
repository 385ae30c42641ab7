package engine

import "time"

// ProcessExport is the plain-data projection of a Process.
type ProcessExport struct {
	State        any           `json:"state"`
	StateHistory []EntryExport `json:"stateHistory"`
}

// EntryExport is the plain-data projection of a HistoryEntry.
type EntryExport struct {
	Event     EventExport `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Seq       int64       `json:"seq"`
}

// EventExport is the plain-data projection of an applied event.
// Missing payloads and outputs export as empty objects.
type EventExport struct {
	Name         string        `json:"name"`
	Payload      any           `json:"payload"`
	Output       any           `json:"output"`
	State        any           `json:"state"`
	StateHistory []EntryExport `json:"stateHistory"`
}

// Export returns a read-only projection of the process, newest entry first.
// The snapshots it contains are the ones held by the history; callers that
// intend to mutate them must marshal the export first.
func (p *Process[S]) Export() ProcessExport {
	return ProcessExport{
		State:        p.State(),
		StateHistory: exportEntries(p.History()),
	}
}

// Export returns the projection of the record.
func (r *Record[S]) Export() EventExport {
	return EventExport{
		Name:         r.Name,
		Payload:      orEmpty(r.Payload),
		Output:       orEmpty(r.Output),
		State:        r.State,
		StateHistory: exportEntries(r.History),
	}
}

func exportEntries[S Snapshot[S]](entries []HistoryEntry[S]) []EntryExport {
	out := make([]EntryExport, len(entries))
	for i, e := range entries {
		out[i] = EntryExport{
			Event:     e.Event.Export(),
			Timestamp: e.Timestamp,
			Seq:       e.Seq,
		}
	}
	return out
}

func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
