package labeling

import "github.com/jonathan/jobrec-pipeline/internal/policy"

// EventLabel is a mapped event observed for a (user, job) pair.
type EventLabel struct {
	EventType string `json:"event_type"`
	Label     int    `json:"label"`
}

// Resolver collapses conflicting events for one pair into a single label.
type Resolver struct {
	policy *policy.Policy
}

// NewResolver returns a Resolver using p's priority table.
func NewResolver(p *policy.Policy) *Resolver {
	return &Resolver{policy: p}
}

// Resolve returns the label of the highest-priority event. Recency plays no
// part: an apply outranks a later view. Ties keep the first event seen.
func (r *Resolver) Resolve(events []EventLabel) (int, error) {
	if len(events) == 0 {
		return 0, &EmptyConflictSetError{}
	}

	winner := events[0]
	best := r.policy.Priority(winner.EventType)
	for _, ev := range events[1:] {
		if rank := r.policy.Priority(ev.EventType); rank > best {
			winner, best = ev, rank
		}
	}

	return winner.Label, nil
}
