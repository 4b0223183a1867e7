package labeling

import "github.com/jonathan/jobrec-pipeline/internal/policy"

// Mapper maps single event types to labels under a policy.
type Mapper struct {
	policy *policy.Policy
}

// NewMapper returns a Mapper bound to p.
func NewMapper(p *policy.Policy) *Mapper {
	return &Mapper{policy: p}
}

// MapEvent returns the label for eventType. ok is false when the event is
// ignored or has no entry in the label map; both cases drop the event.
func (m *Mapper) MapEvent(eventType string) (label int, ok bool) {
	if m.policy.IsIgnored(eventType) {
		return 0, false
	}
	return m.policy.Label(eventType)
}
