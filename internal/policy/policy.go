package policy

import (
	"fmt"
	"sort"
	"strings"
)

// UnrankedPriority is the priority of an event type missing from the
// priority table. Any prioritized event outranks it.
const UnrankedPriority = -1

// Policy is an immutable labeling policy. Construct it with New, Parse or
// Load; the zero value maps nothing.
type Policy struct {
	version  string
	labelMap map[string]int
	ignored  map[string]struct{}
	priority map[string]int
}

// New builds a Policy from its parts. The inputs are copied, so later changes
// by the caller do not leak into the policy.
func New(version string, labelMap map[string]int, ignoredEvents []string, priority map[string]int) (*Policy, error) {
	if strings.TrimSpace(version) == "" {
		return nil, &LoadError{Message: "missing required key 'version'"}
	}
	if labelMap == nil {
		return nil, &LoadError{Message: "missing required key 'label_map'"}
	}

	p := &Policy{
		version:  version,
		labelMap: make(map[string]int, len(labelMap)),
		ignored:  make(map[string]struct{}, len(ignoredEvents)),
		priority: make(map[string]int, len(priority)),
	}
	for event, label := range labelMap {
		if event == "" {
			return nil, &LoadError{Message: "label_map contains an empty event type"}
		}
		p.labelMap[event] = label
	}
	for _, event := range ignoredEvents {
		p.ignored[event] = struct{}{}
	}
	for event, rank := range priority {
		p.priority[event] = rank
	}

	return p, nil
}

// Version returns the policy version string.
func (p *Policy) Version() string {
	return p.version
}

// Label returns the label mapped to eventType and whether a mapping exists.
// It does not consult the ignore set; see labeling.Mapper for that.
func (p *Policy) Label(eventType string) (int, bool) {
	label, ok := p.labelMap[eventType]
	return label, ok
}

// IsIgnored reports whether eventType is explicitly excluded.
func (p *Policy) IsIgnored(eventType string) bool {
	_, ok := p.ignored[eventType]
	return ok
}

// Priority returns the conflict-resolution rank of eventType, or
// UnrankedPriority when the table has no entry for it.
func (p *Policy) Priority(eventType string) int {
	if rank, ok := p.priority[eventType]; ok {
		return rank
	}
	return UnrankedPriority
}

// LabelValues returns the distinct labels the policy can emit, ascending.
func (p *Policy) LabelValues() []int {
	seen := make(map[int]struct{}, len(p.labelMap))
	values := make([]int, 0, len(p.labelMap))
	for _, label := range p.labelMap {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		values = append(values, label)
	}
	sort.Ints(values)
	return values
}

// EventTypes returns the mapped event types in sorted order.
func (p *Policy) EventTypes() []string {
	events := make([]string, 0, len(p.labelMap))
	for event := range p.labelMap {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// IgnoredEvents returns the ignore set in sorted order.
func (p *Policy) IgnoredEvents() []string {
	events := make([]string, 0, len(p.ignored))
	for event := range p.ignored {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// String summarizes the policy for logs.
func (p *Policy) String() string {
	return fmt.Sprintf("policy %s (%d mapped, %d ignored, %d ranked)",
		p.version, len(p.labelMap), len(p.ignored), len(p.priority))
}
