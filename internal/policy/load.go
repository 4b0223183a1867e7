package policy

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/jobrec-pipeline/internal/schemas"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
	"gopkg.in/yaml.v3"
)

// Document is the declarative form of a labeling policy.
type Document struct {
	Version       string         `yaml:"version" json:"version"`
	LabelMap      map[string]int `yaml:"label_map" json:"label_map"`
	IgnoredEvents []string       `yaml:"ignored_events,omitempty" json:"ignored_events,omitempty"`
	Priority      map[string]int `yaml:"priority,omitempty" json:"priority,omitempty"`
}

// Load reads and parses a YAML (or JSON) labeling policy file.
func Load(path string) (*Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read policy file", Cause: err}
	}

	p, err := Parse(content)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Path == "" {
			loadErr.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Parse builds a Policy from YAML content. JSON is valid YAML, so JSON
// policies parse too.
func Parse(content []byte) (*Policy, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, &LoadError{Message: "malformed policy document", Cause: err}
	}
	if raw == nil {
		return nil, &LoadError{Message: "policy document is empty"}
	}
	if _, ok := raw["version"]; !ok {
		return nil, &LoadError{Message: "missing required key 'version'"}
	}
	if _, ok := raw["label_map"]; !ok {
		return nil, &LoadError{Message: "missing required key 'label_map'"}
	}

	var doc Document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, &LoadError{Message: "policy has invalid field types", Cause: err}
	}
	if doc.LabelMap == nil {
		doc.LabelMap = map[string]int{}
	}

	if err := schemas.ValidateDocument(artifacts.LabelingPolicy, doc); err != nil {
		return nil, &LoadError{Message: "policy does not match schema", Cause: err}
	}

	return New(doc.Version, doc.LabelMap, doc.IgnoredEvents, doc.Priority)
}

// Document returns the declarative form of p, suitable for persisting
// alongside a run.
func (p *Policy) Document() Document {
	doc := Document{
		Version:       p.version,
		LabelMap:      make(map[string]int, len(p.labelMap)),
		IgnoredEvents: p.IgnoredEvents(),
		Priority:      make(map[string]int, len(p.priority)),
	}
	for event, label := range p.labelMap {
		doc.LabelMap[event] = label
	}
	for event, rank := range p.priority {
		doc.Priority[event] = rank
	}
	return doc
}

// MustParse is Parse for policies embedded in code and tests.
func MustParse(content string) *Policy {
	p, err := Parse([]byte(content))
	if err != nil {
		panic(fmt.Sprintf("policy.MustParse: %v", err))
	}
	return p
}
