package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPlan reads a YAML test plan. Fields absent from the file keep the
// values of DefaultPlan, except groups: a file that lists groups replaces the
// default groups entirely. Unknown fields are rejected.
//
//	instruction_limit: 50000000
//	randomized_rounds: 4
//	groups:
//	  - name: simple
//	    values: [0, 3]
//	    sizes: [3, 5]
//	    cases: 100
//	  - name: pop_heavy
//	    values: [0, 20]
//	    sizes: [200, 250]
//	    pop_ratio: 0.66
//	    cases: 500
//	    unlimited: true
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("reading plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan is LoadPlan on in-memory YAML.
func ParsePlan(data []byte) (Plan, error) {
	p := DefaultPlan()
	p.Groups = nil

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, fmt.Errorf("parsing plan: %w", err)
	}
	if p.Groups == nil {
		p.Groups = DefaultPlan().Groups
	}
	if err := p.Validate(); err != nil {
		return Plan{}, fmt.Errorf("invalid plan: %w", err)
	}
	return p, nil
}
