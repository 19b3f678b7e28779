package harness

import (
	"fmt"
	"math"
)

// Defaults of the standard test plan.
const (
	DefaultInstructionLimit uint64 = 50_000_000
	DefaultRandomizedRounds        = 4
)

// GroupConfig is one named test group.
type GroupConfig struct {
	Name      string   `yaml:"name"`
	Values    []int16  `yaml:"values"`              // inclusive [lo, hi] of pushed values
	Sizes     []int    `yaml:"sizes"`               // inclusive [lo, hi] of raw steps per case
	PopRatio  *float64 `yaml:"pop_ratio,omitempty"` // nil = fair coin
	Cases     int      `yaml:"cases"`
	Unlimited bool     `yaml:"unlimited,omitempty"` // no instruction budget
}

// NewGroupConfig creates a GroupConfig with all fields explicitly set.
// This is the canonical constructor; the default plan is built with it.
func NewGroupConfig(name string, valueLo, valueHi int16, sizeLo, sizeHi int,
	popRatio *float64, cases int, unlimited bool) GroupConfig {
	return GroupConfig{
		Name:      name,
		Values:    []int16{valueLo, valueHi},
		Sizes:     []int{sizeLo, sizeHi},
		PopRatio:  popRatio,
		Cases:     cases,
		Unlimited: unlimited,
	}
}

// Ratio returns a pop ratio of num/den for NewGroupConfig.
func Ratio(num, den uint) *float64 {
	p := BernoulliRatio(num, den).P
	return &p
}

// Validate checks the group's parameters.
func (g GroupConfig) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group name must not be empty")
	}
	if len(g.Values) != 2 || g.Values[0] > g.Values[1] {
		return fmt.Errorf("group %q: values must be [lo, hi] with lo <= hi, got %v", g.Name, g.Values)
	}
	if len(g.Sizes) != 2 || g.Sizes[0] < 0 || g.Sizes[0] > g.Sizes[1] {
		return fmt.Errorf("group %q: sizes must be [lo, hi] with 0 <= lo <= hi, got %v", g.Name, g.Sizes)
	}
	if g.PopRatio != nil && (math.IsNaN(*g.PopRatio) || *g.PopRatio < 0 || *g.PopRatio > 1) {
		return fmt.Errorf("group %q: pop_ratio must be in [0, 1], got %v", g.Name, *g.PopRatio)
	}
	if g.Cases < 1 {
		return fmt.Errorf("group %q: cases must be >= 1, got %d", g.Name, g.Cases)
	}
	return nil
}

// Distributions returns the samplers of the group.
// The group must be valid.
func (g GroupConfig) Distributions() Distributions {
	var ops Sampler[bool] = FairCoin{}
	if g.PopRatio != nil {
		ops = NewBernoulli(*g.PopRatio)
	}
	return Distributions{
		Values: NewUniform(g.Values[0], g.Values[1]),
		Sizes:  NewUniform(g.Sizes[0], g.Sizes[1]),
		Ops:    ops,
	}
}

// Plan is the full test schedule.
type Plan struct {
	InstructionLimit uint64        `yaml:"instruction_limit"`
	Rounds           int           `yaml:"randomized_rounds"`
	Groups           []GroupConfig `yaml:"groups"`
}

// Limit returns the instruction budget for g; 0 means unbounded.
func (p Plan) Limit(g GroupConfig) uint64 {
	if g.Unlimited {
		return 0
	}
	return p.InstructionLimit
}

// Validate checks every group and rejects duplicate names.
func (p Plan) Validate() error {
	if len(p.Groups) == 0 {
		return fmt.Errorf("plan has no groups")
	}
	if p.Rounds < 0 {
		return fmt.Errorf("randomized_rounds must be >= 0, got %d", p.Rounds)
	}
	seen := make(map[string]bool, len(p.Groups))
	for _, g := range p.Groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate group name %q", g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}

// TotalCases is the number of cases one round of the plan runs.
func (p Plan) TotalCases() int {
	n := 0
	for _, g := range p.Groups {
		n += g.Cases
	}
	return n
}

// DefaultPlan returns the standard schedule.
func DefaultPlan() Plan {
	return Plan{
		InstructionLimit: DefaultInstructionLimit,
		Rounds:           DefaultRandomizedRounds,
		Groups: []GroupConfig{
			NewGroupConfig("simple", 0, 3, 3, 5, nil, 100, false),
			NewGroupConfig("duplicates", 0, 5, 200, 200, nil, 5000, false),
			NewGroupConfig("all_same", 1, 1, 30, 30, nil, 30, false),
			NewGroupConfig("zero_one", 0, 1, 50, 50, nil, 200, false),
			NewGroupConfig("zero_one_two", 0, 2, 80, 80, nil, 500, false),
			NewGroupConfig("1/3_pop_2/3_insert", 0, 20, 200, 250, Ratio(1, 3), 500, false),
			NewGroupConfig("2/3_pop_1/3_insert", 0, 20, 200, 250, Ratio(2, 3), 500, false),
			NewGroupConfig("small", 0, 50, 10, 20, nil, 100_000, false),
			NewGroupConfig("medium", 0, 200, 50, 60, nil, 10_000, false),
			NewGroupConfig("large", 0, 7000, 300, 350, nil, 2500, true),
			NewGroupConfig("xlarge", 0, math.MaxInt16, 7500, 8000, nil, 200, true),
		},
	}
}
