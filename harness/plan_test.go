package harness

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlan(t *testing.T) {
	p := DefaultPlan()
	require.NoError(t, p.Validate())
	assert.Equal(t, DefaultInstructionLimit, p.InstructionLimit)
	assert.Equal(t, 4, p.Rounds)
	require.Len(t, p.Groups, 11)
	assert.Equal(t, "simple", p.Groups[0].Name)
	assert.Equal(t, 100+5000+30+200+500+500+500+100_000+10_000+2500+200, p.TotalCases())

	for _, g := range p.Groups {
		switch g.Name {
		case "large", "xlarge":
			assert.Zero(t, p.Limit(g), g.Name)
		default:
			assert.Equal(t, DefaultInstructionLimit, p.Limit(g), g.Name)
		}
	}
	xl := p.Groups[len(p.Groups)-1]
	assert.Equal(t, []int16{0, math.MaxInt16}, xl.Values)
}

func TestGroupConfig_Validate(t *testing.T) {
	valid := NewGroupConfig("g", 0, 10, 1, 5, nil, 3, false)
	require.NoError(t, valid.Validate())

	bad := 1.5
	tests := []struct {
		name string
		mut  func(g *GroupConfig)
		want string
	}{
		{"empty name", func(g *GroupConfig) { g.Name = "" }, "name must not be empty"},
		{"inverted values", func(g *GroupConfig) { g.Values = []int16{5, 1} }, "values must be"},
		{"short values", func(g *GroupConfig) { g.Values = []int16{5} }, "values must be"},
		{"negative size", func(g *GroupConfig) { g.Sizes = []int{-1, 3} }, "sizes must be"},
		{"pop ratio", func(g *GroupConfig) { g.PopRatio = &bad }, "pop_ratio"},
		{"no cases", func(g *GroupConfig) { g.Cases = 0 }, "cases must be"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := valid
			tc.mut(&g)
			err := g.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGroupConfig_Distributions(t *testing.T) {
	fair := NewGroupConfig("fair", 0, 1, 1, 1, nil, 1, false).Distributions()
	assert.IsType(t, FairCoin{}, fair.Ops)

	biased := NewGroupConfig("biased", 0, 1, 1, 1, Ratio(1, 3), 1, false).Distributions()
	require.IsType(t, Bernoulli{}, biased.Ops)
	assert.InDelta(t, 1.0/3.0, biased.Ops.(Bernoulli).P, 1e-12)
}

func TestPlan_ValidateRejectsDuplicates(t *testing.T) {
	g := NewGroupConfig("dup", 0, 1, 1, 1, nil, 1, false)
	err := Plan{Groups: []GroupConfig{g, g}}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	assert.Error(t, Plan{}.Validate())
	assert.Error(t, Plan{Rounds: -1, Groups: []GroupConfig{g}}.Validate())
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan([]byte(`
instruction_limit: 1000
randomized_rounds: 1
groups:
  - name: tiny
    values: [0, 3]
    sizes: [3, 5]
    cases: 10
  - name: pop_heavy
    values: [-5, 5]
    sizes: [20, 30]
    pop_ratio: 0.75
    cases: 4
    unlimited: true
`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), p.InstructionLimit)
	assert.Equal(t, 1, p.Rounds)
	require.Len(t, p.Groups, 2)
	assert.Equal(t, []int16{-5, 5}, p.Groups[1].Values)
	require.NotNil(t, p.Groups[1].PopRatio)
	assert.Equal(t, 0.75, *p.Groups[1].PopRatio)
	assert.Nil(t, p.Groups[0].PopRatio)
	assert.Zero(t, p.Limit(p.Groups[1]))
	assert.Equal(t, uint64(1000), p.Limit(p.Groups[0]))
}

func TestParsePlan_DefaultsFillGaps(t *testing.T) {
	p, err := ParsePlan([]byte("randomized_rounds: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Rounds)
	assert.Equal(t, DefaultInstructionLimit, p.InstructionLimit)
	assert.Equal(t, DefaultPlan().Groups, p.Groups)

	empty, err := ParsePlan(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlan(), empty)
}

func TestParsePlan_Errors(t *testing.T) {
	_, err := ParsePlan([]byte("instruction_limt: 5\n"))
	require.Error(t, err, "unknown fields are rejected")

	_, err = ParsePlan([]byte("groups:\n  - name: bad\n    values: [3, 1]\n    sizes: [1, 1]\n    cases: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instruction_limit: 7\n"), 0644))
	p, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.InstructionLimit)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
