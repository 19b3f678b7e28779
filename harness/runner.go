package harness

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// Runner executes compiled cases against a machine.
type Runner struct {
	Limit uint64 // instruction budget per case; 0 means unbounded
}

// Outcome is the verdict of one case. A nil Failure means success.
type Outcome struct {
	Instructions uint64
	Failure      *Failure
}

// OK reports whether the case passed.
func (o Outcome) OK() bool { return o.Failure == nil }

// Failure describes a case whose output differed from the model, or whose
// machine was still running after consuming all input, or both.
type Failure struct {
	Input  string
	Output string
	Expect string

	Alive    bool // the machine did not halt within the budget
	Mismatch bool // the output differs from the expected trace

	Instructions uint64

	// Where the case came from; set by the scheduler.
	Round int
	Group string
	Index int

	RunSeed   uint64 // the --seed value; reruns the whole schedule
	RoundSeed uint64 // seeds the round's generators
	CaseSeed  uint64 // seeds this case's generator
}

// Run feeds c.Input to a private clone of m and classifies what it printed.
// The returned error reports a failing output sink or a done ctx, never a
// verdict.
func (r Runner) Run(ctx context.Context, c CompiledCase, m Machine) (Outcome, error) {
	vm := m.Clone()
	var out bytes.Buffer
	out.Grow(len(c.Expect))

	n, err := vm.Run(ctx, r.Limit, strings.NewReader(c.Input), &out)
	if err != nil {
		return Outcome{}, fmt.Errorf("running case: %w", err)
	}

	output := strings.ToValidUTF8(out.String(), "\uFFFD")
	alive := !vm.Halted()
	mismatch := output != c.Expect
	if alive || mismatch {
		return Outcome{
			Instructions: n,
			Failure: &Failure{
				Input:        c.Input,
				Output:       output,
				Expect:       c.Expect,
				Alive:        alive,
				Mismatch:     mismatch,
				Instructions: n,
			},
		}, nil
	}
	return Outcome{Instructions: n}, nil
}
