package cmd

import (
	"fmt"
	"time"

	"github.com/cr0sh/lc3p2atest/harness"
)

// progress prints per-group status. On a terminal the "running" line of a
// group is overwritten by its result.
type progress struct {
	tty     bool
	pending bool
}

func newProgress(tty bool) *progress { return &progress{tty: tty} }

func (p *progress) roundStart(total int) func(round int) {
	return func(round int) {
		if round == 0 {
			fmt.Println("** Running the base test groups.")
			return
		}
		fmt.Printf("** Running randomized test groups %d/%d.\n", round, total)
	}
}

func (p *progress) groupStart(plan harness.Plan) func(round int, g harness.GroupConfig) {
	return func(round int, g harness.GroupConfig) {
		limit := "none"
		if l := plan.Limit(g); l > 0 {
			limit = fmt.Sprint(l)
		}
		if p.tty {
			fmt.Printf("\t[%s] %d cases, values %v, sizes %v, limit %s ...", g.Name, g.Cases, g.Values, g.Sizes, limit)
			p.pending = true
			return
		}
		fmt.Printf("Starting test set [%s] of %d cases\n", g.Name, g.Cases)
		fmt.Printf("\tvalue range: %v\n", g.Values)
		fmt.Printf("\tsize range: %v\n", g.Sizes)
		fmt.Printf("\tinstruction limit: %s\n", limit)
	}
}

func (p *progress) groupDone(m harness.GroupMetrics) {
	if p.pending {
		fmt.Print("\r\033[K")
		p.pending = false
	}
	perCase := m.Elapsed / time.Duration(m.Cases)
	fmt.Printf("\t[%s] passed: %s total, %s per case, %.2f instructions per case\n",
		m.Name, m.Elapsed.Round(time.Millisecond), perCase, m.MeanInstructions)
}

func (p *progress) failed() {
	if p.pending {
		fmt.Println()
		p.pending = false
	}
}
