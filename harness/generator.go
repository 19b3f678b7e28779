package harness

import (
	"iter"
	"math/rand"

	"github.com/cr0sh/lc3p2atest/harness/heap"
	"github.com/cr0sh/lc3p2atest/harness/internal/hash"
)

// Generator produces random operation sequences for one test group.
// Case i draws only from its own RNG, seeded from (Seed, Group, i), so cases
// are independent of each other and of the order they are consumed in.
type Generator struct {
	Dist  Distributions
	Group string
	Seed  uint64
}

// NewGenerator creates a Generator with all fields explicitly set.
// Panics if any distribution is nil.
func NewGenerator(dist Distributions, group string, seed uint64) *Generator {
	if dist.Values == nil || dist.Sizes == nil || dist.Ops == nil {
		panic("NewGenerator: all distributions must be set")
	}
	return &Generator{Dist: dist, Group: group, Seed: seed}
}

// CaseRand returns the RNG case index draws from.
func (g *Generator) CaseRand(index int) *rand.Rand {
	return rand.New(rand.NewSource(int64(hash.CaseSeed(g.Seed, g.Group, index))))
}

// Case builds the sequence of case index.
//
// Sizes gives the number of raw steps. While an element is outstanding, Ops
// decides between pop and push; otherwise the step is a push. The outstanding
// count saturates at the heap capacity, since pushes past it are rejected by
// the heap and leave nothing to pop. The sequence ends with one pop per
// outstanding element, so the modeled heap is always empty afterwards.
func (g *Generator) Case(index int) Sequence {
	r := g.CaseRand(index)
	size := g.Dist.Sizes.Sample(r)
	if size < 0 {
		size = 0
	}
	seq := make(Sequence, 0, size+heap.Capacity)
	outstanding := 0
	for len(seq) < size {
		if outstanding > 0 && g.Dist.Ops.Sample(r) {
			outstanding--
			seq = append(seq, Pop())
			continue
		}
		if outstanding < heap.Capacity {
			outstanding++
		}
		seq = append(seq, Push(g.Dist.Values.Sample(r)))
	}
	for ; outstanding > 0; outstanding-- {
		seq = append(seq, Pop())
	}
	return seq
}

// Cases yields cases 0..n-1 lazily. Ranging over the result again restarts
// from case 0 and yields the same sequences.
func (g *Generator) Cases(n int) iter.Seq2[int, Sequence] {
	return func(yield func(int, Sequence) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, g.Case(i)) {
				return
			}
		}
	}
}
