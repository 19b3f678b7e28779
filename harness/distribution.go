package harness

import (
	"fmt"
	"math/rand"
)

// Sampler draws one value using the caller's randomness.
type Sampler[T any] interface {
	Sample(r *rand.Rand) T
}

// Integer is the set of types Uniform can sample.
type Integer interface {
	~int | ~int16
}

// Uniform samples integers uniformly from the inclusive range [Lo, Hi].
type Uniform[T Integer] struct {
	Lo, Hi T
}

// NewUniform returns the inclusive range [lo, hi].
// Panics if lo > hi.
func NewUniform[T Integer](lo, hi T) Uniform[T] {
	if lo > hi {
		panic(fmt.Sprintf("NewUniform: lo (%d) must be <= hi (%d)", lo, hi))
	}
	return Uniform[T]{Lo: lo, Hi: hi}
}

func (u Uniform[T]) Sample(r *rand.Rand) T {
	span := int64(u.Hi) - int64(u.Lo) + 1
	return T(int64(u.Lo) + r.Int63n(span))
}

// Bernoulli yields true with probability P.
type Bernoulli struct {
	P float64
}

// NewBernoulli returns a Bernoulli distribution with success probability p.
// Panics if p is outside [0, 1].
func NewBernoulli(p float64) Bernoulli {
	if !(p >= 0 && p <= 1) {
		panic(fmt.Sprintf("NewBernoulli: p must be in [0, 1], got %v", p))
	}
	return Bernoulli{P: p}
}

// BernoulliRatio returns a Bernoulli distribution with probability num/den.
// Panics if den is 0 or num > den.
func BernoulliRatio(num, den uint) Bernoulli {
	if den == 0 || num > den {
		panic(fmt.Sprintf("BernoulliRatio: invalid ratio %d/%d", num, den))
	}
	return Bernoulli{P: float64(num) / float64(den)}
}

func (b Bernoulli) Sample(r *rand.Rand) bool {
	return r.Float64() < b.P
}

// FairCoin yields true and false with equal probability.
type FairCoin struct{}

func (FairCoin) Sample(r *rand.Rand) bool { return r.Int63()&1 == 1 }

// Distributions parameterize sequence generation for one test group.
type Distributions struct {
	Values Sampler[int16] // pushed values
	Sizes  Sampler[int]   // raw steps per case, before the draining pops
	Ops    Sampler[bool]  // true selects a pop when an element is outstanding
}
