package harness

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cr0sh/lc3p2atest/harness/internal/hash"
)

// GroupMetrics summarizes one passed group in one round.
type GroupMetrics struct {
	Round            int
	Name             string
	Cases            int
	MeanInstructions float64
	Elapsed          time.Duration
}

// Result is the single value threaded through the schedule. Once Failure is
// set no further case is started.
type Result struct {
	Groups   []GroupMetrics
	Failure  *Failure
	Started  time.Time
	Finished time.Time
}

// Passed reports whether the whole schedule ran without a failing case.
func (r Result) Passed() bool { return r.Failure == nil }

// Scheduler drives a Plan: one round on the base machine, then Plan.Rounds
// rounds on machines produced by Reboot.
type Scheduler struct {
	Plan    Plan
	Workers int    // cases run concurrently; <= 1 runs them in generation order
	Seed    uint64 // run seed; every case seed is derived from it

	// Reboot returns the machine for randomized round n (1-based). It is
	// required when Plan.Rounds > 0.
	Reboot func(round int) (Machine, error)

	// Optional observers, called from the scheduling goroutine.
	OnRoundStart func(round int)
	OnGroupStart func(round int, g GroupConfig)
	OnGroupDone  func(m GroupMetrics)
}

// Run executes the schedule until it completes, a case fails, or ctx is done.
// A failing case is reported in the Result, not as an error; errors are
// reserved for the harness itself (cancellation, I/O, reboot failures).
func (s *Scheduler) Run(ctx context.Context, base Machine) (Result, error) {
	res := Result{Started: time.Now()}

	if err := s.Plan.Validate(); err != nil {
		return res, err
	}
	if s.Plan.Rounds > 0 && s.Reboot == nil {
		return res, fmt.Errorf("scheduler: %d randomized rounds requested without a Reboot function", s.Plan.Rounds)
	}

	for round := 0; round <= s.Plan.Rounds && res.Passed(); round++ {
		m := base
		if round > 0 {
			logrus.Infof("Randomizing machine memory and registers for round %d/%d", round, s.Plan.Rounds)
			var err error
			if m, err = s.Reboot(round); err != nil {
				return res, fmt.Errorf("round %d: %w", round, err)
			}
		}
		if s.OnRoundStart != nil {
			s.OnRoundStart(round)
		}
		if err := s.runRound(ctx, round, m, &res); err != nil {
			res.Finished = time.Now()
			return res, err
		}
	}
	res.Finished = time.Now()
	return res, nil
}

func (s *Scheduler) runRound(ctx context.Context, round int, m Machine, res *Result) error {
	seed := hash.RoundSeed(s.Seed, round)
	for _, g := range s.Plan.Groups {
		if s.OnGroupStart != nil {
			s.OnGroupStart(round, g)
		}
		logrus.Debugf("round %d: group %q, %d cases, values %v, sizes %v, limit %d",
			round, g.Name, g.Cases, g.Values, g.Sizes, s.Plan.Limit(g))

		start := time.Now()
		gen := NewGenerator(g.Distributions(), g.Name, seed)
		runner := Runner{Limit: s.Plan.Limit(g)}

		var (
			sum  float64
			fail *Failure
			err  error
		)
		if s.Workers <= 1 {
			sum, fail, err = runSequential(ctx, gen, g.Cases, runner, m)
		} else {
			sum, fail, err = runParallel(ctx, gen, g.Cases, runner, m, s.Workers)
		}
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		if fail != nil {
			fail.Round = round
			fail.Group = g.Name
			fail.RunSeed = s.Seed
			fail.RoundSeed = seed
			fail.CaseSeed = hash.CaseSeed(seed, g.Name, fail.Index)
			res.Failure = fail
			logrus.Debugf("round %d: group %q failed at case %d", round, g.Name, fail.Index)
			return nil
		}

		gm := GroupMetrics{
			Round:            round,
			Name:             g.Name,
			Cases:            g.Cases,
			MeanInstructions: sum / float64(g.Cases),
			Elapsed:          time.Since(start),
		}
		res.Groups = append(res.Groups, gm)
		if s.OnGroupDone != nil {
			s.OnGroupDone(gm)
		}
	}
	return nil
}

// runSequential runs cases strictly in generation order and stops at the
// first failure.
func runSequential(ctx context.Context, gen *Generator, n int, runner Runner, m Machine) (float64, *Failure, error) {
	var sum float64
	for i, seq := range gen.Cases(n) {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		out, err := runner.Run(ctx, Compile(seq), m)
		if err != nil {
			return 0, nil, fmt.Errorf("case %d: %w", i, err)
		}
		if !out.OK() {
			out.Failure.Index = i
			return 0, out.Failure, nil
		}
		sum += float64(out.Instructions)
	}
	return sum, nil, nil
}

// runParallel runs cases on up to workers goroutines. Results are collected
// unordered; the failure reported is the one with the lowest case index, so
// the verdict does not depend on scheduling. Once a failure at index k is
// known, cases after k are not started.
func runParallel(ctx context.Context, gen *Generator, n int, runner Runner, m Machine, workers int) (float64, *Failure, error) {
	var (
		mu      sync.Mutex
		sum     float64
		first   *Failure
		firstAt atomic.Int64
	)
	firstAt.Store(math.MaxInt64)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

feed:
	for i, seq := range gen.Cases(n) {
		if int64(i) > firstAt.Load() {
			break
		}
		select {
		case <-gctx.Done():
			break feed
		default:
		}
		eg.Go(func() error {
			if int64(i) > firstAt.Load() {
				return nil
			}
			out, err := runner.Run(gctx, Compile(seq), m)
			if err != nil {
				return fmt.Errorf("case %d: %w", i, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if !out.OK() {
				if first == nil || i < first.Index {
					out.Failure.Index = i
					first = out.Failure
					firstAt.Store(int64(i))
				}
				return nil
			}
			sum += float64(out.Instructions)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, nil, err
	}
	if err := ctx.Err(); err != nil && first == nil {
		return 0, nil, err
	}
	return sum, first, nil
}
