package harness

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/cr0sh/lc3p2atest/harness/internal/hash"
	"github.com/cr0sh/lc3p2atest/harness/lc3"
)

// Machine is the simulator as seen by the runner.
type Machine interface {
	// Clone returns an independent copy of the machine state.
	Clone() Machine
	// Run executes until the machine halts or limit instructions have run
	// (0 means no limit), reading in and writing out. It returns the
	// number of instructions executed. A done ctx stops the run with
	// ctx.Err().
	Run(ctx context.Context, limit uint64, in io.ByteScanner, out io.Writer) (uint64, error)
	// Halted reports whether the machine stopped its clock.
	Halted() bool
}

// LC3 is a Machine backed by an lc3.VM value.
type LC3 struct {
	vm lc3.VM
}

// Boot returns a fresh machine with the support image and the target loaded.
func Boot(support, target []byte) (*LC3, error) {
	m := &LC3{vm: *lc3.New()}
	if err := m.load(support, target); err != nil {
		return nil, err
	}
	return m, nil
}

// Randomized returns a copy of m whose memory and registers are overwritten
// from r before the support image and the target are loaded again. The
// display status and machine control registers are set ready so the target
// can still perform I/O. m itself is not modified.
func (m *LC3) Randomized(r *rand.Rand, support, target []byte) (*LC3, error) {
	c := &LC3{vm: m.vm}
	c.vm.Randomize(r)
	c.vm.PC = lc3.UserStart
	if err := c.load(support, target); err != nil {
		return nil, err
	}
	return c, nil
}

// Reboots returns a Scheduler.Reboot function over m. Round n randomizes a
// copy of m from an RNG derived from (seed, n).
func (m *LC3) Reboots(seed uint64, support, target []byte) func(round int) (Machine, error) {
	return func(round int) (Machine, error) {
		r := rand.New(rand.NewSource(int64(hash.RoundSeed(^seed, round))))
		c, err := m.Randomized(r, support, target)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (m *LC3) load(support, target []byte) error {
	if err := m.vm.LoadObj(support); err != nil {
		return fmt.Errorf("loading support image: %w", err)
	}
	if err := m.vm.LoadObj(target); err != nil {
		return fmt.Errorf("loading target program: %w", err)
	}
	logrus.Debugf("loaded support image (%d bytes) and target (%d bytes)", len(support), len(target))
	return nil
}

// VM exposes the underlying machine state.
func (m *LC3) VM() *lc3.VM { return &m.vm }

func (m *LC3) Clone() Machine {
	c := *m
	return &c
}

func (m *LC3) Run(ctx context.Context, limit uint64, in io.ByteScanner, out io.Writer) (uint64, error) {
	return m.vm.Run(ctx, limit, in, out)
}

func (m *LC3) Halted() bool { return !m.vm.Running() }
