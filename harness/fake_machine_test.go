package harness

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/cr0sh/lc3p2atest/harness/heap"
)

// fakeMachine is a Machine that implements the heap protocol directly on top
// of heap.Model. Each byte of input read counts as one instruction.
//
// bug, when set, decides per case whether the machine prints a corrupted
// trace and/or keeps running after the quit command.
type fakeMachine struct {
	bug    func(seq Sequence) (mismatch, alive bool)
	runs   *atomic.Int64
	halted bool
	err    error
}

func faithful() *fakeMachine { return &fakeMachine{runs: new(atomic.Int64)} }

func buggy(bug func(seq Sequence) (mismatch, alive bool)) *fakeMachine {
	return &fakeMachine{bug: bug, runs: new(atomic.Int64)}
}

func (m *fakeMachine) Clone() Machine {
	c := *m
	c.halted = false
	return &c
}

func (m *fakeMachine) Halted() bool { return m.halted }

func (m *fakeMachine) Run(ctx context.Context, limit uint64, in io.ByteScanner, out io.Writer) (uint64, error) {
	m.runs.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var script strings.Builder
	var n uint64
	for {
		c, err := in.ReadByte()
		if err != nil {
			break
		}
		script.WriteByte(c)
		n++
	}
	seq, err := ParseScript(script.String())
	if err != nil {
		return n, fmt.Errorf("fake machine: %w", err)
	}

	var mismatch, alive bool
	if m.bug != nil {
		mismatch, alive = m.bug(seq)
	}
	model := heap.New(out)
	for _, op := range seq {
		if err := apply(model, op); err != nil {
			return n, err
		}
	}
	if mismatch {
		if _, err := io.WriteString(out, "Heap: ?\n"); err != nil {
			return n, err
		}
	}
	if _, err := io.WriteString(out, QuitEcho); err != nil {
		return n, err
	}
	m.halted = !alive
	if alive && limit > 0 {
		n = limit
	}
	return n, nil
}

// containsValue returns a bug that triggers on sequences pushing v.
func containsValue(v int16, mismatch, alive bool) func(Sequence) (bool, bool) {
	return func(seq Sequence) (bool, bool) {
		for _, op := range seq {
			if op.Kind == OpPush && op.Value == v {
				return mismatch, alive
			}
		}
		return false, false
	}
}
