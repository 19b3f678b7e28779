package harness

import (
	"bytes"
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cr0sh/lc3p2atest/harness/lc3"
)

// echoTarget echoes every character it reads and halts after echoing 'q'.
func echoTarget() []byte {
	b := lc3.NewBuilder(lc3.UserStart)
	b.Label("loop").TRAP(lc3.TrapGETC).TRAP(lc3.TrapOUT).
		LD(1, "neg_q").ADD(1, 0, 1).BR(lc3.CondNP, "loop").
		TRAP(lc3.TrapHALT).
		Label("neg_q").Fill(^uint16('q') + 1)
	return b.MustObj()
}

func TestBoot_RunsTarget(t *testing.T) {
	m, err := Boot(lc3.SupportImage(), echoTarget())
	require.NoError(t, err)

	c := m.Clone()
	var out bytes.Buffer
	n, err := c.Run(context.Background(), 0, strings.NewReader("i 3\nq\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "i 3\nq", out.String())
	assert.True(t, c.Halted())
	assert.False(t, m.Halted(), "running a clone leaves the base machine untouched")
	assert.Greater(t, n, uint64(0))
}

func TestBoot_RejectsBadImages(t *testing.T) {
	_, err := Boot([]byte{0x30}, echoTarget())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "support image")

	_, err = Boot(lc3.SupportImage(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target program")
}

func TestLC3_RunnerClassifiesEcho(t *testing.T) {
	m, err := Boot(lc3.SupportImage(), echoTarget())
	require.NoError(t, err)

	// The echo target halts but never prints a trace.
	out, err := Runner{Limit: 100_000}.Run(context.Background(), Compile(Sequence{Push(1)}), m)
	require.NoError(t, err)
	require.False(t, out.OK())
	assert.True(t, out.Failure.Mismatch)
	assert.False(t, out.Failure.Alive)
	assert.Equal(t, "i 1\nq", out.Failure.Output)
}

func TestLC3_RunnerReportsAliveOnMissingQuit(t *testing.T) {
	m, err := Boot(lc3.SupportImage(), echoTarget())
	require.NoError(t, err)

	out, err := Runner{Limit: 10_000}.Run(context.Background(), CompiledCase{Input: "ab", Expect: "ab"}, m)
	require.NoError(t, err)
	require.False(t, out.OK())
	assert.True(t, out.Failure.Alive)
	assert.False(t, out.Failure.Mismatch)
	assert.Equal(t, uint64(10_000), out.Instructions)
}

func TestLC3_Randomized(t *testing.T) {
	base, err := Boot(lc3.SupportImage(), echoTarget())
	require.NoError(t, err)
	before := *base.VM()

	r := rand.New(rand.NewSource(1))
	rm, err := base.Randomized(r, lc3.SupportImage(), echoTarget())
	require.NoError(t, err)
	assert.Equal(t, before, *base.VM(), "randomizing returns a new machine")
	assert.Equal(t, uint16(lc3.UserStart), rm.VM().PC)
	assert.NotEqual(t, before.Mem, rm.VM().Mem)

	out, err := Runner{Limit: 100_000}.Run(context.Background(), CompiledCase{Input: "xyq", Expect: "xyq"}, rm)
	require.NoError(t, err)
	assert.True(t, out.OK(), "programs still run on randomized memory: %+v", out.Failure)
}

func TestLC3_RebootsAreReproducible(t *testing.T) {
	base, err := Boot(lc3.SupportImage(), echoTarget())
	require.NoError(t, err)
	reboot := base.Reboots(7, lc3.SupportImage(), echoTarget())

	a, err := reboot(1)
	require.NoError(t, err)
	b, err := reboot(1)
	require.NoError(t, err)
	c, err := reboot(2)
	require.NoError(t, err)

	assert.Equal(t, a.(*LC3).VM().Reg, b.(*LC3).VM().Reg)
	assert.NotEqual(t, a.(*LC3).VM().Reg, c.(*LC3).VM().Reg)
}
