package harness

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/cr0sh/lc3p2atest/harness/heap"
)

// Session terminators: the quit command fed to the target and the echo the
// target prints for it.
const (
	QuitCommand = "q\n"
	QuitEcho    = ">q\n"
)

// CompiledCase is one test case ready to run: the script fed to the target
// and the trace it must print.
type CompiledCase struct {
	Input  string
	Expect string
}

// Compile replays seq through a fresh heap model to obtain the expected trace
// and renders seq as a command script.
//
// The model only fails when its writer fails, which a strings.Builder never
// does; such a failure is a harness defect and panics.
func Compile(seq Sequence) CompiledCase {
	var expect strings.Builder
	m := heap.New(&expect)
	for i, op := range seq {
		if err := apply(m, op); err != nil {
			panic(fmt.Sprintf("Compile: reference model failed at operation %d (%v): %v", i, op, err))
		}
	}
	expect.WriteString(QuitEcho)

	return CompiledCase{
		Input:  RenderScript(seq),
		Expect: expect.String(),
	}
}

// RenderScript renders seq in the target's command syntax, one command per
// line, terminated by the quit command.
func RenderScript(seq Sequence) string {
	var b strings.Builder
	b.Grow(len(seq)*6 + len(QuitCommand))
	for _, op := range seq {
		b.WriteString(op.Command())
		b.WriteByte('\n')
	}
	b.WriteString(QuitCommand)
	return b.String()
}

func apply(m *heap.Model, op Operation) error {
	if op.Kind == OpPop {
		return m.Remove()
	}
	return m.Insert(op.Value)
}

// ParseScript reads a command script back into a sequence. Parsing stops at
// the quit command; blank lines are ignored.
func ParseScript(script string) (Sequence, error) {
	var seq Sequence
	sc := bufio.NewScanner(strings.NewReader(script))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		op, quit, err := ParseCommand(text)
		if err != nil {
			return nil, fmt.Errorf("script line %d: %w", line, err)
		}
		if quit {
			return seq, nil
		}
		seq = append(seq, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return seq, nil
}

// ParseCommand parses a single command line. quit is true for the quit
// command, in which case op is meaningless.
func ParseCommand(text string) (op Operation, quit bool, err error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Operation{}, false, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "q":
		if len(fields) != 1 {
			return Operation{}, false, fmt.Errorf("q takes no argument, got %q", text)
		}
		return Operation{}, true, nil
	case "r":
		if len(fields) != 1 {
			return Operation{}, false, fmt.Errorf("r takes no argument, got %q", text)
		}
		return Pop(), false, nil
	case "i":
		if len(fields) != 2 {
			return Operation{}, false, fmt.Errorf("i takes one value, got %q", text)
		}
		v, err := strconv.ParseInt(fields[1], 10, 16)
		if err != nil {
			return Operation{}, false, fmt.Errorf("bad insert value %q: %w", fields[1], err)
		}
		return Push(int16(v)), false, nil
	}
	return Operation{}, false, fmt.Errorf("unknown command %q", fields[0])
}
