// Package harness is the differential tester: it generates heap operation
// sequences, derives the expected trace from the reference model, runs the
// target under the simulator and reports the first case whose output or
// liveness differs.
package harness

import (
	"strconv"
	"strings"
)

// OpKind tags an Operation.
type OpKind uint8

const (
	OpPush OpKind = iota
	OpPop
)

// Operation is one heap command. Value is meaningful only for OpPush.
type Operation struct {
	Kind  OpKind
	Value int16
}

// Push returns an insertion of v.
func Push(v int16) Operation { return Operation{Kind: OpPush, Value: v} }

// Pop returns a removal.
func Pop() Operation { return Operation{Kind: OpPop} }

// Command renders the operation in the target's command syntax, without the
// trailing newline.
func (op Operation) Command() string {
	if op.Kind == OpPop {
		return "r"
	}
	return "i " + strconv.Itoa(int(op.Value))
}

func (op Operation) String() string {
	if op.Kind == OpPop {
		return "Pop"
	}
	return "Push(" + strconv.Itoa(int(op.Value)) + ")"
}

// Sequence is the stimulus of one test case.
type Sequence []Operation

// Pushes returns the number of push operations in s.
func (s Sequence) Pushes() int {
	n := 0
	for _, op := range s {
		if op.Kind == OpPush {
			n++
		}
	}
	return n
}

func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, op := range s {
		parts[i] = op.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
