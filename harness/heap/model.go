// Package heap is the reference model of the bounded min-heap the target
// program implements. Every public operation writes the exact trace the
// target is expected to print, including the intermediate listings emitted
// while the heap rebalances.
package heap

import (
	"fmt"
	"io"
	"strconv"
)

// Capacity is the fixed number of slots of the heap.
const Capacity = 20

// Trace lines emitted when an operation is rejected.
const (
	InsertFailed = "Insert failed\n"
	RemoveFailed = "Remove failed\n"
)

// Model holds the heap array and writes its trace to w.
// Slots [0, size) form a binary min-heap; slots [size, Capacity) are garbage.
type Model struct {
	arr  [Capacity]int16
	size int
	w    io.Writer
	err  error // first write error, sticky until the operation returns
}

// New returns an empty model tracing to w.
// Panics if w is nil.
func New(w io.Writer) *Model {
	if w == nil {
		panic("heap.New: writer must not be nil")
	}
	return &Model{w: w}
}

// Len returns the number of elements currently held.
func (m *Model) Len() int { return m.size }

// Values returns a copy of the live slots in array order.
func (m *Model) Values() []int16 {
	out := make([]int16, m.size)
	copy(out, m.arr[:m.size])
	return out
}

// Insert traces and performs an insertion.
// A full heap is not an error: the rejection is part of the trace.
// The returned error only reports a failing writer.
func (m *Model) Insert(item int16) error {
	m.err = nil
	m.write(">i " + strconv.Itoa(int(item)) + "\n")
	if m.size == Capacity {
		m.write(InsertFailed)
		return m.flushErr("insert")
	}

	m.arr[m.size] = item
	m.size++

	curr := m.size - 1
	next := parent(curr)
	m.list()

	// The parent's value is copied down and the inserted value written to
	// the parent slot; one listing per step.
	for curr != 0 && m.arr[curr] < m.arr[next] {
		m.arr[curr] = m.arr[next]
		m.arr[next] = item
		curr = next
		next = parent(curr)
		m.list()
	}
	return m.flushErr("insert")
}

// Remove traces and performs a removal of the root.
// An empty heap is not an error: the rejection is part of the trace.
func (m *Model) Remove() error {
	m.err = nil
	m.write(">r\n")
	if m.size == 0 {
		m.write(RemoveFailed)
		return m.flushErr("remove")
	}

	m.arr[0] = m.arr[m.size-1]
	m.size--

	curr := 0
	next := 2*curr + 1
	m.list()
	for next < m.size {
		// right child wins only when strictly smaller than the left
		if next+1 < m.size && m.arr[next+1] < m.arr[next] {
			next++
		}
		if m.arr[next] >= m.arr[curr] {
			break
		}
		m.arr[curr], m.arr[next] = m.arr[next], m.arr[curr]
		curr = next
		next = 2*curr + 1
		m.list()
	}
	return m.flushErr("remove")
}

// List writes the current listing line.
func (m *Model) List() error {
	m.err = nil
	m.list()
	return m.flushErr("list")
}

func (m *Model) list() {
	if m.size == 0 {
		m.write("Heap: Empty\n")
		return
	}
	buf := make([]byte, 0, 6+7*m.size+1)
	buf = append(buf, "Heap: "...)
	for _, v := range m.arr[:m.size] {
		buf = strconv.AppendInt(buf, int64(v), 10)
		buf = append(buf, ' ')
	}
	buf = append(buf, '\n')
	m.writeBytes(buf)
}

func (m *Model) write(s string) {
	if m.err != nil {
		return
	}
	_, m.err = io.WriteString(m.w, s)
}

func (m *Model) writeBytes(b []byte) {
	if m.err != nil {
		return
	}
	_, m.err = m.w.Write(b)
}

func (m *Model) flushErr(op string) error {
	if m.err != nil {
		return fmt.Errorf("heap %s: writing trace: %w", op, m.err)
	}
	return nil
}

func parent(i int) int { return (i - 1) / 2 }
