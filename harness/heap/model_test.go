package heap

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertHeapOrdered fails when any parent is greater than one of its children.
func assertHeapOrdered(t *testing.T, vals []int16) {
	t.Helper()
	for i := range vals {
		for _, c := range []int{2*i + 1, 2*i + 2} {
			if c < len(vals) && vals[i] > vals[c] {
				t.Fatalf("heap order violated at %d (%d) > child %d (%d): %v", i, vals[i], c, vals[c], vals)
			}
		}
	}
}

func TestModel_HandWorkedTrace(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	require.NoError(t, m.Insert(5))
	require.NoError(t, m.Insert(3))
	require.NoError(t, m.Insert(8))
	require.NoError(t, m.Remove())

	want := strings.Join([]string{
		">i 5",
		"Heap: 5 ",
		">i 3",
		"Heap: 5 3 ", // listed once before the sift loop
		"Heap: 3 5 ", // one listing per step
		">i 8",
		"Heap: 3 5 8 ",
		">r",
		"Heap: 8 5 ",
		"Heap: 5 8 ",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int16{5, 8}, m.Values())
}

func TestModel_InsertListsOncePerStep(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	for _, v := range []int16{1, 2, 3, 4, 5, 6, 7} {
		require.NoError(t, m.Insert(v))
	}
	buf.Reset()

	// 0 walks from index 7 to the root: 7 -> 3 -> 1 -> 0.
	require.NoError(t, m.Insert(0))
	want := ">i 0\n" +
		"Heap: 1 2 3 4 5 6 7 0 \n" +
		"Heap: 1 2 3 0 5 6 7 4 \n" +
		"Heap: 1 0 3 2 5 6 7 4 \n" +
		"Heap: 0 1 3 2 5 6 7 4 \n"
	assert.Equal(t, want, buf.String())
}

func TestModel_RemovePrefersLeftOnTie(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	for _, v := range []int16{1, 4, 4, 9} {
		require.NoError(t, m.Insert(v))
	}
	buf.Reset()

	require.NoError(t, m.Remove())
	// 9 replaces the root; both children are 4, the left one is taken.
	want := ">r\n" +
		"Heap: 9 4 4 \n" +
		"Heap: 4 9 4 \n"
	assert.Equal(t, want, buf.String())
}

func TestModel_RemoveTakesStrictlySmallerRight(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	for _, v := range []int16{1, 5, 2, 9} {
		require.NoError(t, m.Insert(v))
	}
	require.Equal(t, []int16{1, 5, 2, 9}, m.Values())
	buf.Reset()

	require.NoError(t, m.Remove())
	want := ">r\n" +
		"Heap: 9 5 2 \n" +
		"Heap: 2 5 9 \n"
	assert.Equal(t, want, buf.String())
}

func TestModel_RemoveEmpty(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	require.NoError(t, m.Remove())
	assert.Equal(t, ">r\nRemove failed\n", buf.String())
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, strings.Count(buf.String(), RemoveFailed))
}

func TestModel_InsertFull(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	for v := int16(20); v >= 1; v-- {
		require.NoError(t, m.Insert(v))
	}
	before := m.Values()
	require.Len(t, before, Capacity)
	assertHeapOrdered(t, before)

	buf.Reset()
	require.NoError(t, m.Insert(0))
	assert.Equal(t, ">i 0\nInsert failed\n", buf.String())
	assert.Equal(t, before, m.Values(), "rejected insert must not mutate the heap")
}

func TestModel_CapacityPlusOneDistinct(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	r := rand.New(rand.NewSource(7))
	accepted := map[int16]bool{}
	for _, i := range r.Perm(Capacity + 1) {
		v := int16(i * 3)
		require.NoError(t, m.Insert(v))
		if len(accepted) < Capacity {
			accepted[v] = true
		}
	}
	assert.Equal(t, 1, strings.Count(buf.String(), InsertFailed))

	vals := m.Values()
	assertHeapOrdered(t, vals)
	require.Len(t, vals, Capacity)
	for _, v := range vals {
		assert.True(t, accepted[v], "value %d was not among the first %d pushes", v, Capacity)
	}
}

func TestModel_EmptyListing(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	require.NoError(t, m.List())
	assert.Equal(t, "Heap: Empty\n", buf.String())

	require.NoError(t, m.Insert(-7))
	require.NoError(t, m.Remove())
	assert.True(t, strings.HasSuffix(buf.String(), ">r\nHeap: Empty\n"))
}

func TestModel_RandomOperationsKeepHeapOrder(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	m := New(&bytes.Buffer{})
	for i := 0; i < 5000; i++ {
		if r.Intn(2) == 0 {
			require.NoError(t, m.Insert(int16(r.Intn(65536)-32768)))
		} else {
			require.NoError(t, m.Remove())
		}
		assertHeapOrdered(t, m.Values())
	}
	for m.Len() > 0 {
		require.NoError(t, m.Remove())
	}
	assert.Equal(t, 0, m.Len())
}

func TestModel_ExtremeValues(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	require.NoError(t, m.Insert(32767))
	require.NoError(t, m.Insert(-32768))
	assert.Equal(t, ">i 32767\nHeap: 32767 \n>i -32768\nHeap: 32767 -32768 \nHeap: -32768 32767 \n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestModel_WriterErrorIsWrapped(t *testing.T) {
	m := New(failingWriter{})
	err := m.Insert(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heap insert")
	assert.Contains(t, err.Error(), "disk full")
	// the mutation still happened
	assert.Equal(t, 1, m.Len())
}

func TestNew_NilWriter_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "heap.New: writer must not be nil", func() {
		New(nil)
	})
}
