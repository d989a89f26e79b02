package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRing(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultSize},
		{"negative size", -1, DefaultSize},
		{"custom size", 90, 90},
		{"single slot", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[float64](tt.size)
			assert.Equal(t, tt.expected, r.Cap())
			assert.Equal(t, 0, r.Len())
			assert.Len(t, r.Snapshot(), tt.expected)
		})
	}
}

func TestRingZeroPaddedBeforeFill(t *testing.T) {
	r := New[float64](5)
	r.Push(1)
	r.Push(2)

	assert.Equal(t, []float64{0, 0, 0, 1, 2}, r.Snapshot())
	assert.Equal(t, 2, r.Len())
}

func TestRingOverflow(t *testing.T) {
	r := New[float64](5)
	for i := 0; i < 8; i++ {
		r.Push(float64(i))
	}

	assert.Equal(t, 5, r.Len())
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, r.Snapshot())
}

func TestRingSnapshotIsLastNInOrder(t *testing.T) {
	for _, n := range []int{1, 2, 7, 90, 120} {
		r := New[int](n)
		var pushed []int
		for i := 0; i < 3*n+1; i++ {
			r.Push(i)
			pushed = append(pushed, i)
			if len(pushed) >= n {
				snap := r.Snapshot()
				require.Len(t, snap, n)
				assert.Equal(t, pushed[len(pushed)-n:], snap, "capacity %d after %d pushes", n, len(pushed))
			}
		}
	}
}

func TestRingEvictsExactlyOne(t *testing.T) {
	r := New[string](3)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	r.Push("d")

	assert.Equal(t, []string{"b", "c", "d"}, r.Snapshot())
	r.Push("e")
	assert.Equal(t, []string{"c", "d", "e"}, r.Snapshot())
}

func TestRingLast(t *testing.T) {
	r := New[float64](3)
	_, ok := r.Last()
	assert.False(t, ok)

	for _, v := range []float64{4, 5, 6, 7} {
		r.Push(v)
		last, ok := r.Last()
		require.True(t, ok)
		assert.Equal(t, v, last)
	}
}

func TestRingSnapshotIsCopy(t *testing.T) {
	r := New[float64](3)
	r.Push(1)
	snap := r.Snapshot()
	snap[2] = 99

	assert.Equal(t, []float64{0, 0, 1}, r.Snapshot())
}
