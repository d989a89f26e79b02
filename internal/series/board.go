package series

import (
	"sync"

	"github.com/Dicklesworthstone/vitals/internal/model"
)

// View is what a renderer needs for one metric. History is a copy.
type View struct {
	Metric    model.Metric
	Current   float64 // 0 when unavailable
	Available bool
	Display   string
	History   []float64
}

// Board holds one ring per metric and the latest reading of each. Record
// updates every metric under a single lock so readers never observe half a
// tick.
type Board struct {
	mu      sync.RWMutex
	size    int
	rings   map[model.Metric]*Ring[float64]
	current map[model.Metric]model.Float
	ticks   int
}

// NewBoard creates a board retaining size points per metric.
func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultSize
	}
	b := &Board{
		size:    size,
		rings:   make(map[model.Metric]*Ring[float64], len(model.Metrics)),
		current: make(map[model.Metric]model.Float, len(model.Metrics)),
	}
	for _, m := range model.Metrics {
		b.rings[m] = New[float64](size)
	}
	return b
}

// Record pushes every scalar of s into its ring. Absent values are charted
// as 0 but remain unavailable in View.Display.
func (b *Board) Record(s model.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range model.Metrics {
		v := m.Value(s)
		b.rings[m].Push(v.Or(0))
		b.current[m] = v
	}
	b.ticks++
}

// View returns the visualization state of m.
func (b *Board) View(m model.Metric) View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.viewLocked(m)
}

func (b *Board) viewLocked(m model.Metric) View {
	cur := b.current[m]
	return View{
		Metric:    m,
		Current:   cur.Or(0),
		Available: cur.Valid,
		Display:   m.Format(cur),
		History:   b.rings[m].Snapshot(),
	}
}

// Views returns every metric's view in display order, all from the same tick.
func (b *Board) Views() []View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]View, 0, len(model.Metrics))
	for _, m := range model.Metrics {
		out = append(out, b.viewLocked(m))
	}
	return out
}

// Ticks is the number of samples recorded.
func (b *Board) Ticks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ticks
}

// Size is the per-metric history length.
func (b *Board) Size() int { return b.size }
