package store

import (
	"context"
	"strings"
	"time"

	"github.com/Dicklesworthstone/vitals/internal/errors"
	"github.com/Dicklesworthstone/vitals/internal/model"
)

// Aggregate summarizes one metric. Avg and Max are absent when no row in the
// window carried a reading; NULLs never count as zero.
type Aggregate struct {
	Metric model.Metric
	Count  int64
	Avg    model.Float
	Max    model.Float
}

// Summary aggregates the rows captured at or after Since.
type Summary struct {
	Since   time.Time
	Rows    int64
	Metrics []Aggregate
}

// Summarize aggregates every metric over rows captured at or after since.
// A zero since covers the whole table.
func (s *Store) Summarize(ctx context.Context, since time.Time) (Summary, error) {
	cols := []string{"COUNT(*)"}
	for _, m := range model.Metrics {
		c := m.Name()
		cols = append(cols, "COUNT("+c+")", "AVG("+c+")", "MAX("+c+")")
	}
	query := "SELECT " + strings.Join(cols, ", ") + " FROM measurements WHERE captured_at >= ?"

	sum := Summary{Since: since, Metrics: make([]Aggregate, len(model.Metrics))}
	avgs := make([]*float64, len(model.Metrics))
	maxes := make([]*float64, len(model.Metrics))
	dest := []any{&sum.Rows}
	for i := range model.Metrics {
		dest = append(dest, &sum.Metrics[i].Count, &avgs[i], &maxes[i])
	}

	from := ""
	if !since.IsZero() {
		from = since.Local().Format(timeLayout)
	}
	if err := s.db.QueryRowContext(ctx, query, from).Scan(dest...); err != nil {
		return Summary{}, errors.WrapWithCode(err, errors.ErrStore, "Failed to summarize measurements", "")
	}

	for i, m := range model.Metrics {
		sum.Metrics[i].Metric = m
		sum.Metrics[i].Avg = model.FromPtr(avgs[i])
		sum.Metrics[i].Max = model.FromPtr(maxes[i])
	}
	return sum, nil
}
