package telemetry

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// History accumulates rows of equal width and computes per-column
// statistics over everything recorded so far. Handy for summarising a run:
// record one row per control cycle, read the mean and spread at the end.
type History struct {
	mu    sync.Mutex
	width int
	rows  [][]float64
}

// Record appends one row. All rows must have the same width.
func (h *History) Record(row []float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rows == nil {
		h.width = len(row)
	} else if len(row) != h.width {
		return fmt.Errorf("row has %d values, history holds rows of %d", len(row), h.width)
	}
	h.rows = append(h.rows, append([]float64(nil), row...))
	return nil
}

// Len returns the number of recorded rows.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rows)
}

// Column returns a copy of one column across all rows.
func (h *History) Column(i int) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, len(h.rows))
	for n, row := range h.rows {
		out[n] = row[i]
	}
	return out
}

// Mean returns the per-column mean.
func (h *History) Mean() []float64 {
	return h.perColumn(func(col []float64) float64 {
		return stat.Mean(col, nil)
	})
}

// StdDev returns the per-column sample standard deviation.
func (h *History) StdDev() []float64 {
	return h.perColumn(func(col []float64) float64 {
		return stat.StdDev(col, nil)
	})
}

func (h *History) perColumn(f func([]float64) float64) []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float64, h.width)
	col := make([]float64, len(h.rows))
	for i := 0; i < h.width; i++ {
		for n, row := range h.rows {
			col[n] = row[i]
		}
		out[i] = f(col)
	}
	return out
}
