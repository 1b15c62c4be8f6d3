package bars

import (
	"fmt"
	"sort"
	"time"

	"alpharai/internal/types"
)

// MinRows is the minimum series length any feature pipeline accepts.
const MinRows = 1000

// Bar is one OHLCV row. Dates are naive UTC.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Frame is a bar series plus any number of named indicator columns, all of
// the series' length. Column addition preserves insertion order and is
// additive only; bars are immutable after construction.
type Frame struct {
	bars  []Bar
	cols  map[string][]float64
	order []string
}

// New validates the series and wraps it in a Frame. The series must be
// strictly ascending by date and carry a single dominant cadence: the modal
// inter-row delta must cover at least 75% of rows.
func New(series []Bar) (*Frame, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", types.ErrFeature)
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			return nil, fmt.Errorf("%w: bars not strictly ascending at row %d", types.ErrFeature, i)
		}
	}
	if len(series) > 1 {
		if _, coverage := modalDelta(series); coverage < 0.75 {
			return nil, fmt.Errorf("%w: no dominant cadence (modal delta covers %.0f%% of rows)", types.ErrFeature, coverage*100)
		}
	}
	return &Frame{bars: series, cols: map[string][]float64{}}, nil
}

func modalDelta(series []Bar) (time.Duration, float64) {
	counts := map[time.Duration]int{}
	for i := 1; i < len(series); i++ {
		counts[series[i].Date.Sub(series[i-1].Date)]++
	}
	var best time.Duration
	bestN := 0
	for d, n := range counts {
		if n > bestN || (n == bestN && d < best) {
			best, bestN = d, n
		}
	}
	return best, float64(bestN) / float64(len(series)-1)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.bars) }

// Cadence returns the modal inter-row delta.
func (f *Frame) Cadence() time.Duration {
	if len(f.bars) < 2 {
		return 0
	}
	d, _ := modalDelta(f.bars)
	return d
}

// Bar returns the i-th row.
func (f *Frame) Bar(i int) Bar { return f.bars[i] }

// Dates returns the date column.
func (f *Frame) Dates() []time.Time {
	out := make([]time.Time, len(f.bars))
	for i, b := range f.bars {
		out[i] = b.Date
	}
	return out
}

func (f *Frame) Opens() []float64   { return f.extract(func(b Bar) float64 { return b.Open }) }
func (f *Frame) Highs() []float64   { return f.extract(func(b Bar) float64 { return b.High }) }
func (f *Frame) Lows() []float64    { return f.extract(func(b Bar) float64 { return b.Low }) }
func (f *Frame) Closes() []float64  { return f.extract(func(b Bar) float64 { return b.Close }) }
func (f *Frame) Volumes() []float64 { return f.extract(func(b Bar) float64 { return b.Volume }) }

func (f *Frame) extract(get func(Bar) float64) []float64 {
	out := make([]float64, len(f.bars))
	for i, b := range f.bars {
		out[i] = get(b)
	}
	return out
}

// Has reports whether a named column is present.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// HasAll reports whether every named column is present. Features use this
// as their idempotence short-circuit.
func (f *Frame) HasAll(names ...string) bool {
	for _, n := range names {
		if !f.Has(n) {
			return false
		}
	}
	return true
}

// Column returns a named column.
func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: column %q not present", types.ErrFeature, name)
	}
	return col, nil
}

// SetColumn adds or replaces a named column. The length must match the
// series; the first addition of a name records its position in the column
// order.
func (f *Frame) SetColumn(name string, values []float64) error {
	if len(values) != len(f.bars) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", types.ErrFeature, name, len(values), len(f.bars))
	}
	if _, ok := f.cols[name]; !ok {
		f.order = append(f.order, name)
	}
	f.cols[name] = values
	return nil
}

// Columns returns indicator column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Tail returns a frame over the last n rows, dropping indicator columns.
// Used by features that only operate on a bounded history window.
func (f *Frame) Tail(n int) *Frame {
	if n >= len(f.bars) {
		n = len(f.bars)
	}
	return &Frame{bars: f.bars[len(f.bars)-n:], cols: map[string][]float64{}}
}

// CheckSorted verifies strict date ordering; part of every feature's
// precondition contract.
func CheckSorted(f *Frame) error {
	dates := f.Dates()
	if sort.SliceIsSorted(dates, func(i, j int) bool { return dates[i].Before(dates[j]) }) {
		for i := 1; i < len(dates); i++ {
			if dates[i].Equal(dates[i-1]) {
				return fmt.Errorf("%w: duplicate bar date at row %d", types.ErrFeature, i)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: bar series not sorted by date", types.ErrFeature)
}

// CheckEnoughRows verifies the series meets the minimum length for feature
// computation.
func CheckEnoughRows(f *Frame, minRows int) error {
	if f.Len() < minRows {
		return fmt.Errorf("%w: %d rows, need at least %d", types.ErrFeature, f.Len(), minRows)
	}
	return nil
}
