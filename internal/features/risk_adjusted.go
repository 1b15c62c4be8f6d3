package features

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"alpharai/internal/bars"
	"alpharai/internal/types"
)

// Sharpe adds the rolling annualized Sharpe ratio of per-bar returns. The
// annualization factor is derived from the series cadence (median inter-row
// delta). Depends on Returns by composition.
type Sharpe struct {
	Direction types.Direction
	AnnualRF  float64
	Window    int
}

func NewSharpe(direction types.Direction, annualRF float64, window int) *Sharpe {
	return &Sharpe{Direction: direction.Normalize(), AnnualRF: annualRF, Window: window}
}

func (s *Sharpe) Slug() string { return "sharpe" }

func (s *Sharpe) Column() string {
	return fmt.Sprintf("sharpe_%s_%d", strings.ToLower(string(s.Direction)), s.Window)
}

func (s *Sharpe) Columns() []string { return []string{s.Column()} }

func (s *Sharpe) FeatureColumns() []string { return nil }

func (s *Sharpe) Add(f *bars.Frame) error {
	if f.HasAll(s.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	returns, periodsPerYear, err := perBarReturns(f, s.Direction)
	if err != nil {
		return err
	}
	rfPerBar := s.AnnualRF / periodsPerYear
	annualize := math.Sqrt(periodsPerYear)

	out := rollingApply(returns, s.Window, func(w []float64) float64 {
		sd := stddev(w)
		if math.IsNaN(sd) || sd == 0 {
			return math.NaN()
		}
		return (mean(w) - rfPerBar) / sd * annualize
	})
	return f.SetColumn(s.Column(), out)
}

func (s *Sharpe) Normalize(f *bars.Frame) error { return nil }

// Sortino is Sharpe with the denominator restricted to the deviation of
// negative returns.
type Sortino struct {
	Direction types.Direction
	AnnualRF  float64
	Window    int
}

func NewSortino(direction types.Direction, annualRF float64, window int) *Sortino {
	return &Sortino{Direction: direction.Normalize(), AnnualRF: annualRF, Window: window}
}

func (s *Sortino) Slug() string { return "sortino" }

func (s *Sortino) Column() string {
	return fmt.Sprintf("sortino_%s_%d", strings.ToLower(string(s.Direction)), s.Window)
}

func (s *Sortino) Columns() []string { return []string{s.Column()} }

func (s *Sortino) FeatureColumns() []string { return nil }

func (s *Sortino) Add(f *bars.Frame) error {
	if f.HasAll(s.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	returns, periodsPerYear, err := perBarReturns(f, s.Direction)
	if err != nil {
		return err
	}
	rfPerBar := s.AnnualRF / periodsPerYear
	annualize := math.Sqrt(periodsPerYear)

	out := rollingApply(returns, s.Window, func(w []float64) float64 {
		var negatives []float64
		for _, v := range w {
			if !math.IsNaN(v) && v < 0 {
				negatives = append(negatives, v)
			}
		}
		sd := stddev(negatives)
		if math.IsNaN(sd) || sd == 0 {
			return math.NaN()
		}
		return (mean(w) - rfPerBar) / sd * annualize
	})
	return f.SetColumn(s.Column(), out)
}

func (s *Sortino) Normalize(f *bars.Frame) error { return nil }

// perBarReturns runs the Returns dependency at horizon 1 and derives the
// annualization base from the median inter-bar delta.
func perBarReturns(f *bars.Frame, direction types.Direction) ([]float64, float64, error) {
	dep := NewReturns(direction, 1)
	if err := dep.Add(f); err != nil {
		return nil, 0, err
	}
	returns, err := f.Column(dep.Column())
	if err != nil {
		return nil, 0, err
	}

	cadence := medianCadence(f)
	if cadence <= 0 {
		return nil, 0, fmt.Errorf("%w: cannot derive cadence for annualization", types.ErrFeature)
	}
	periodsPerYear := float64(365*24*time.Hour) / float64(cadence)
	return returns, periodsPerYear, nil
}

func medianCadence(f *bars.Frame) time.Duration {
	dates := f.Dates()
	if len(dates) < 2 {
		return 0
	}
	deltas := make([]time.Duration, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		deltas = append(deltas, dates[i].Sub(dates[i-1]))
	}
	sort.Slice(deltas, func(i, j int) bool { return deltas[i] < deltas[j] })
	return deltas[len(deltas)/2]
}
