package features

import (
	"fmt"
	"math"
	"strings"

	"alpharai/internal/bars"
	"alpharai/internal/types"
)

// Returns adds the forward return over Horizon bars, negated for SHORT.
// The value is already scale-free, so no separate normalized column exists.
type Returns struct {
	Direction types.Direction
	Horizon   int
}

func NewReturns(direction types.Direction, horizon int) *Returns {
	return &Returns{Direction: direction.Normalize(), Horizon: horizon}
}

func (r *Returns) Slug() string { return "returns" }

func (r *Returns) Column() string {
	return fmt.Sprintf("returns_%s_%d", strings.ToLower(string(r.Direction)), r.Horizon)
}

func (r *Returns) Columns() []string { return []string{r.Column()} }

func (r *Returns) FeatureColumns() []string { return nil }

func (r *Returns) Add(f *bars.Frame) error {
	if f.HasAll(r.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	closes := f.Closes()
	out := nanSlice(len(closes))
	for i := 0; i+r.Horizon < len(closes); i++ {
		if closes[i] == 0 {
			continue
		}
		ret := closes[i+r.Horizon]/closes[i] - 1
		if r.Direction == types.Short {
			ret = -ret
		}
		out[i] = ret
	}
	return f.SetColumn(r.Column(), out)
}

func (r *Returns) Normalize(f *bars.Frame) error { return nil }

// Drawdown adds the running decline from the trailing peak close.
type Drawdown struct{}

func NewDrawdown() *Drawdown { return &Drawdown{} }

func (d *Drawdown) Slug() string { return "drawdown" }

func (d *Drawdown) Columns() []string { return []string{"drawdown"} }

func (d *Drawdown) FeatureColumns() []string { return nil }

func (d *Drawdown) Add(f *bars.Frame) error {
	if f.HasAll(d.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	closes := f.Closes()
	out := make([]float64, len(closes))
	peak := math.Inf(-1)
	for i, c := range closes {
		peak = math.Max(peak, c)
		if peak != 0 {
			out[i] = c/peak - 1
		}
	}
	return f.SetColumn("drawdown", out)
}

func (d *Drawdown) Normalize(f *bars.Frame) error { return nil }
