package history

import (
	"time"

	"alpharai/internal/types"
)

// Window is one rolling slice: the trades whose close time falls in
// (Tick − window, Tick].
type Window struct {
	Tick   time.Time
	Trades []types.TradeRecord
}

// GetRollingWindows yields one window per unit tick from min(open) to
// max(close) at the chosen resolution. Every tick in the range appears even
// when its slice is empty. With skipHead the first `window` ticks are
// dropped.
func GetRollingWindows(trades []types.TradeRecord, window int, resolution Resolution, skipHead bool) ([]Window, error) {
	step, err := resolution.step()
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, nil
	}

	minOpen := trades[0].OpenedAt
	maxClose := trades[0].ClosedAt
	for _, t := range trades[1:] {
		if t.OpenedAt.Before(minOpen) {
			minOpen = t.OpenedAt
		}
		if t.ClosedAt.After(maxClose) {
			maxClose = t.ClosedAt
		}
	}

	first := truncateTo(minOpen, resolution)
	span := time.Duration(window) * step

	var out []Window
	for tick := first; !tick.After(truncateTo(maxClose, resolution).Add(step)); tick = tick.Add(step) {
		var slice []types.TradeRecord
		for _, t := range trades {
			if t.ClosedAt.After(tick.Add(-span)) && !t.ClosedAt.After(tick) {
				slice = append(slice, t)
			}
		}
		out = append(out, Window{Tick: tick, Trades: slice})
	}

	if skipHead && len(out) > window {
		out = out[window:]
	} else if skipHead {
		out = nil
	}
	return out, nil
}

func truncateTo(t time.Time, resolution Resolution) time.Time {
	t = t.UTC()
	if resolution == Daily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
}
