package interfaces

import (
	"context"

	"alpharai/internal/bars"
)

// BarSource fetches recent OHLCV bars for a symbol at a timeframe in
// minutes. Implementations may cache; the feature pipeline re-validates
// ordering and cadence on every frame.
type BarSource interface {
	RecentBars(ctx context.Context, symbol string, timeframeMinutes, n int) (*bars.Frame, error)
}
