package confluence

import (
	"math"

	"alpharai/internal/bars"
	"alpharai/internal/features"
	"alpharai/internal/types"
)

// AdaptiveSuperTrendDirection scores full agreement when the adaptive
// supertrend direction matches the intent direction and full disagreement
// when opposed. An unreadable direction is neutral.
type AdaptiveSuperTrendDirection struct {
	feature *features.AdaptiveSuperTrend
}

func NewAdaptiveSuperTrendDirection() *AdaptiveSuperTrendDirection {
	return &AdaptiveSuperTrendDirection{
		feature: features.NewAdaptiveSuperTrend(features.DefaultAdaptiveSuperTrendParams()),
	}
}

func (c *AdaptiveSuperTrendDirection) Slug() string { return "adaptive_supertrend_direction" }

func (c *AdaptiveSuperTrendDirection) Name() string { return "Adaptive SuperTrend Direction" }

func (c *AdaptiveSuperTrendDirection) Automatic() bool { return true }

func (c *AdaptiveSuperTrendDirection) Check(f *bars.Frame, direction types.Direction) (float64, error) {
	if err := c.feature.Add(f); err != nil {
		return NeutralScore, err
	}
	col, err := f.Column(c.feature.DirectionColumn())
	if err != nil {
		return NeutralScore, err
	}

	last := col[len(col)-1]
	if math.IsNaN(last) || (last != 0 && last != 1) {
		return NeutralScore, nil
	}

	trendUp := last == 1
	switch direction.Normalize() {
	case types.Long:
		if trendUp {
			return 1, nil
		}
		return 0, nil
	case types.Short:
		if trendUp {
			return 0, nil
		}
		return 1, nil
	default:
		return NeutralScore, nil
	}
}
