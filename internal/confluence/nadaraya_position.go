package confluence

import (
	"math"

	"alpharai/internal/bars"
	"alpharai/internal/features"
	"alpharai/internal/types"
)

// NadarayaWatsonPosition scores by where the close sits inside the
// normalized envelope: near the lower bound favors LONG, near the upper
// bound favors SHORT. A collapsed envelope is neutral.
type NadarayaWatsonPosition struct {
	feature *features.NadarayaWatson
}

func NewNadarayaWatsonPosition() *NadarayaWatsonPosition {
	return &NadarayaWatsonPosition{feature: features.NewNadarayaWatson(8.0, 3.0, 500)}
}

func (c *NadarayaWatsonPosition) Slug() string { return "nadaraya_watson_position" }

func (c *NadarayaWatsonPosition) Name() string { return "Nadaraya-Watson Envelope Position" }

func (c *NadarayaWatsonPosition) Automatic() bool { return true }

func (c *NadarayaWatsonPosition) Check(f *bars.Frame, direction types.Direction) (float64, error) {
	if err := c.feature.Add(f); err != nil {
		return NeutralScore, err
	}
	if err := c.feature.Normalize(f); err != nil {
		return NeutralScore, err
	}

	upperCol, err := f.Column(c.feature.UpperColumn() + "_feature")
	if err != nil {
		return NeutralScore, err
	}
	lowerCol, err := f.Column(c.feature.LowerColumn() + "_feature")
	if err != nil {
		return NeutralScore, err
	}

	u := upperCol[len(upperCol)-1]
	l := lowerCol[len(lowerCol)-1]
	if math.IsNaN(u) || math.IsNaN(l) || u <= l {
		return NeutralScore, nil
	}

	// The normalized bounds are relative to close, so close itself sits at
	// zero; p is its position inside the envelope.
	p := (0 - l) / (u - l)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	switch direction.Normalize() {
	case types.Long:
		return 1 - p, nil
	case types.Short:
		return p, nil
	default:
		return NeutralScore, nil
	}
}
