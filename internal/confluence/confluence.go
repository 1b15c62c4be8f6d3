package confluence

import (
	"sort"

	"alpharai/internal/bars"
	"alpharai/internal/types"
)

// Confluence is one indicator-derived agreement signal. Check returns a
// score in [0, 1] expressing agreement with the intended direction, with
// 0.5 as the neutral/unknown score. Implementations run their own feature
// dependencies on the frame; a feature precondition failure surfaces as an
// error and is treated as neutral by the orchestrator, never as a routing
// abort.
type Confluence interface {
	Slug() string
	Name() string
	Automatic() bool
	Check(f *bars.Frame, direction types.Direction) (float64, error)
}

// NeutralScore is the unknown/neutral score.
const NeutralScore = 0.5

// Normalize maps a score in [0, 1] onto the configured modifier band:
// lo + (hi − lo) · score.
func Normalize(score, lo, hi float64) float64 {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	return lo + (hi-lo)*score
}

// DefaultMinValue and DefaultMaxValue bound the modifier when a config
// carries no explicit range.
const (
	DefaultMinValue = 0.9
	DefaultMaxValue = 1.1
)

// Registry maps confluence slugs to constructors.
type Registry struct {
	builders map[string]func() Confluence
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]func() Confluence{}}
}

func (r *Registry) Register(slug string, build func() Confluence) {
	r.builders[slug] = build
}

func (r *Registry) Build(slug string) (Confluence, bool) {
	b, ok := r.builders[slug]
	if !ok {
		return nil, false
	}
	return b(), true
}

func (r *Registry) Slugs() []string {
	out := make([]string, 0, len(r.builders))
	for slug := range r.builders {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry registers all built-in confluences.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("adaptive_supertrend_direction", func() Confluence {
		return NewAdaptiveSuperTrendDirection()
	})
	r.Register("nadaraya_watson_position", func() Confluence {
		return NewNadarayaWatsonPosition()
	})
	return r
}
