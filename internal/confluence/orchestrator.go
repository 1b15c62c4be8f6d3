package confluence

import (
	"context"
	"log/slog"

	"alpharai/internal/bars"
	"alpharai/internal/types"
)

// Orchestrator aggregates the configured confluences for one account into a
// single multiplicative size modifier. The modifier is computed once per
// routing decision and applied uniformly to every ladder rung.
type Orchestrator struct {
	registry *Registry
	log      *slog.Logger
}

func NewOrchestrator(registry *Registry, log *slog.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, log: log}
}

// Modifier multiplies the normalized output of every confluence enabled for
// the intent direction. Disabled or unknown confluences contribute 1.0;
// feature failures score neutral rather than aborting.
func (o *Orchestrator) Modifier(ctx context.Context, f *bars.Frame, direction types.Direction, configs []types.ConfluenceConfig) float64 {
	product := 1.0
	for _, cfg := range configs {
		product *= o.single(ctx, f, direction, cfg)
	}
	return product
}

func (o *Orchestrator) single(ctx context.Context, f *bars.Frame, direction types.Direction, cfg types.ConfluenceConfig) float64 {
	if !cfg.EnabledTradeDirection.Admits(direction) {
		return 1.0
	}

	conf, ok := o.registry.Build(cfg.ConfluenceID)
	if !ok {
		o.log.WarnContext(ctx, "unknown confluence in config, contributing neutral",
			"confluence", cfg.ConfluenceID, "account", cfg.AccountUID)
		return 1.0
	}

	lo, hi := cfg.MinValue, cfg.MaxValue
	if lo == 0 && hi == 0 {
		lo, hi = DefaultMinValue, DefaultMaxValue
	}

	score, err := conf.Check(f, direction)
	if err != nil {
		o.log.WarnContext(ctx, "confluence check failed, scoring neutral",
			"confluence", cfg.ConfluenceID, "account", cfg.AccountUID, "error", err)
		score = NeutralScore
	}

	modifier := Normalize(score, lo, hi)
	o.log.DebugContext(ctx, "confluence scored",
		"confluence", cfg.ConfluenceID,
		"account", cfg.AccountUID,
		"score", score,
		"modifier", modifier,
	)
	return modifier
}
