package router

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"alpharai/internal/bars"
	"alpharai/internal/confluence"
	"alpharai/internal/interfaces"
	"alpharai/internal/sizing"
	"alpharai/internal/stagger"
	"alpharai/internal/types"
)

// barsPerRequest is how much history the confluence features receive; the
// pipeline needs at least bars.MinRows.
const barsPerRequest = bars.MinRows + 200

// Router fans one trade intent out to every enabled account with a matching
// config and submits the staggered legs. It is best-effort and
// partial-success: per-leg, per-account and per-confluence failures are
// isolated, only a malformed intent halts the whole operation.
type Router struct {
	accounts     interfaces.AccountRepo
	configs      interfaces.AccountConfigRepo
	confluences  interfaces.ConfluenceConfigRepo
	settings     interfaces.GeneralSettingsRepo
	brokers      interfaces.BrokerFactory
	barSource    interfaces.BarSource
	orchestrator *confluence.Orchestrator
	log          *slog.Logger
	now          func() time.Time
}

// Option customizes a Router.
type Option func(*Router)

// WithClock overrides the time source used for trade-window gating.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func New(
	accounts interfaces.AccountRepo,
	configs interfaces.AccountConfigRepo,
	confluences interfaces.ConfluenceConfigRepo,
	settings interfaces.GeneralSettingsRepo,
	brokers interfaces.BrokerFactory,
	barSource interfaces.BarSource,
	orchestrator *confluence.Orchestrator,
	log *slog.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		accounts:     accounts,
		configs:      configs,
		confluences:  confluences,
		settings:     settings,
		brokers:      brokers,
		barSource:    barSource,
		orchestrator: orchestrator,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route validates the intent, applies the weekly trade window, matches
// accounts and places the staggered legs for each match sequentially,
// earliest rung first.
func (r *Router) Route(ctx context.Context, intent types.TradeIntent) error {
	if err := validate(intent); err != nil {
		return err
	}

	if !insideTradeWindow(ctx, r.settings, r.now()) {
		r.log.InfoContext(ctx, "signal outside trade window, dropping",
			"symbol", intent.Symbol, "direction", intent.Direction)
		return nil
	}

	accounts, err := r.accounts.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading accounts: %v", types.ErrRepo, err)
	}

	direction := intent.Direction.Normalize()
	matched := 0
	for _, account := range accounts {
		if !account.Enabled {
			continue
		}
		config, ok := r.matchConfig(ctx, account, intent.Symbol)
		if !ok {
			continue
		}
		if !config.EnabledTradeDirection.Admits(direction) {
			r.log.DebugContext(ctx, "direction not admitted for account",
				"account", account.UID, "rule", config.EnabledTradeDirection, "direction", direction)
			continue
		}
		matched++
		if err := r.placeForAccount(ctx, account, config, intent); err != nil {
			// Failure in one account must not abort the others.
			r.log.ErrorContext(ctx, "trade placement failed for account",
				"account", account.UID, "symbol", intent.Symbol, "error", err)
		}
	}

	if matched == 0 {
		r.log.InfoContext(ctx, "no matching accounts for signal",
			"symbol", intent.Symbol, "direction", direction)
	}
	return nil
}

func validate(intent types.TradeIntent) error {
	if intent.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", types.ErrInvalidIntent)
	}
	switch intent.Direction.Normalize() {
	case types.Long, types.Short:
	case types.Neutral:
		return fmt.Errorf("%w: neutral direction is not routable", types.ErrInvalidIntent)
	default:
		return fmt.Errorf("%w: missing direction", types.ErrInvalidIntent)
	}
	if intent.Entry == intent.StopLoss {
		return fmt.Errorf("%w: entry equals stop loss", types.ErrInvalidIntent)
	}
	return nil
}

// matchConfig finds the account's config whose signal asset matches the
// intent symbol.
func (r *Router) matchConfig(ctx context.Context, account types.Account, symbol string) (types.AccountConfig, bool) {
	configs, err := r.configs.GetByAccount(ctx, account.UID)
	if err != nil {
		r.log.ErrorContext(ctx, "loading account configs failed",
			"account", account.UID, "error", err)
		return types.AccountConfig{}, false
	}
	for _, config := range configs {
		if config.SignalAssetID == symbol {
			return config, true
		}
	}
	return types.AccountConfig{}, false
}

// placeForAccount produces the price ladder, sizes each rung and submits
// the legs in ladder order.
func (r *Router) placeForAccount(ctx context.Context, account types.Account, config types.AccountConfig, intent types.TradeIntent) error {
	// The config may have been deleted or edited since matching; re-check
	// and skip gracefully.
	config, err := r.configs.Get(ctx, account.UID, config.PlatformAssetID)
	if err != nil {
		r.log.WarnContext(ctx, "config disappeared between match and use, skipping account",
			"account", account.UID, "asset", intent.Symbol)
		return nil
	}
	if config.NStaggers < 1 {
		return fmt.Errorf("config for %s/%s has n_staggers %d", account.UID, config.PlatformAssetID, config.NStaggers)
	}

	broker, err := r.brokers.ClientFor(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: resolving broker for %s: %v", types.ErrBroker, account.UID, err)
	}
	balance, err := broker.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetching balance for %s: %v", types.ErrBroker, account.UID, err)
	}

	direction := intent.Direction.Normalize()
	anchor := stagger.OffsetEntry(intent.Entry, intent.StopLoss, config.EntryOffset)
	prices, err := stagger.Prices(anchor, intent.StopLoss, config.NStaggers, config.EntryStaggerMethod)
	if err != nil {
		return fmt.Errorf("building price ladder: %w", err)
	}
	for i := range prices {
		prices[i] = roundTo(prices[i], config.DecimalPoints)
	}

	// The size modifier is computed once per routing decision and applied
	// uniformly to every rung.
	modifier := r.sizeModifier(ctx, account, intent, direction)
	magic := Magic(account.UID, config.PlatformAssetID)
	riskPerLeg := config.RiskPercent / float64(config.NStaggers)

	submitted := 0
	for i, price := range prices {
		lots, err := sizing.PositionSize(price, intent.StopLoss, riskPerLeg, balance,
			config.AssetType, config.DecimalPoints, config.LotSize)
		if err != nil {
			r.log.ErrorContext(ctx, "sizing leg failed",
				"account", account.UID, "leg", i, "error", err)
			continue
		}
		size := math.Round(lots*modifier*100) / 100

		req := types.OrderRequest{
			Symbol:     config.PlatformAssetID,
			OrderType:  types.OrderLimit,
			LimitLevel: price,
			Direction:  direction,
			Size:       size,
			StopLoss:   intent.StopLoss,
			TakeProfit: intent.TakeProfit1,
			Magic:      magic,
		}
		// The anchor rung goes straight to market; deeper rungs rest as
		// limit orders.
		if i == 0 {
			req.OrderType = types.OrderMarket
			req.LimitLevel = 0
		}

		ack, err := broker.OpenPosition(ctx, req)
		if err != nil {
			r.log.ErrorContext(ctx, "broker rejected leg, continuing",
				"account", account.UID, "leg", i, "price", price, "error", err)
			continue
		}
		submitted++
		r.log.InfoContext(ctx, "leg submitted",
			"account", account.UID,
			"symbol", config.PlatformAssetID,
			"leg", i,
			"price", price,
			"size", size,
			"magic", magic,
			"order_id", ack.OrderID,
		)
	}

	r.log.InfoContext(ctx, "trade placement finished",
		"account", account.UID,
		"symbol", config.PlatformAssetID,
		"legs_submitted", submitted,
		"legs_total", len(prices),
		"modifier", modifier,
	)
	return nil
}

// sizeModifier runs the confluence orchestrator over fresh bars. Missing
// configs, bar fetch failures and feature errors all degrade to the neutral
// modifier instead of blocking the trade.
func (r *Router) sizeModifier(ctx context.Context, account types.Account, intent types.TradeIntent, direction types.Direction) float64 {
	configs, err := r.confluences.GetByAccount(ctx, account.UID)
	if err != nil {
		r.log.WarnContext(ctx, "loading confluence configs failed, using neutral modifier",
			"account", account.UID, "error", err)
		return 1.0
	}
	if len(configs) == 0 {
		return 1.0
	}

	frame, err := r.barSource.RecentBars(ctx, intent.Symbol, intent.TimeframeMinutes, barsPerRequest)
	if err != nil {
		r.log.WarnContext(ctx, "bar fetch failed, using neutral modifier",
			"account", account.UID, "symbol", intent.Symbol, "error", err)
		return 1.0
	}

	return r.orchestrator.Modifier(ctx, frame, direction, configs)
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
