package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"alpharai/internal/bars"
	"alpharai/internal/confluence"
	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

// --- in-memory fakes ---

type fakeAccounts struct{ accounts []types.Account }

func (f *fakeAccounts) GetAll(context.Context) ([]types.Account, error) { return f.accounts, nil }
func (f *fakeAccounts) GetByUID(_ context.Context, uid string) (types.Account, error) {
	for _, a := range f.accounts {
		if a.UID == uid {
			return a, nil
		}
	}
	return types.Account{}, errors.New("not found")
}
func (f *fakeAccounts) Upsert(context.Context, types.Account) error    { return nil }
func (f *fakeAccounts) Delete(context.Context, string) error           { return nil }
func (f *fakeAccounts) SetEnabled(context.Context, string, bool) error { return nil }

type fakeConfigs struct{ configs []types.AccountConfig }

func (f *fakeConfigs) GetByAccount(_ context.Context, uid string) ([]types.AccountConfig, error) {
	var out []types.AccountConfig
	for _, c := range f.configs {
		if c.AccountUID == uid {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeConfigs) Get(_ context.Context, uid, asset string) (types.AccountConfig, error) {
	for _, c := range f.configs {
		if c.AccountUID == uid && c.PlatformAssetID == asset {
			return c, nil
		}
	}
	return types.AccountConfig{}, errors.New("not found")
}
func (f *fakeConfigs) UpsertMany(context.Context, []types.AccountConfig) error { return nil }
func (f *fakeConfigs) Delete(context.Context, string, string) error            { return nil }
func (f *fakeConfigs) SyncFromBroker(context.Context, string) error            { return nil }

type fakeConfluences struct{ configs []types.ConfluenceConfig }

func (f *fakeConfluences) GetByAccount(_ context.Context, uid string) ([]types.ConfluenceConfig, error) {
	var out []types.ConfluenceConfig
	for _, c := range f.configs {
		if c.AccountUID == uid {
			out = append(out, c)
		}
	}
	return out, nil
}
func (f *fakeConfluences) Upsert(context.Context, types.ConfluenceConfig) error { return nil }
func (f *fakeConfluences) Delete(context.Context, string, string) error         { return nil }
func (f *fakeConfluences) SyncFromRegistry(context.Context, string) error       { return nil }

type fakeSettings struct{ values map[string]string }

func (f *fakeSettings) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", errors.New("unset")
	}
	return v, nil
}
func (f *fakeSettings) Set(_ context.Context, key, value string) error {
	f.values[key] = value
	return nil
}

type fakeBroker struct {
	balance  float64
	requests []types.OrderRequest
	failLegs map[int]bool
}

func (f *fakeBroker) OpenPosition(_ context.Context, req types.OrderRequest) (types.OrderAck, error) {
	if f.failLegs[len(f.requests)] {
		f.requests = append(f.requests, req)
		return types.OrderAck{}, errors.New("rejected")
	}
	f.requests = append(f.requests, req)
	return types.OrderAck{OrderID: fmt.Sprintf("ord-%d", len(f.requests)), Status: "OPEN"}, nil
}
func (f *fakeBroker) GetBalance(context.Context) (float64, error) { return f.balance, nil }
func (f *fakeBroker) GetHistory(context.Context, int) ([]types.TradeRecord, error) {
	return nil, nil
}
func (f *fakeBroker) GetSymbols(context.Context) ([]types.SymbolInfo, error) { return nil, nil }

type fakeFactory struct{ brokers map[string]*fakeBroker }

func (f *fakeFactory) ClientFor(_ context.Context, account types.Account) (interfaces.BrokerClient, error) {
	b, ok := f.brokers[account.UID]
	if !ok {
		return nil, errors.New("no broker")
	}
	return b, nil
}

type fakeBarSource struct{ frame *bars.Frame }

func (f *fakeBarSource) RecentBars(context.Context, string, int, int) (*bars.Frame, error) {
	if f.frame == nil {
		return nil, errors.New("no bars")
	}
	return f.frame, nil
}

// --- helpers ---

func eurusdConfig(uid string, rule types.TradeDirectionRule, staggers int) types.AccountConfig {
	return types.AccountConfig{
		AccountUID:            uid,
		PlatformAssetID:       "EURUSD.pro",
		SignalAssetID:         "EURUSD",
		EntryStaggerMethod:    types.StaggerLinear,
		NStaggers:             staggers,
		RiskPercent:           1.0,
		DecimalPoints:         5,
		LotSize:               100000,
		AssetType:             types.AssetForex,
		EnabledTradeDirection: rule,
	}
}

func shortIntent() types.TradeIntent {
	return types.TradeIntent{
		Symbol:           "EURUSD",
		Direction:        types.Short,
		TimeframeMinutes: 15,
		Entry:            1.2500,
		StopLoss:         1.2550,
		TakeProfit1:      1.2400,
	}
}

func newTestRouter(accounts *fakeAccounts, configs *fakeConfigs, confls *fakeConfluences, factory *fakeFactory, source *fakeBarSource) *Router {
	orch := confluence.NewOrchestrator(confluence.DefaultRegistry(), slog.Default())
	return New(accounts, configs, confls, &fakeSettings{values: map[string]string{}},
		factory, source, orch, slog.Default())
}

// --- tests ---

func TestRouteFanOutRespectsGatingAndEnabled(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{
		{UID: "accountA", Enabled: true},
		{UID: "accountB", Enabled: true},
		{UID: "accountC", Enabled: false},
	}}
	configs := &fakeConfigs{configs: []types.AccountConfig{
		eurusdConfig("accountA", types.RuleBoth, 3),
		eurusdConfig("accountB", types.RuleLong, 2),
		eurusdConfig("accountC", types.RuleBoth, 2),
	}}
	brokers := map[string]*fakeBroker{
		"accountA": {balance: 10000},
		"accountB": {balance: 10000},
		"accountC": {balance: 10000},
	}
	r := newTestRouter(accounts, configs, &fakeConfluences{}, &fakeFactory{brokers: brokers}, &fakeBarSource{})

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}

	if got := len(brokers["accountA"].requests); got != 3 {
		t.Errorf("account A should receive n_staggers legs, got %d", got)
	}
	if got := len(brokers["accountB"].requests); got != 0 {
		t.Errorf("LONG-only account B should receive no SHORT legs, got %d", got)
	}
	if got := len(brokers["accountC"].requests); got != 0 {
		t.Errorf("disabled account C should receive no legs, got %d", got)
	}

	// All legs of one intent share the same magic and broker-side symbol.
	magic := brokers["accountA"].requests[0].Magic
	for i, req := range brokers["accountA"].requests {
		if req.Magic != magic {
			t.Errorf("leg %d magic %d differs from %d", i, req.Magic, magic)
		}
		if req.Symbol != "EURUSD.pro" {
			t.Errorf("leg %d symbol %q is not the platform asset", i, req.Symbol)
		}
		if req.Direction != types.Short {
			t.Errorf("leg %d direction %s", i, req.Direction)
		}
	}
	if magic != Magic("accountA", "EURUSD.pro") {
		t.Error("magic tag is not the deterministic account/asset hash")
	}
}

func TestRouteLadderOrderAndOrderTypes(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	configs := &fakeConfigs{configs: []types.AccountConfig{eurusdConfig("accountA", types.RuleBoth, 4)}}
	broker := &fakeBroker{balance: 10000}
	r := newTestRouter(accounts, configs, &fakeConfluences{}, &fakeFactory{brokers: map[string]*fakeBroker{"accountA": broker}}, &fakeBarSource{})

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(broker.requests) != 4 {
		t.Fatalf("expected 4 legs, got %d", len(broker.requests))
	}
	if broker.requests[0].OrderType != types.OrderMarket {
		t.Error("anchor rung should be a market order")
	}
	// SHORT with stop above entry: rungs walk upward toward the stop.
	prev := shortIntent().Entry
	for i := 1; i < len(broker.requests); i++ {
		req := broker.requests[i]
		if req.OrderType != types.OrderLimit {
			t.Errorf("leg %d should be a limit order", i)
		}
		if req.LimitLevel < prev {
			t.Errorf("leg %d price %f moved away from the stop", i, req.LimitLevel)
		}
		prev = req.LimitLevel
	}
}

func TestRouteRejectsInvalidIntents(t *testing.T) {
	r := newTestRouter(&fakeAccounts{}, &fakeConfigs{}, &fakeConfluences{}, &fakeFactory{}, &fakeBarSource{})

	cases := []types.TradeIntent{
		{Symbol: "", Direction: types.Long, Entry: 1, StopLoss: 2},
		{Symbol: "EURUSD", Direction: types.Neutral, Entry: 1, StopLoss: 2},
		{Symbol: "EURUSD", Direction: "", Entry: 1, StopLoss: 2},
		{Symbol: "EURUSD", Direction: types.Long, Entry: 1.5, StopLoss: 1.5},
	}
	for i, intent := range cases {
		err := r.Route(context.Background(), intent)
		if !errors.Is(err, types.ErrInvalidIntent) {
			t.Errorf("case %d: expected ErrInvalidIntent, got %v", i, err)
		}
	}
}

func TestRouteNoMatchingAccountsIsNonFatal(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	r := newTestRouter(accounts, &fakeConfigs{}, &fakeConfluences{}, &fakeFactory{}, &fakeBarSource{})
	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Errorf("empty fan-out must not be an error, got %v", err)
	}
}

func TestRouteBrokerFailureIsolatedPerLeg(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	configs := &fakeConfigs{configs: []types.AccountConfig{eurusdConfig("accountA", types.RuleBoth, 3)}}
	broker := &fakeBroker{balance: 10000, failLegs: map[int]bool{1: true}}
	r := newTestRouter(accounts, configs, &fakeConfluences{}, &fakeFactory{brokers: map[string]*fakeBroker{"accountA": broker}}, &fakeBarSource{})

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	// Leg 1 is rejected but legs 0 and 2 still go out.
	if len(broker.requests) != 3 {
		t.Errorf("expected all 3 legs attempted, got %d", len(broker.requests))
	}
}

func TestRouteDropsOutsideTradeWindow(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	configs := &fakeConfigs{configs: []types.AccountConfig{eurusdConfig("accountA", types.RuleBoth, 1)}}
	broker := &fakeBroker{balance: 10000}
	orch := confluence.NewOrchestrator(confluence.DefaultRegistry(), slog.Default())

	// Window covers Monday 08:00-17:00; the clock reads Saturday.
	settings := &fakeSettings{values: map[string]string{
		interfaces.SettingTradeWindowStart: "480",
		interfaces.SettingTradeWindowEnd:   "1020",
	}}
	saturday := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	r := New(accounts, configs, &fakeConfluences{}, settings,
		&fakeFactory{brokers: map[string]*fakeBroker{"accountA": broker}},
		&fakeBarSource{}, orch, slog.Default(),
		WithClock(func() time.Time { return saturday }))

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(broker.requests) != 0 {
		t.Errorf("signal outside window should not place legs, got %d", len(broker.requests))
	}
}

func TestRouteConfluenceModifierApplied(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	configs := &fakeConfigs{configs: []types.AccountConfig{eurusdConfig("accountA", types.RuleBoth, 1)}}
	broker := &fakeBroker{balance: 10000}
	confls := &fakeConfluences{configs: []types.ConfluenceConfig{{
		AccountUID:            "accountA",
		ConfluenceID:          "adaptive_supertrend_direction",
		MinValue:              0.5,
		MaxValue:              0.5, // degenerate band pins the modifier to 0.5
		EnabledTradeDirection: types.RuleBoth,
	}}}

	source := &fakeBarSource{frame: trendFrame(t, 1100)}
	r := newTestRouter(accounts, configs, confls, &fakeFactory{brokers: map[string]*fakeBroker{"accountA": broker}}, source)

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(broker.requests) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(broker.requests))
	}
	// Unmodified sizing for this intent is 0.2 lots; the pinned 0.5
	// modifier halves it.
	if got := broker.requests[0].Size; got != 0.1 {
		t.Errorf("expected modifier-scaled size 0.1, got %f", got)
	}
}

func TestRouteBarFetchFailureIsNeutral(t *testing.T) {
	accounts := &fakeAccounts{accounts: []types.Account{{UID: "accountA", Enabled: true}}}
	configs := &fakeConfigs{configs: []types.AccountConfig{eurusdConfig("accountA", types.RuleBoth, 1)}}
	broker := &fakeBroker{balance: 10000}
	confls := &fakeConfluences{configs: []types.ConfluenceConfig{{
		AccountUID:            "accountA",
		ConfluenceID:          "adaptive_supertrend_direction",
		EnabledTradeDirection: types.RuleBoth,
	}}}

	r := newTestRouter(accounts, configs, confls, &fakeFactory{brokers: map[string]*fakeBroker{"accountA": broker}}, &fakeBarSource{frame: nil})

	if err := r.Route(context.Background(), shortIntent()); err != nil {
		t.Fatalf("route failed: %v", err)
	}
	if len(broker.requests) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(broker.requests))
	}
	if got := broker.requests[0].Size; got != 0.2 {
		t.Errorf("neutral modifier should leave sizing unchanged at 0.2, got %f", got)
	}
}

func trendFrame(t *testing.T, n int) *bars.Frame {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]bars.Bar, n)
	for i := range series {
		base := 100 + 0.05*float64(i)
		series[i] = bars.Bar{
			Date: start.Add(time.Duration(i) * 15 * time.Minute),
			Open: base, High: base + 0.4, Low: base - 0.4, Close: base, Volume: 100,
		}
	}
	f, err := bars.New(series)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	return f
}
