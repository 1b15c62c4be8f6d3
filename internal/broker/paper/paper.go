// Package paper implements an in-memory broker for DRY_RUN mode. Orders
// are acknowledged immediately and recorded so the rest of the pipeline
// behaves exactly as it does against a live backend.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

type Broker struct {
	accountUID string
	balance    float64

	mu     sync.Mutex
	seq    int
	orders []types.OrderRequest
	trades []types.TradeRecord
}

var _ interfaces.BrokerClient = (*Broker)(nil)

func New(accountUID string, balance float64) *Broker {
	return &Broker{accountUID: accountUID, balance: balance}
}

func (b *Broker) OpenPosition(ctx context.Context, req types.OrderRequest) (types.OrderAck, error) {
	if req.Size <= 0 {
		return types.OrderAck{}, fmt.Errorf("%w: non-positive size %f", types.ErrBroker, req.Size)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.orders = append(b.orders, req)

	return types.OrderAck{
		OrderID: fmt.Sprintf("SIM-%s-%d", b.accountUID, b.seq),
		Status:  "SIMULATED",
		Message: "dry-run",
	}, nil
}

func (b *Broker) GetBalance(ctx context.Context) (float64, error) {
	return b.balance, nil
}

func (b *Broker) GetHistory(ctx context.Context, days int) ([]types.TradeRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	var out []types.TradeRecord
	for _, t := range b.trades {
		if t.ClosedAt.After(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (b *Broker) GetSymbols(ctx context.Context) ([]types.SymbolInfo, error) {
	return []types.SymbolInfo{
		{Name: "EURUSD", Digits: 5, ContractSize: 100000},
		{Name: "GBPUSD", Digits: 5, ContractSize: 100000},
		{Name: "XAUUSD", Digits: 2, ContractSize: 100},
		{Name: "BTCUSDT", Digits: 2, ContractSize: 1},
	}, nil
}

// RecordClose injects a closed trade, used to exercise the history sync
// in dry-run mode.
func (b *Broker) RecordClose(record types.TradeRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	record.AccountID = b.accountUID
	b.trades = append(b.trades, record)
}

// Orders returns a copy of every accepted order.
func (b *Broker) Orders() []types.OrderRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.OrderRequest, len(b.orders))
	copy(out, b.orders)
	return out
}
