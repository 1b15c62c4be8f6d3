package interfaces

import (
	"context"

	"alpharai/internal/types"
)

// BrokerClient is the opaque brokerage boundary. Each call is independent
// and idempotent-on-retry at the broker layer.
type BrokerClient interface {
	OpenPosition(ctx context.Context, req types.OrderRequest) (types.OrderAck, error)
	GetBalance(ctx context.Context) (float64, error)
	GetHistory(ctx context.Context, days int) ([]types.TradeRecord, error)
	GetSymbols(ctx context.Context) ([]types.SymbolInfo, error)
}

// BrokerFactory resolves the broker client for one account.
type BrokerFactory interface {
	ClientFor(ctx context.Context, account types.Account) (BrokerClient, error)
}
