// Package brokerobs wraps a broker client with logging and tracing.
package brokerobs

import (
	"context"

	"alpharai/internal/interfaces"
	"alpharai/internal/logger"
	"alpharai/internal/trace"
	"alpharai/internal/types"
)

type observableBroker struct {
	accountUID string
	broker     interfaces.BrokerClient
}

var _ interfaces.BrokerClient = (*observableBroker)(nil)

// Wrap adds observability middleware around a broker client.
func Wrap(accountUID string, broker interfaces.BrokerClient) interfaces.BrokerClient {
	return &observableBroker{accountUID: accountUID, broker: broker}
}

func (ob *observableBroker) OpenPosition(ctx context.Context, req types.OrderRequest) (types.OrderAck, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OpenPosition")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"account", ob.accountUID,
		"symbol", req.Symbol,
		"direction", req.Direction,
		"size", req.Size,
		"type", req.OrderType,
		"magic", req.Magic,
	)

	ack, err := ob.broker.OpenPosition(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"account", ob.accountUID,
			"symbol", req.Symbol,
			"direction", req.Direction,
			"size", req.Size,
		)
		return types.OrderAck{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"account", ob.accountUID,
		"symbol", req.Symbol,
		"order_id", ack.OrderID,
		"status", ack.Status,
	)
	return ack, nil
}

func (ob *observableBroker) GetBalance(ctx context.Context) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetBalance")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching balance", "account", ob.accountUID)

	balance, err := ob.broker.GetBalance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err, "account", ob.accountUID)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched successfully", "account", ob.accountUID, "balance", balance)
	return balance, nil
}

func (ob *observableBroker) GetHistory(ctx context.Context, days int) ([]types.TradeRecord, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetHistory")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching trade history", "account", ob.accountUID, "days", days)

	records, err := ob.broker.GetHistory(ctx, days)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch trade history", err, "account", ob.accountUID, "days", days)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Trade history fetched successfully", "account", ob.accountUID, "count", len(records))
	return records, nil
}

func (ob *observableBroker) GetSymbols(ctx context.Context) ([]types.SymbolInfo, error) {
	ctx, span := trace.StartSpan(ctx, "broker.GetSymbols")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching symbols", "account", ob.accountUID)

	symbols, err := ob.broker.GetSymbols(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch symbols", err, "account", ob.accountUID)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Symbols fetched successfully", "account", ob.accountUID, "count", len(symbols))
	return symbols, nil
}
