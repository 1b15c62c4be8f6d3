// Package kite adapts the Zerodha Kite Connect API to the broker
// boundary.
package kite

import (
	"context"
	"fmt"
	"math"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

type Params struct {
	AccountUID  string
	APIKey      string
	AccessToken string
	Exchange    string
}

type Broker struct {
	p  Params
	kc *kiteconnect.Client
}

var _ interfaces.BrokerClient = (*Broker)(nil)

func New(p Params) (*Broker, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing kite credentials for %s", types.ErrBroker, p.AccountUID)
	}
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	return &Broker{p: p, kc: kc}, nil
}

func (b *Broker) OpenPosition(ctx context.Context, req types.OrderRequest) (types.OrderAck, error) {
	params := kiteconnect.OrderParams{
		Exchange:        b.p.Exchange,
		Tradingsymbol:   req.Symbol,
		Product:         kiteconnect.ProductMIS,
		Validity:        "DAY",
		OrderType:       kiteconnect.OrderTypeMarket,
		TransactionType: kiteconnect.TransactionTypeBuy,
		Quantity:        int(math.Round(req.Size)),
		Tag:             fmt.Sprintf("%d", req.Magic),
	}
	if req.Direction.Normalize() == types.Short {
		params.TransactionType = kiteconnect.TransactionTypeSell
	}
	if req.OrderType == types.OrderLimit {
		params.OrderType = kiteconnect.OrderTypeLimit
		params.Price = req.LimitLevel
	}
	if params.Quantity < 1 {
		return types.OrderAck{}, fmt.Errorf("%w: size %f rounds below one unit", types.ErrBroker, req.Size)
	}

	resp, err := b.kc.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		return types.OrderAck{}, fmt.Errorf("%w: placing order: %v", types.ErrBroker, err)
	}
	return types.OrderAck{OrderID: resp.OrderID, Status: "PLACED"}, nil
}

func (b *Broker) GetBalance(ctx context.Context) (float64, error) {
	margins, err := b.kc.GetUserMargins()
	if err != nil {
		return 0, fmt.Errorf("%w: fetching margins: %v", types.ErrBroker, err)
	}
	return margins.Equity.Net, nil
}

// GetHistory maps closed day positions onto trade records. Kite does not
// expose multi-day closed-trade history through this API, so resyncs only
// ever see the current session regardless of the requested range.
func (b *Broker) GetHistory(ctx context.Context, days int) ([]types.TradeRecord, error) {
	positions, err := b.kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("%w: fetching positions: %v", types.ErrBroker, err)
	}

	now := time.Now().UTC()
	var out []types.TradeRecord
	for _, pos := range positions.Day {
		if pos.Quantity != 0 {
			continue
		}
		direction := types.Long
		if pos.SellQuantity > pos.BuyQuantity {
			direction = types.Short
		}
		out = append(out, types.TradeRecord{
			AccountID:  b.p.AccountUID,
			PositionID: fmt.Sprintf("%s-%s", pos.Tradingsymbol, now.Format("2006-01-02")),
			Symbol:     pos.Tradingsymbol,
			Direction:  direction,
			Event:      types.EventTrade,
			Size:       math.Abs(float64(pos.BuyQuantity)),
			EntryPrice: pos.BuyPrice,
			ExitPrice:  pos.SellPrice,
			Profit:     pos.Realised,
			OpenedAt:   now,
			ClosedAt:   now,
		})
	}
	return out, nil
}

func (b *Broker) GetSymbols(ctx context.Context) ([]types.SymbolInfo, error) {
	instruments, err := b.kc.GetInstrumentsByExchange(b.p.Exchange)
	if err != nil {
		return nil, fmt.Errorf("%w: listing instruments: %v", types.ErrBroker, err)
	}

	out := make([]types.SymbolInfo, 0, len(instruments))
	for _, in := range instruments {
		out = append(out, types.SymbolInfo{
			Name:         in.Tradingsymbol,
			Digits:       digitsFromTick(in.TickSize),
			ContractSize: in.LotSize,
		})
	}
	return out, nil
}

// digitsFromTick infers price precision from the exchange tick size, e.g.
// 0.05 has two digits.
func digitsFromTick(tick float64) int {
	if tick <= 0 {
		return 2
	}
	d := int(math.Ceil(-math.Log10(tick) - 1e-9))
	if d < 0 {
		return 0
	}
	return d
}
