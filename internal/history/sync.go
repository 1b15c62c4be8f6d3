package history

import (
	"context"
	"log/slog"

	"alpharai/internal/interfaces"
)

// Syncer pulls closed trades from every enabled account's broker into the
// trade history table.
type Syncer struct {
	accounts interfaces.AccountRepo
	trades   interfaces.TradeHistoryRepo
	brokers  interfaces.BrokerFactory
	log      *slog.Logger
}

func NewSyncer(accounts interfaces.AccountRepo, trades interfaces.TradeHistoryRepo, brokers interfaces.BrokerFactory, log *slog.Logger) *Syncer {
	return &Syncer{accounts: accounts, trades: trades, brokers: brokers, log: log}
}

// SyncAll resyncs every enabled account. Per-account failures are logged
// and skipped so one dead broker does not stall the rest.
func (s *Syncer) SyncAll(ctx context.Context, days int) error {
	accounts, err := s.accounts.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if !account.Enabled {
			continue
		}
		if err := s.syncAccount(ctx, account.UID, days); err != nil {
			s.log.ErrorContext(ctx, "history sync failed for account",
				"account", account.UID, "error", err)
		}
	}
	return nil
}

func (s *Syncer) syncAccount(ctx context.Context, uid string, days int) error {
	account, err := s.accounts.GetByUID(ctx, uid)
	if err != nil {
		return err
	}
	broker, err := s.brokers.ClientFor(ctx, account)
	if err != nil {
		return err
	}
	records, err := broker.GetHistory(ctx, days)
	if err != nil {
		return err
	}

	upserted := 0
	for _, record := range records {
		if err := s.trades.Upsert(ctx, record); err != nil {
			s.log.ErrorContext(ctx, "history upsert failed",
				"account", uid, "position", record.PositionID, "error", err)
			continue
		}
		upserted++
	}
	s.log.InfoContext(ctx, "history synced",
		"account", uid, "fetched", len(records), "upserted", upserted)
	return nil
}
