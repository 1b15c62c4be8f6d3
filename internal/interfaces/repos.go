package interfaces

import (
	"context"

	"alpharai/internal/types"
)

// AccountRepo stores routable accounts. Read-only inside the router's
// critical path; writes come from the admin surface.
type AccountRepo interface {
	GetAll(ctx context.Context) ([]types.Account, error)
	GetByUID(ctx context.Context, uid string) (types.Account, error)
	Upsert(ctx context.Context, account types.Account) error
	Delete(ctx context.Context, uid string) error
	SetEnabled(ctx context.Context, uid string, enabled bool) error
}

// AccountConfigRepo stores per-(account, asset) routing configs.
type AccountConfigRepo interface {
	GetByAccount(ctx context.Context, accountUID string) ([]types.AccountConfig, error)
	Get(ctx context.Context, accountUID, platformAssetID string) (types.AccountConfig, error)
	UpsertMany(ctx context.Context, configs []types.AccountConfig) error
	Delete(ctx context.Context, accountUID, platformAssetID string) error
	SyncFromBroker(ctx context.Context, accountUID string) error
}

// ConfluenceConfigRepo stores per-(account, confluence) modifier configs.
type ConfluenceConfigRepo interface {
	GetByAccount(ctx context.Context, accountUID string) ([]types.ConfluenceConfig, error)
	Upsert(ctx context.Context, config types.ConfluenceConfig) error
	Delete(ctx context.Context, accountUID, confluenceID string) error
	SyncFromRegistry(ctx context.Context, accountUID string) error
}

// TradeHistoryRepo stores closed trades for the analytics surface.
type TradeHistoryRepo interface {
	ListAll(ctx context.Context) ([]types.TradeRecord, error)
	Upsert(ctx context.Context, record types.TradeRecord) error
	Truncate(ctx context.Context) error
}

// Recognized general-settings keys.
const (
	SettingPolygonAPIKey    = "POLYGON_API_KEY"
	SettingTradeWindowStart = "trade_window_start"
	SettingTradeWindowEnd   = "trade_window_end"
)

// GeneralSettingsRepo is a small key/value store. Trade window values are
// minutes since Monday 00:00 UTC.
type GeneralSettingsRepo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
