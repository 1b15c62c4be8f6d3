package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alpharai/internal/history"
	"alpharai/internal/interfaces"
	"alpharai/internal/types"
)

// AccountConfigRepository persists per-(account, asset) routing configs.
// SyncFromBroker needs the broker factory and the account table to seed
// configs from the symbol universe a broker actually offers.
type AccountConfigRepository struct {
	db       *gorm.DB
	accounts interfaces.AccountRepo
	brokers  interfaces.BrokerFactory
}

func NewAccountConfigRepository(db *gorm.DB, accounts interfaces.AccountRepo, brokers interfaces.BrokerFactory) *AccountConfigRepository {
	return &AccountConfigRepository{db: db, accounts: accounts, brokers: brokers}
}

func (r *AccountConfigRepository) GetByAccount(ctx context.Context, accountUID string) ([]types.AccountConfig, error) {
	var configs []types.AccountConfig
	err := r.db.WithContext(ctx).
		Where("account_uid = ?", accountUID).
		Order("platform_asset_id").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing configs for %s: %v", types.ErrRepo, accountUID, err)
	}
	return configs, nil
}

func (r *AccountConfigRepository) Get(ctx context.Context, accountUID, platformAssetID string) (types.AccountConfig, error) {
	var config types.AccountConfig
	err := r.db.WithContext(ctx).
		First(&config, "account_uid = ? AND platform_asset_id = ?", accountUID, platformAssetID).Error
	if err != nil {
		return types.AccountConfig{}, fmt.Errorf("%w: config %s/%s: %v", types.ErrRepo, accountUID, platformAssetID, err)
	}
	return config, nil
}

func (r *AccountConfigRepository) UpsertMany(ctx context.Context, configs []types.AccountConfig) error {
	if len(configs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&configs).Error
	if err != nil {
		return fmt.Errorf("%w: upserting %d configs: %v", types.ErrRepo, len(configs), err)
	}
	return nil
}

func (r *AccountConfigRepository) Delete(ctx context.Context, accountUID, platformAssetID string) error {
	err := r.db.WithContext(ctx).
		Delete(&types.AccountConfig{}, "account_uid = ? AND platform_asset_id = ?", accountUID, platformAssetID).Error
	if err != nil {
		return fmt.Errorf("%w: deleting config %s/%s: %v", types.ErrRepo, accountUID, platformAssetID, err)
	}
	return nil
}

// SyncFromBroker seeds a disabled default config for every broker symbol
// the account does not have a config for yet. Existing rows are left
// untouched so operator edits survive a resync.
func (r *AccountConfigRepository) SyncFromBroker(ctx context.Context, accountUID string) error {
	account, err := r.accounts.GetByUID(ctx, accountUID)
	if err != nil {
		return err
	}
	broker, err := r.brokers.ClientFor(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: resolving broker for %s: %v", types.ErrBroker, accountUID, err)
	}
	symbols, err := broker.GetSymbols(ctx)
	if err != nil {
		return fmt.Errorf("%w: listing symbols for %s: %v", types.ErrBroker, accountUID, err)
	}

	var inserted []types.AccountConfig
	for _, sym := range symbols {
		_, err := r.Get(ctx, accountUID, sym.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrRepo) {
			return err
		}
		inserted = append(inserted, types.AccountConfig{
			AccountUID:            accountUID,
			PlatformAssetID:       sym.Name,
			SignalAssetID:         sym.Name,
			EntryStaggerMethod:    types.StaggerNone,
			NStaggers:             1,
			RiskPercent:           1.0,
			DecimalPoints:         sym.Digits,
			LotSize:               sym.ContractSize,
			AssetType:             history.ClassifyAsset(sym.Name),
			EnabledTradeDirection: types.RuleDisabled,
		})
	}
	return r.UpsertMany(ctx, inserted)
}
