package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alpharai/internal/confluence"
	"alpharai/internal/types"
)

// ConfluenceConfigRepository persists per-(account, confluence) modifier
// configs.
type ConfluenceConfigRepository struct {
	db       *gorm.DB
	registry *confluence.Registry
}

func NewConfluenceConfigRepository(db *gorm.DB, registry *confluence.Registry) *ConfluenceConfigRepository {
	return &ConfluenceConfigRepository{db: db, registry: registry}
}

func (r *ConfluenceConfigRepository) GetByAccount(ctx context.Context, accountUID string) ([]types.ConfluenceConfig, error) {
	var configs []types.ConfluenceConfig
	err := r.db.WithContext(ctx).
		Where("account_uid = ?", accountUID).
		Order("confluence_id").
		Find(&configs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: listing confluence configs for %s: %v", types.ErrRepo, accountUID, err)
	}
	return configs, nil
}

func (r *ConfluenceConfigRepository) Upsert(ctx context.Context, config types.ConfluenceConfig) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&config).Error
	if err != nil {
		return fmt.Errorf("%w: upserting confluence config %s/%s: %v",
			types.ErrRepo, config.AccountUID, config.ConfluenceID, err)
	}
	return nil
}

func (r *ConfluenceConfigRepository) Delete(ctx context.Context, accountUID, confluenceID string) error {
	err := r.db.WithContext(ctx).
		Delete(&types.ConfluenceConfig{}, "account_uid = ? AND confluence_id = ?", accountUID, confluenceID).Error
	if err != nil {
		return fmt.Errorf("%w: deleting confluence config %s/%s: %v", types.ErrRepo, accountUID, confluenceID, err)
	}
	return nil
}

// SyncFromRegistry inserts a disabled default-band row for every registered
// confluence the account does not have yet.
func (r *ConfluenceConfigRepository) SyncFromRegistry(ctx context.Context, accountUID string) error {
	for _, slug := range r.registry.Slugs() {
		var existing types.ConfluenceConfig
		err := r.db.WithContext(ctx).
			First(&existing, "account_uid = ? AND confluence_id = ?", accountUID, slug).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: checking confluence config %s/%s: %v", types.ErrRepo, accountUID, slug, err)
		}
		row := types.ConfluenceConfig{
			AccountUID:            accountUID,
			ConfluenceID:          slug,
			MinValue:              confluence.DefaultMinValue,
			MaxValue:              confluence.DefaultMaxValue,
			EnabledTradeDirection: types.RuleDisabled,
		}
		if err := r.Upsert(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
