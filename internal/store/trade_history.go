package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"alpharai/internal/types"
)

// TradeHistoryRepository persists closed trades and balance events for the
// analytics surface.
type TradeHistoryRepository struct {
	db *gorm.DB
}

func NewTradeHistoryRepository(db *gorm.DB) *TradeHistoryRepository {
	return &TradeHistoryRepository{db: db}
}

func (r *TradeHistoryRepository) ListAll(ctx context.Context) ([]types.TradeRecord, error) {
	var records []types.TradeRecord
	if err := r.db.WithContext(ctx).Order("closed_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("%w: listing trade history: %v", types.ErrRepo, err)
	}
	return records, nil
}

// Upsert matches on (account, position, order) so a broker resync can
// replay overlapping windows without duplicating rows.
func (r *TradeHistoryRepository) Upsert(ctx context.Context, record types.TradeRecord) error {
	var existing types.TradeRecord
	err := r.db.WithContext(ctx).
		First(&existing, "account_id = ? AND position_id = ? AND \"order\" = ?",
			record.AccountID, record.PositionID, record.Order).Error
	switch {
	case err == nil:
		record.ID = existing.ID
		if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
			return fmt.Errorf("%w: updating trade %s/%s: %v", types.ErrRepo, record.AccountID, record.PositionID, err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return fmt.Errorf("%w: inserting trade %s/%s: %v", types.ErrRepo, record.AccountID, record.PositionID, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: looking up trade %s/%s: %v", types.ErrRepo, record.AccountID, record.PositionID, err)
	}
}

func (r *TradeHistoryRepository) Truncate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&types.TradeRecord{}).Error; err != nil {
		return fmt.Errorf("%w: truncating trade history: %v", types.ErrRepo, err)
	}
	return nil
}
