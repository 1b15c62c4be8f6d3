package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alpharai/internal/types"
)

// AccountRepository persists routable accounts.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetAll(ctx context.Context) ([]types.Account, error) {
	var accounts []types.Account
	if err := r.db.WithContext(ctx).Order("uid").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("%w: listing accounts: %v", types.ErrRepo, err)
	}
	return accounts, nil
}

func (r *AccountRepository) GetByUID(ctx context.Context, uid string) (types.Account, error) {
	var account types.Account
	if err := r.db.WithContext(ctx).First(&account, "uid = ?", uid).Error; err != nil {
		return types.Account{}, fmt.Errorf("%w: account %s: %v", types.ErrRepo, uid, err)
	}
	return account, nil
}

func (r *AccountRepository) Upsert(ctx context.Context, account types.Account) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&account).Error
	if err != nil {
		return fmt.Errorf("%w: upserting account %s: %v", types.ErrRepo, account.UID, err)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, uid string) error {
	if err := r.db.WithContext(ctx).Delete(&types.Account{}, "uid = ?", uid).Error; err != nil {
		return fmt.Errorf("%w: deleting account %s: %v", types.ErrRepo, uid, err)
	}
	return nil
}

func (r *AccountRepository) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	res := r.db.WithContext(ctx).
		Model(&types.Account{}).
		Where("uid = ?", uid).
		Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("%w: toggling account %s: %v", types.ErrRepo, uid, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s not found", types.ErrRepo, uid)
	}
	return nil
}
