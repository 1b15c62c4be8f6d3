package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alpharai/internal/types"
)

// GeneralSetting is one row of the key/value settings table.
type GeneralSetting struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string
}

// GeneralSettingsRepository persists operator settings such as the weekly
// trade window.
type GeneralSettingsRepository struct {
	db *gorm.DB
}

func NewGeneralSettingsRepository(db *gorm.DB) *GeneralSettingsRepository {
	return &GeneralSettingsRepository{db: db}
}

func (r *GeneralSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var setting GeneralSetting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return "", fmt.Errorf("%w: setting %s: %v", types.ErrRepo, key, err)
	}
	return setting.Value, nil
}

func (r *GeneralSettingsRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&GeneralSetting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("%w: setting %s: %v", types.ErrRepo, key, err)
	}
	return nil
}
