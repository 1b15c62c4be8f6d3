package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"alpharai/internal/types"
)

// Database wraps the GORM connection and hands out repositories.
type Database struct {
	db *gorm.DB
}

// DB exposes the underlying GORM handle for ad hoc queries.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect opens the Postgres connection through lib/pq, applies pool
// limits and runs migrations for the alpharai schema.
func Connect(cfg *Config) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, cfg.Database.User, cfg.Database.Password)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting gorm: %w", err)
	}

	if err := db.AutoMigrate(
		&types.Account{},
		&types.AccountConfig{},
		&types.ConfluenceConfig{},
		&types.TradeRecord{},
		&GeneralSetting{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
