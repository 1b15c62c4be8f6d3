package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"alpharai/internal/bardata"
	"alpharai/internal/broker"
	"alpharai/internal/confluence"
	"alpharai/internal/history"
	"alpharai/internal/interfaces"
	"alpharai/internal/logger"
	"alpharai/internal/relay"
	"alpharai/internal/router"
	"alpharai/internal/store"
	"alpharai/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	logger.Init()
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New("relay")
	log.Info("starting", "mode", cfg.Mode)
	if cfg.Mode == "DRY_RUN" {
		log.Info("orders will be simulated, no broker calls leave this process")
	}

	db, err := store.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	registry := confluence.DefaultRegistry()
	factory := broker.NewFactory(cfg.Mode)

	accounts := store.NewAccountRepository(db.DB())
	accountConfigs := store.NewAccountConfigRepository(db.DB(), accounts, factory)
	confluenceConfigs := store.NewConfluenceConfigRepository(db.DB(), registry)
	tradeHistory := store.NewTradeHistoryRepository(db.DB())
	settings := store.NewGeneralSettingsRepository(db.DB())

	barSource := buildBarSource(cfg, settings)
	orchestrator := confluence.NewOrchestrator(registry, logger.New("confluence"))

	rtr := router.New(accounts, accountConfigs, confluenceConfigs, settings,
		factory, barSource, orchestrator, logger.New("router"))
	core := relay.New(rtr, logger.New("relay"))

	errCh := make(chan error, 2)

	if cfg.Telegram.Enabled {
		token := os.Getenv("TELEGRAM_BOT_TOKEN")
		if token == "" {
			return fmt.Errorf("telegram source enabled but TELEGRAM_BOT_TOKEN is unset")
		}
		source, err := relay.NewTelegramSource(token, cfg.Telegram.AllowedChats, core, logger.New("telegram"))
		if err != nil {
			return fmt.Errorf("starting telegram source: %w", err)
		}
		go func() { errCh <- source.Run(ctx) }()
	}

	if cfg.Webhook.Enabled {
		source := relay.NewWebhookSource(cfg.Webhook.Addr, cfg.Webhook.Path, core, logger.New("webhook"))
		go func() { errCh <- source.Run(ctx) }()
	}

	syncer := history.NewSyncer(accounts, tradeHistory, factory, logger.New("history"))
	go runHistorySync(ctx, syncer, cfg.HistorySyncDays)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			stop()
			return fmt.Errorf("signal source failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		log.Warn("tracer shutdown failed", "error", err)
	}
	return nil
}

func buildBarSource(cfg *store.Config, settings interfaces.GeneralSettingsRepo) interfaces.BarSource {
	source := interfaces.BarSource(bardata.NewPolygonSource(cfg.Bars.BaseURL, settings, logger.New("bardata")))
	if cfg.Redis.Host == "" {
		return source
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})
	ttl := time.Duration(cfg.Bars.CacheSeconds) * time.Second
	return bardata.NewCachedSource(source, client, ttl, logger.New("bardata"))
}

func runHistorySync(ctx context.Context, syncer *history.Syncer, days int) {
	tick := time.NewTicker(time.Hour)
	defer tick.Stop()

	if err := syncer.SyncAll(ctx, days); err != nil {
		logger.ErrorWithErr(ctx, "Initial history sync failed", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := syncer.SyncAll(ctx, days); err != nil {
				logger.ErrorWithErr(ctx, "History sync failed", err)
			}
		}
	}
}
