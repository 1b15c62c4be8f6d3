// Command history computes trade-history analytics over the persisted
// trade table and prints them as JSON rows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"alpharai/internal/history"
	"alpharai/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML config")
		metricName = flag.String("metric", "balance", "balance | expectancy | fees | profit_factor | sharpe | sortino")
		groupBy    = flag.String("group-by", "", "comma-separated dimensions: account,symbol,asset_type,direction,hour,weekday")
		window     = flag.Int("window", 30, "rolling window size in resolution steps")
		resolution = flag.String("resolution", "D", "D (daily) or H (hourly)")
		cumulative = flag.Bool("cumulative", false, "per-trade running totals instead of windowed rows (fees only)")
	)
	flag.Parse()

	if err := run(*configPath, *metricName, *groupBy, *window, *resolution, *cumulative); err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, metricName, groupBy string, window int, resolution string, cumulative bool) error {
	_ = godotenv.Load()

	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	db, err := store.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	trades, err := store.NewTradeHistoryRepository(db.DB()).ListAll(ctx)
	if err != nil {
		return err
	}
	if len(trades) == 0 {
		return fmt.Errorf("trade history is empty, run the relay with history sync first")
	}

	metric, err := buildMetric(metricName, cumulative)
	if err != nil {
		return err
	}
	dims, err := parseDimensions(groupBy)
	if err != nil {
		return err
	}

	rows, err := metric.Calculate(trades, dims, window, history.Resolution(resolution))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func buildMetric(name string, cumulative bool) (history.Metric, error) {
	switch name {
	case "balance":
		return history.NewBalanceOverTime(), nil
	case "expectancy":
		return history.NewExpectancyOverTime(), nil
	case "fees":
		return history.NewFeesOverTime(cumulative), nil
	case "profit_factor":
		return history.NewProfitFactorOverTime(), nil
	case "sharpe":
		return history.NewSharpeOverTime(), nil
	case "sortino":
		return history.NewSortinoOverTime(), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

func parseDimensions(raw string) ([]history.Dimension, error) {
	if raw == "" {
		return nil, nil
	}
	named := map[string]history.Dimension{
		"account":    history.ByAccount,
		"symbol":     history.BySymbol,
		"asset_type": history.ByAssetType,
		"direction":  history.ByDirection,
		"hour":       history.ByHour,
		"weekday":    history.ByWeekday,
	}
	var dims []history.Dimension
	for _, part := range strings.Split(raw, ",") {
		dim, ok := named[strings.TrimSpace(part)]
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q", part)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}
