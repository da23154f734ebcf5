// Package main runs one grid search over the configured observations and logs the
// best parameter sets.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/sentinel-tuner/internal/config"
	"github.com/aristath/sentinel-tuner/internal/di"
	"github.com/aristath/sentinel-tuner/internal/modules/optimization"
	"github.com/aristath/sentinel-tuner/pkg/logger"
)

func main() {
	var (
		gridPath = flag.String("grid", "", "YAML grid file (overrides GRID_PATH)")
		topN     = flag.Int("top", 0, "number of results to report (overrides TOP_N)")
		output   = flag.String("out", "", "write the full ranked result as JSON to this file")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *gridPath != "" {
		cfg.GridPath = *gridPath
	}
	if *topN > 0 {
		cfg.TopN = *topN
	}
	// One-shot runs never schedule.
	cfg.Schedule = ""

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	opts := container.SearchOptions
	opts.Progress = func(p optimization.Progress) {
		log.Info().
			Int("completed", p.Completed).
			Int("total", p.Total).
			Int("qualified", p.Qualified).
			Float64("best_sharpe", p.BestSharpe).
			Msg("Search progress")
	}

	result, err := container.Service.Search(ctx, container.Index, container.Grid, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Grid search failed")
	}

	log.Info().
		Int("evaluated", result.Evaluated).
		Int("qualified", result.Qualified).
		Int("filtered", result.Filtered).
		Str("elapsed", result.Elapsed.Round(time.Millisecond).String()).
		Msg("Search finished")

	for _, r := range result.Top(cfg.TopN) {
		log.Info().
			Int("rank", r.Rank).
			Float64("sharpe", r.Metrics.Sharpe).
			Float64("return_pct", r.Metrics.TotalReturnPct).
			Float64("max_drawdown_pct", r.Metrics.MaxDrawdownPct).
			Float64("win_rate_pct", r.Metrics.WinRatePct).
			Int("buys", r.Metrics.BuyCount).
			Int("sells", r.Metrics.SellCount).
			Interface("params", r.Params).
			Msg("Ranked parameter set")
	}

	best := result.Best()
	if best == nil {
		log.Warn().Msg("No parameter set met the minimum activity filter")
	} else {
		log.Info().
			Float64("sharpe", best.Metrics.Sharpe).
			Float64("final_value", best.Metrics.FinalValue).
			Interface("params", best.Params).
			Msg("Best parameter set")
	}

	if *output != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
		if err := os.WriteFile(*output, data, 0644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
		log.Info().Str("path", *output).Msg("Result written")
	}
}
