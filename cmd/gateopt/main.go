package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/estuarine/gateopt/internal/config"
	"github.com/estuarine/gateopt/internal/domain/catalog"
	"github.com/estuarine/gateopt/internal/domain/run"
	"github.com/estuarine/gateopt/internal/domain/session"
	"github.com/estuarine/gateopt/internal/history"
	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/source/fixture"
	"github.com/estuarine/gateopt/internal/source/httpsource"
)

const budgetSweepCount = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	var src source.Source
	project := cfg.Project
	if cfg.Fixture {
		src = fixture.New()
		if project == "" {
			project = fixture.ProjectName
		}
		logger.Info("using fixture source", "project", project)
	} else {
		src = httpsource.New(cfg.Server.URL, cfg.Server.Prefix,
			time.Duration(cfg.Server.TimeoutSeconds)*time.Second, logger)
		logger.Info("using live source", "url", cfg.Server.URL, "project", project)
	}
	if project == "" {
		fmt.Fprintln(os.Stderr, "no project configured: set GATEOPT_PROJECT or the project config key")
		os.Exit(1)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Error("failed to open run log", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sess := session.New(src, logger, session.Options{
		Run: run.Options{
			Workers:     cfg.Run.Workers,
			WeightTotal: cfg.Run.WeightTotal,
		},
		History: store,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := sess.Initialize(ctx, project)
	if err != nil {
		logger.Error("initialization failed", "project", project, "error", err)
		os.Exit(1)
	}

	req := buildRequest(cat, cfg.Demo)
	result, err := sess.RunOptimization(ctx, req)
	if err != nil {
		logger.Error("optimization failed", "error", err)
		os.Exit(1)
	}

	printResult(cat, result)
}

// buildRequest assembles a basic-mode sweep from the demo defaults, falling
// back to every region and target with equal weights and a sweep up to the
// project's total barrier cost.
func buildRequest(cat *catalog.Catalog, demo config.DemoConfig) run.Request {
	regions := demo.Regions
	if len(regions) == 0 {
		regions = cat.RegionNames()
	}

	targets := demo.Targets
	if len(targets) == 0 {
		for _, target := range cat.Targets() {
			targets = append(targets, target.Abbrev)
		}
	}
	weights := make(map[string]int, len(targets))
	for _, abbrev := range targets {
		weights[abbrev] = 1
	}

	maxBudget := demo.Budget
	if maxBudget <= 0 {
		maxBudget = int64(cat.GrandTotalCost())
	}

	return run.Request{
		Regions: regions,
		Budgets: run.Levels(maxBudget, budgetSweepCount),
		Weights: weights,
		Mode:    run.ModeBasic,
	}
}

func printResult(cat *catalog.Catalog, result *run.Result) {
	fmt.Printf("run %s: %d budget levels, %d failed\n\n", result.ID, len(result.Records), result.FailedLevels())

	targets := make([]string, 0, len(result.Request.Weights))
	for abbrev := range result.Request.Weights {
		targets = append(targets, abbrev)
	}
	sort.Strings(targets)

	header := []string{"budget", "spend", "objective", "barriers"}
	fmt.Println(strings.Join(header, "\t"))
	for _, rec := range result.Records {
		if rec.Failed() {
			fmt.Printf("%s\tfailed: %s\n", catalog.FormatBudgetAmount(rec.Level), rec.Err.Message)
			continue
		}
		fmt.Printf("%s\t%.0f\t%.2f\t%s\n",
			catalog.FormatBudgetAmount(rec.Level),
			rec.Spend,
			rec.Objective,
			strings.Join(rec.Barriers, " "),
		)
	}

	fmt.Println()
	for _, abbrev := range targets {
		fmt.Printf("%s: %s\n", abbrev, cat.TargetDescription(abbrev))
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
