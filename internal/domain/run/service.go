// Package run drives optimization runs: it validates requests, fans one
// submission per budget level out to the data source through a bounded
// worker pool, parses the responses, and assembles the ROI curve.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/estuarine/gateopt/internal/domain/catalog"
	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/tabular"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers     = 4
	defaultWeightTotal = 100
)

// Options tunes the orchestrator.
type Options struct {
	// Workers bounds concurrent per-level submissions. Kept small so a
	// multi-level run does not overwhelm the remote optimizer.
	Workers int
	// WeightTotal is the sum basic-mode weights are scaled to.
	WeightTotal int
}

// Service submits optimization runs against a data source.
type Service struct {
	source      source.Source
	logger      *slog.Logger
	workers     int
	weightTotal int
}

// NewService creates a run service.
func NewService(src source.Source, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	weightTotal := opts.WeightTotal
	if weightTotal <= 0 {
		weightTotal = defaultWeightTotal
	}
	return &Service{source: src, logger: logger, workers: workers, weightTotal: weightTotal}
}

// Run executes one optimization request: one remote submission per budget
// level, fanned out through at most Workers goroutines. Records always come
// back in ascending level order. A failed level becomes an error record in
// its slot; Run itself fails only on a precondition violation or when every
// level failed. All dispatched submissions are awaited before returning,
// even under cancellation; levels never dispatched are recorded as canceled.
func (s *Service) Run(ctx context.Context, cat *catalog.Catalog, req Request) (*Result, error) {
	if err := validate(cat, req); err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(req.Weights))
	for abbrev := range req.Weights {
		targets = append(targets, abbrev)
	}
	sort.Strings(targets)
	weights := s.resolveWeights(req)

	started := time.Now()
	records := make([]Record, len(req.Budgets))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, level := range req.Budgets {
		i, level := i, level
		if err := ctx.Err(); err != nil {
			records[i] = Record{Level: level, Err: &LevelError{
				Level:   level,
				Step:    "dispatch",
				Message: "canceled before submission: " + err.Error(),
			}}
			continue
		}
		group.Go(func() error {
			records[i] = s.runLevel(gctx, cat, req, targets, weights, level)
			return nil
		})
	}
	// Workers never return errors; failures live in their record slots.
	_ = group.Wait()

	result := Assemble(req, records)
	result.StartedAt = started
	result.Elapsed = time.Since(started)

	if result.FailedLevels() == len(result.Records) {
		first := result.Records[0].Err
		return nil, fmt.Errorf("%w: %s", ErrAllLevelsFailed, first.Error())
	}

	s.logger.Info("optimization run complete",
		"id", result.ID,
		"levels", len(result.Records),
		"failed", result.FailedLevels(),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// Assemble wraps already-validated records with their request. Records are
// sorted ascending by level; no further validation is performed.
func Assemble(req Request, records []Record) *Result {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	return &Result{
		ID:      uuid.NewString(),
		Request: req,
		Records: sorted,
	}
}

func (s *Service) runLevel(
	ctx context.Context,
	cat *catalog.Catalog,
	req Request,
	targets []string,
	weights map[string]float64,
	level int64,
) Record {
	job := source.Job{
		Regions: req.Regions,
		Budget:  level,
		Targets: targets,
		Weights: req.Weights,
		Mode:    string(req.Mode),
	}

	payload, err := s.source.SubmitOptimization(ctx, cat.Project(), job)
	if err != nil {
		s.logger.Warn("budget level failed", "level", level, "error", err)
		return Record{Level: level, Err: levelError(level, err)}
	}

	record := s.parseLevel(cat, weights, level, payload)
	if record.Failed() {
		s.logger.Warn("budget level unparseable", "level", level, "error", record.Err)
	}
	return record
}

// parseLevel turns one response payload into a record. Rows referencing
// unknown barriers or carrying malformed numbers are dropped and counted;
// the level only fails when no row survives a non-empty payload.
func (s *Service) parseLevel(cat *catalog.Catalog, weights map[string]float64, level int64, payload string) Record {
	table, err := tabular.ParseString("run", payload)
	if err != nil {
		return Record{Level: level, Err: &LevelError{Level: level, Step: "parse", Message: err.Error()}}
	}
	if err := table.Require("id", "cost"); err != nil {
		return Record{Level: level, Err: &LevelError{Level: level, Step: "parse", Message: err.Error()}}
	}
	for abbrev := range weights {
		if !table.HasColumn(abbrev) {
			return Record{Level: level, Err: &LevelError{
				Level:   level,
				Step:    "parse",
				Message: fmt.Sprintf("response missing target column %q", abbrev),
			}}
		}
	}

	record := Record{Level: level, Scores: make(map[string]float64, len(weights))}
	for _, row := range table.Rows() {
		if _, ok := cat.Barrier(row.Key()); !ok {
			s.logger.Warn("dropping row with unknown barrier", "level", level, "barrier", row.Key())
			record.DroppedRows++
			continue
		}
		cost, err := row.Float("cost")
		if err != nil {
			s.logger.Warn("dropping malformed row", "level", level, "barrier", row.Key(), "error", err)
			record.DroppedRows++
			continue
		}
		scores := make(map[string]float64, len(weights))
		usable := true
		for abbrev := range weights {
			v, err := row.Float(abbrev)
			if err != nil {
				s.logger.Warn("dropping malformed row", "level", level, "barrier", row.Key(), "error", err)
				usable = false
				break
			}
			scores[abbrev] = v
		}
		if !usable {
			record.DroppedRows++
			continue
		}

		record.Barriers = append(record.Barriers, row.Key())
		record.Spend += cost
		for abbrev, v := range scores {
			record.Scores[abbrev] += v
		}
	}

	if len(record.Barriers) == 0 && table.Len() > 0 {
		return Record{Level: level, Err: &LevelError{
			Level:   level,
			Step:    "parse",
			Message: fmt.Sprintf("no usable rows in response (%d dropped)", record.DroppedRows),
		}}
	}

	for abbrev, weight := range weights {
		record.Objective += weight * record.Scores[abbrev]
	}
	return record
}

// resolveWeights turns request weights into objective coefficients: basic
// and fixed-budget modes scale them to the configured total, advanced mode
// uses them as given.
func (s *Service) resolveWeights(req Request) map[string]float64 {
	out := make(map[string]float64, len(req.Weights))
	if req.Mode == ModeAdvanced {
		for abbrev, w := range req.Weights {
			out[abbrev] = float64(w)
		}
		return out
	}
	var sum int
	for _, w := range req.Weights {
		sum += w
	}
	for abbrev, w := range req.Weights {
		out[abbrev] = float64(w) * float64(s.weightTotal) / float64(sum)
	}
	return out
}

func validate(cat *catalog.Catalog, req Request) error {
	if cat == nil {
		return &InvalidRequestError{Field: "catalog", Reason: "session not initialized"}
	}
	switch req.Mode {
	case ModeBasic, ModeFixedBudget, ModeAdvanced:
	default:
		return &InvalidRequestError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", req.Mode)}
	}

	if len(req.Regions) == 0 {
		return &InvalidRequestError{Field: "regions", Reason: "no regions selected"}
	}
	for _, region := range req.Regions {
		if !cat.HasRegion(region) {
			return &InvalidRequestError{Field: "regions", Reason: fmt.Sprintf("unknown region %q", region)}
		}
	}

	if len(req.Budgets) == 0 {
		return &InvalidRequestError{Field: "budgets", Reason: "no budget levels"}
	}
	if req.Mode == ModeFixedBudget && len(req.Budgets) != 1 {
		return &InvalidRequestError{Field: "budgets", Reason: "fixed-budget mode takes exactly one level"}
	}
	prev := int64(0)
	for _, level := range req.Budgets {
		if level <= 0 {
			return &InvalidRequestError{Field: "budgets", Reason: fmt.Sprintf("level %d is not positive", level)}
		}
		if level <= prev {
			return &InvalidRequestError{Field: "budgets", Reason: "levels must be distinct and ascending"}
		}
		prev = level
	}

	if len(req.Weights) == 0 {
		return &InvalidRequestError{Field: "weights", Reason: "no targets selected"}
	}
	for abbrev, w := range req.Weights {
		if _, ok := cat.Target(abbrev); !ok {
			return &InvalidRequestError{Field: "weights", Reason: fmt.Sprintf("unknown target %q", abbrev)}
		}
		if w <= 0 {
			return &InvalidRequestError{Field: "weights", Reason: fmt.Sprintf("target %q has non-positive weight", abbrev)}
		}
		if req.Mode == ModeAdvanced && w > 5 {
			return &InvalidRequestError{Field: "weights", Reason: fmt.Sprintf("target %q weight must be 1-5", abbrev)}
		}
	}

	return nil
}

func levelError(level int64, err error) *LevelError {
	var serverErr *source.ServerError
	if errors.As(err, &serverErr) {
		return &LevelError{Level: level, Step: serverErr.Step, Status: serverErr.Status, Message: serverErr.Body}
	}
	var transportErr *source.TransportError
	if errors.As(err, &transportErr) {
		return &LevelError{Level: level, Step: transportErr.Step, Message: transportErr.Error()}
	}
	return &LevelError{Level: level, Step: "submit", Message: err.Error()}
}
