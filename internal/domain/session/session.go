// Package session is the boundary presentation code talks to: one Session
// per process, initialized once against a data source, then queried for
// metadata and driven through optimization runs.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/estuarine/gateopt/internal/domain/catalog"
	"github.com/estuarine/gateopt/internal/domain/run"
	"github.com/estuarine/gateopt/internal/history"
	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/tabular"
	"github.com/google/uuid"
)

// State is the session lifecycle: Uninitialized -> Initializing -> Ready.
// A failed initialization drops back to Uninitialized with nothing retained.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Options tunes a session.
type Options struct {
	Run     run.Options
	History *history.Store // optional run log
}

// Session owns the metadata catalog and the run orchestrator for one data
// source. The source is chosen at construction and immutable thereafter.
type Session struct {
	id      string
	src     source.Source
	runs    *run.Service
	history *history.Store
	logger  *slog.Logger

	mu    sync.Mutex
	state State
	cat   *catalog.Catalog
}

// New creates a session over a data source.
func New(src source.Source, logger *slog.Logger, opts Options) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		id:      uuid.NewString(),
		src:     src,
		runs:    run.NewService(src, logger, opts.Run),
		history: opts.History,
		logger:  logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize loads the project's reference data. It must complete before
// any other operation. Calling it again for the same project returns the
// cached catalog without touching the network; a different project fails
// with ErrAlreadyInitialized. A failure leaves the session uninitialized
// and Initialize may be retried.
func (s *Session) Initialize(ctx context.Context, projectID string) (*catalog.Catalog, error) {
	s.mu.Lock()
	switch s.state {
	case StateInitializing:
		s.mu.Unlock()
		return nil, ErrInitializing
	case StateReady:
		cat := s.cat
		s.mu.Unlock()
		if cat.Project() == projectID {
			return cat, nil
		}
		return nil, ErrAlreadyInitialized
	}
	s.state = StateInitializing
	s.mu.Unlock()

	cat, err := s.load(ctx, projectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateUninitialized
		s.cat = nil
		return nil, err
	}
	s.state = StateReady
	s.cat = cat
	s.logger.Info("session ready",
		"session", s.id,
		"project", projectID,
		"regions", len(cat.Regions()),
		"barriers", len(cat.Barriers()),
		"targets", len(cat.Targets()),
	)
	return cat, nil
}

// Catalog returns the metadata catalog.
func (s *Session) Catalog() (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil, ErrNotInitialized
	}
	return s.cat, nil
}

// Project returns the initialized project id.
func (s *Session) Project() (string, error) {
	cat, err := s.Catalog()
	if err != nil {
		return "", err
	}
	return cat.Project(), nil
}

// RunOptimization executes a request against the session's project and
// returns the assembled ROI curve. Each call performs fresh network work;
// only metadata is cached.
func (s *Session) RunOptimization(ctx context.Context, req run.Request) (*run.Result, error) {
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}

	result, err := s.runs.Run(ctx, cat, req)
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		entry := history.Entry{
			RunID:         result.ID,
			SessionID:     s.id,
			Project:       cat.Project(),
			Mode:          string(req.Mode),
			Regions:       strings.Join(req.Regions, ","),
			Levels:        len(result.Records),
			FailedLevels:  result.FailedLevels(),
			BestObjective: result.BestObjective(),
			Elapsed:       result.Elapsed,
			CreatedAt:     time.Now(),
		}
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.Warn("recording run history failed", "run", result.ID, "error", err)
		}
	}

	return result, nil
}

// load performs the ordered fetch sequence. Any failure aborts the whole
// initialization; no partial state escapes.
func (s *Session) load(ctx context.Context, projectID string) (*catalog.Catalog, error) {
	projects, err := s.src.FetchProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	known := false
	for _, p := range projects {
		if p == projectID {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", source.ErrUnknownProject, projectID)
	}

	regionsCSV, err := s.src.FetchRegions(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching regions: %w", err)
	}
	regionTable, err := tabular.ParseString("regions", regionsCSV)
	if err != nil {
		return nil, err
	}

	barriersCSV, err := s.src.FetchBarriers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching barriers: %w", err)
	}
	barrierTable, err := tabular.ParseString("barriers", barriersCSV)
	if err != nil {
		return nil, err
	}

	targetData, err := s.src.FetchTargets(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching targets: %w", err)
	}
	targetTable, err := tabular.ParseString("targets", targetData.CSV)
	if err != nil {
		return nil, err
	}

	mapping, err := s.src.FetchColumnMapping(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching column mapping: %w", err)
	}

	mapInfo, err := s.src.FetchMapInfo(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching map info: %w", err)
	}

	return catalog.Build(projectID, regionTable, barrierTable, targetTable, targetData.Layout, mapping, mapInfo)
}
