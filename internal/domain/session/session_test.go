package session_test

import (
	"context"
	"testing"

	"github.com/estuarine/gateopt/internal/domain/run"
	"github.com/estuarine/gateopt/internal/domain/session"
	"github.com/estuarine/gateopt/internal/history"
	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/source/fixture"
	"github.com/estuarine/gateopt/internal/source/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const regionsCSV = "region,barriers\nRed Fork,B\n"
const barriersCSV = "id,name,region,cost,passability\nB,Bywater,Red Fork,60000,medium\n"
const targetsCSV = "abbrev,description,unit\nT1,Coho salmon habitat,km\n"

func mockSource() *mocks.Source {
	src := &mocks.Source{}
	src.On("FetchProjects", mock.Anything).Return([]string{"riverlands"}, nil)
	src.On("FetchRegions", mock.Anything, "riverlands").Return(regionsCSV, nil)
	src.On("FetchBarriers", mock.Anything, "riverlands").Return(barriersCSV, nil)
	src.On("FetchTargets", mock.Anything, "riverlands").Return(source.TargetData{CSV: targetsCSV, Layout: []string{"T1"}}, nil)
	src.On("FetchColumnMapping", mock.Anything, "riverlands").Return(source.ColumnMapping{}, nil)
	src.On("FetchMapInfo", mock.Anything, "riverlands").Return(source.MapInfo{Title: "The Riverlands"}, nil)
	return src
}

func TestInitializeTwiceIsIdempotent(t *testing.T) {
	sess := session.New(fixture.New(), nil, session.Options{})
	ctx := context.Background()

	first, err := sess.Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)
	require.Equal(t, session.StateReady, sess.State())

	second, err := sess.Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)

	require.Equal(t, first.Project(), second.Project())
	require.Equal(t, first.RegionNames(), second.RegionNames())
	require.Equal(t, first.Barriers(), second.Barriers())
	require.Equal(t, first.Targets(), second.Targets())

	// a fresh session over the same source builds the same structure
	other, err := session.New(fixture.New(), nil, session.Options{}).Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)
	require.Equal(t, first.RegionNames(), other.RegionNames())
	require.Equal(t, first.Barriers(), other.Barriers())
	require.Equal(t, first.GrandTotalCost(), other.GrandTotalCost())
}

func TestSecondInitializeSkipsNetwork(t *testing.T) {
	src := mockSource()
	sess := session.New(src, nil, session.Options{})
	ctx := context.Background()

	_, err := sess.Initialize(ctx, "riverlands")
	require.NoError(t, err)
	_, err = sess.Initialize(ctx, "riverlands")
	require.NoError(t, err)

	src.AssertNumberOfCalls(t, "FetchProjects", 1)
	src.AssertNumberOfCalls(t, "FetchBarriers", 1)
}

func TestInitializeDifferentProjectFails(t *testing.T) {
	sess := session.New(fixture.New(), nil, session.Options{})
	ctx := context.Background()

	_, err := sess.Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)

	_, err = sess.Initialize(ctx, "westeros")
	require.ErrorIs(t, err, session.ErrAlreadyInitialized)
}

func TestInitializeUnknownProject(t *testing.T) {
	src := mockSource()
	sess := session.New(src, nil, session.Options{})

	_, err := sess.Initialize(context.Background(), "westeros")
	require.ErrorIs(t, err, source.ErrUnknownProject)
	require.Equal(t, session.StateUninitialized, sess.State())
	src.AssertNotCalled(t, "FetchRegions", mock.Anything, mock.Anything)
}

func TestInitializeFailureLeavesNoPartialState(t *testing.T) {
	src := &mocks.Source{}
	src.On("FetchProjects", mock.Anything).Return([]string{"riverlands"}, nil)
	src.On("FetchRegions", mock.Anything, "riverlands").Return(regionsCSV, nil)
	src.On("FetchBarriers", mock.Anything, "riverlands").
		Return("", &source.ServerError{Step: "barriers", Status: 500, Body: "barrier file missing"}).Once()
	src.On("FetchBarriers", mock.Anything, "riverlands").Return(barriersCSV, nil)
	src.On("FetchTargets", mock.Anything, "riverlands").Return(source.TargetData{CSV: targetsCSV}, nil)
	src.On("FetchColumnMapping", mock.Anything, "riverlands").Return(source.ColumnMapping{}, nil)
	src.On("FetchMapInfo", mock.Anything, "riverlands").Return(source.MapInfo{}, nil)

	sess := session.New(src, nil, session.Options{})
	ctx := context.Background()

	_, err := sess.Initialize(ctx, "riverlands")
	require.Error(t, err)
	var serverErr *source.ServerError
	require.ErrorAs(t, err, &serverErr)
	require.Equal(t, "barriers", serverErr.Step)
	require.Equal(t, session.StateUninitialized, sess.State())

	_, err = sess.Catalog()
	require.ErrorIs(t, err, session.ErrNotInitialized)

	// a failed initialization may be retried
	cat, err := sess.Initialize(ctx, "riverlands")
	require.NoError(t, err)
	require.Equal(t, "riverlands", cat.Project())
	require.Equal(t, session.StateReady, sess.State())
}

func TestInitializeDuplicateKeyPayloadFatal(t *testing.T) {
	src := &mocks.Source{}
	src.On("FetchProjects", mock.Anything).Return([]string{"riverlands"}, nil)
	src.On("FetchRegions", mock.Anything, "riverlands").
		Return("region,barriers\nRed Fork,B\nRed Fork,C\n", nil)

	sess := session.New(src, nil, session.Options{})
	_, err := sess.Initialize(context.Background(), "riverlands")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate key")
	require.Equal(t, session.StateUninitialized, sess.State())
}

func TestAccessorsBeforeInitialize(t *testing.T) {
	sess := session.New(fixture.New(), nil, session.Options{})

	_, err := sess.Project()
	require.ErrorIs(t, err, session.ErrNotInitialized)
	_, err = sess.Catalog()
	require.ErrorIs(t, err, session.ErrNotInitialized)
	_, err = sess.RunOptimization(context.Background(), run.Request{})
	require.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestRunOptimizationRecordsHistory(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	sess := session.New(fixture.New(), nil, session.Options{History: store})
	ctx := context.Background()

	_, err = sess.Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)

	result, err := sess.RunOptimization(ctx, run.Request{
		Regions: []string{"Red Fork", "Trident"},
		Budgets: []int64{100000, 500000},
		Weights: map[string]int{"T1": 3, "T2": 1},
		Mode:    run.ModeBasic,
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	entries, err := store.List(ctx, fixture.ProjectName, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, result.ID, entries[0].RunID)
	require.Equal(t, sess.ID(), entries[0].SessionID)
	require.Equal(t, 2, entries[0].Levels)
	require.Equal(t, 0, entries[0].FailedLevels)
	require.Greater(t, entries[0].BestObjective, 0.0)
}

func TestResultsSupersedePriorRuns(t *testing.T) {
	sess := session.New(fixture.New(), nil, session.Options{})
	ctx := context.Background()

	_, err := sess.Initialize(ctx, fixture.ProjectName)
	require.NoError(t, err)

	req := run.Request{
		Regions: []string{"Red Fork"},
		Budgets: []int64{100000},
		Weights: map[string]int{"T1": 1},
		Mode:    run.ModeFixedBudget,
	}
	first, err := sess.RunOptimization(ctx, req)
	require.NoError(t, err)
	second, err := sess.RunOptimization(ctx, req)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.Records, second.Records)
}
