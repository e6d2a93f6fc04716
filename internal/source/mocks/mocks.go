package mocks

import (
	"context"

	"github.com/estuarine/gateopt/internal/source"
	"github.com/stretchr/testify/mock"
)

// Source is a mock for source.Source.
type Source struct {
	mock.Mock
}

func (m *Source) FetchProjects(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if projects, ok := args.Get(0).([]string); ok {
		return projects, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Source) FetchRegions(ctx context.Context, project string) (string, error) {
	args := m.Called(ctx, project)
	return args.String(0), args.Error(1)
}

func (m *Source) FetchBarriers(ctx context.Context, project string) (string, error) {
	args := m.Called(ctx, project)
	return args.String(0), args.Error(1)
}

func (m *Source) FetchTargets(ctx context.Context, project string) (source.TargetData, error) {
	args := m.Called(ctx, project)
	return args.Get(0).(source.TargetData), args.Error(1)
}

func (m *Source) FetchColumnMapping(ctx context.Context, project string) (source.ColumnMapping, error) {
	args := m.Called(ctx, project)
	return args.Get(0).(source.ColumnMapping), args.Error(1)
}

func (m *Source) FetchMapInfo(ctx context.Context, project string) (source.MapInfo, error) {
	args := m.Called(ctx, project)
	return args.Get(0).(source.MapInfo), args.Error(1)
}

func (m *Source) SubmitOptimization(ctx context.Context, project string, job source.Job) (string, error) {
	args := m.Called(ctx, project, job)
	return args.String(0), args.Error(1)
}
