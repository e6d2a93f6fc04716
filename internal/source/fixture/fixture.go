// Package fixture is the offline implementation of source.Source. It serves
// the embedded Riverlands demo dataset and answers optimization submissions
// with a deterministic cheapest-first selection, so tests and demos are
// repeatable without a server.
package fixture

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/tabular"
)

// ProjectName is the single project the fixture source hosts.
const ProjectName = "riverlands"

var (
	//go:embed fixtures/regions.csv
	regionsCSV string
	//go:embed fixtures/barriers.csv
	barriersCSV string
	//go:embed fixtures/targets.csv
	targetsCSV string
	//go:embed fixtures/layout.txt
	layoutText string
	//go:embed fixtures/mapinfo.json
	mapInfoJSON string
)

// Source serves the embedded dataset.
type Source struct{}

// New creates a fixture source.
func New() *Source { return &Source{} }

// FetchProjects lists the embedded projects.
func (s *Source) FetchProjects(ctx context.Context) ([]string, error) {
	return []string{ProjectName}, nil
}

// FetchRegions returns the embedded region table.
func (s *Source) FetchRegions(ctx context.Context, project string) (string, error) {
	if err := s.checkProject(project); err != nil {
		return "", err
	}
	return regionsCSV, nil
}

// FetchBarriers returns the embedded barrier table.
func (s *Source) FetchBarriers(ctx context.Context, project string) (string, error) {
	if err := s.checkProject(project); err != nil {
		return "", err
	}
	return barriersCSV, nil
}

// FetchTargets returns the embedded target table and layout.
func (s *Source) FetchTargets(ctx context.Context, project string) (source.TargetData, error) {
	if err := s.checkProject(project); err != nil {
		return source.TargetData{}, err
	}
	return source.TargetData{
		CSV:    targetsCSV,
		Layout: strings.Split(strings.TrimRight(layoutText, "\n"), "\n"),
	}, nil
}

// FetchColumnMapping returns the embedded column mapping metadata.
func (s *Source) FetchColumnMapping(ctx context.Context, project string) (source.ColumnMapping, error) {
	if err := s.checkProject(project); err != nil {
		return source.ColumnMapping{}, err
	}
	return source.ColumnMapping{Files: []string{"colnames.csv"}}, nil
}

// FetchMapInfo returns the embedded map metadata.
func (s *Source) FetchMapInfo(ctx context.Context, project string) (source.MapInfo, error) {
	if err := s.checkProject(project); err != nil {
		return source.MapInfo{}, err
	}
	var info source.MapInfo
	if err := json.Unmarshal([]byte(mapInfoJSON), &info); err != nil {
		return source.MapInfo{}, fmt.Errorf("mapinfo fixture: %w", err)
	}
	return info, nil
}

// SubmitOptimization selects barriers in the requested regions cheapest
// first until the budget is exhausted, and returns the result payload in the
// wire format the live server uses.
func (s *Source) SubmitOptimization(ctx context.Context, project string, job source.Job) (string, error) {
	if err := s.checkProject(project); err != nil {
		return "", err
	}

	barriers, err := tabular.ParseString("barriers", barriersCSV)
	if err != nil {
		return "", err
	}

	wanted := make(map[string]bool, len(job.Regions))
	for _, region := range job.Regions {
		wanted[region] = true
	}

	type candidate struct {
		id   string
		cost float64
		row  tabular.Row
	}
	var candidates []candidate
	for _, row := range barriers.Rows() {
		region, err := row.String("region")
		if err != nil || !wanted[region] {
			continue
		}
		cost, err := row.Float("cost")
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{id: row.Key(), cost: cost, row: row})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].cost != candidates[j].cost {
			return candidates[i].cost < candidates[j].cost
		}
		return candidates[i].id < candidates[j].id
	})

	var out strings.Builder
	out.WriteString("id,cost")
	for _, target := range job.Targets {
		out.WriteString("," + target)
	}
	out.WriteString("\n")

	var spent float64
	for _, c := range candidates {
		if spent+c.cost > float64(job.Budget) {
			continue
		}
		spent += c.cost
		out.WriteString(c.id + "," + strconv.FormatFloat(c.cost, 'f', -1, 64))
		for _, target := range job.Targets {
			score := 0.0
			if barriers.HasColumn(target) {
				if v, err := c.row.Float(target); err == nil {
					score = v
				}
			}
			out.WriteString("," + strconv.FormatFloat(score, 'f', -1, 64))
		}
		out.WriteString("\n")
	}

	return out.String(), nil
}

func (s *Source) checkProject(project string) error {
	if project != ProjectName {
		return source.ErrUnknownProject
	}
	return nil
}
