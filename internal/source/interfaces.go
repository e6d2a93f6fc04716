package source

import "context"

// TargetData is the payload returned by the targets endpoint: the target
// table itself plus the display layout the server wants targets grouped in.
type TargetData struct {
	CSV    string
	Layout []string
}

// MapInfo describes the background map for a project.
type MapInfo struct {
	Type  string `json:"map_type"`
	File  string `json:"map_file"`
	Title string `json:"map_title"`
}

// ColumnMapping names an optional column mapping file set for targets.
type ColumnMapping struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// Job is a single optimization submission: one budget level against a
// region and target selection.
type Job struct {
	Regions []string       `json:"regions"`
	Budget  int64          `json:"budget"`
	Targets []string       `json:"targets"`
	Weights map[string]int `json:"weights"`
	Mode    string         `json:"mode"`
}

// Source provides project reference data and optimization runs. Two
// implementations exist: a live HTTP client and a fixture-backed source for
// offline use. Consumers never depend on which one is active.
type Source interface {
	FetchProjects(ctx context.Context) ([]string, error)
	FetchRegions(ctx context.Context, project string) (string, error)
	FetchBarriers(ctx context.Context, project string) (string, error)
	FetchTargets(ctx context.Context, project string) (TargetData, error)
	FetchColumnMapping(ctx context.Context, project string) (ColumnMapping, error)
	FetchMapInfo(ctx context.Context, project string) (MapInfo, error)
	SubmitOptimization(ctx context.Context, project string, job Job) (string, error)
}
