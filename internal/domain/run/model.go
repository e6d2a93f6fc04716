package run

import (
	"fmt"
	"time"
)

// Mode selects how budgets and weights are interpreted, mirroring the three
// budget tabs presented to the user.
type Mode string

const (
	// ModeBasic sweeps a range of budgets with weights scaled to a common
	// total.
	ModeBasic Mode = "basic"
	// ModeFixedBudget runs a single budget level.
	ModeFixedBudget Mode = "fixed-budget"
	// ModeAdvanced sweeps budgets with user-assigned weights (1-5) used
	// as given.
	ModeAdvanced Mode = "advanced-weighted"
)

// Request describes one optimization: a region subset, ascending budget
// levels, and per-target weights.
type Request struct {
	Regions []string       `json:"regions"`
	Budgets []int64        `json:"budgets"`
	Weights map[string]int `json:"weights"`
	Mode    Mode           `json:"mode"`
}

// LevelError captures a failed budget level. It is held in the level's
// record slot so sibling levels are unaffected.
type LevelError struct {
	Level   int64  `json:"level"`
	Step    string `json:"step"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
}

func (e *LevelError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("level %d: %s: server returned %d: %s", e.Level, e.Step, e.Status, e.Message)
	}
	return fmt.Sprintf("level %d: %s: %s", e.Level, e.Step, e.Message)
}

// Record is the outcome of optimizing at one budget level: either the
// selected barriers with their achieved scores, or a LevelError.
type Record struct {
	Level       int64              `json:"level"`
	Barriers    []string           `json:"barriers,omitempty"`
	Spend       float64            `json:"spend"`
	Scores      map[string]float64 `json:"scores,omitempty"`
	Objective   float64            `json:"objective"`
	DroppedRows int                `json:"dropped_rows,omitempty"`
	Err         *LevelError        `json:"error,omitempty"`
}

// Failed reports whether the level produced an error instead of a result.
func (r Record) Failed() bool { return r.Err != nil }

// Result is a complete ROI curve: one record per requested budget level, in
// ascending level order, plus the originating request. Results are immutable
// once assembled; a new run supersedes rather than mutates.
type Result struct {
	ID        string        `json:"id"`
	Request   Request       `json:"request"`
	Records   []Record      `json:"records"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
}

// FailedLevels counts the records that carry errors.
func (r *Result) FailedLevels() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Failed() {
			n++
		}
	}
	return n
}

// BestObjective returns the highest objective among successful levels.
func (r *Result) BestObjective() float64 {
	best := 0.0
	for _, rec := range r.Records {
		if !rec.Failed() && rec.Objective > best {
			best = rec.Objective
		}
	}
	return best
}

// Levels builds the basic-mode budget sweep: count evenly spaced levels up
// to max, starting at max/count.
func Levels(max int64, count int) []int64 {
	if max <= 0 || count <= 0 {
		return nil
	}
	delta := max / int64(count)
	if delta == 0 {
		return []int64{max}
	}
	out := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, delta*int64(i))
	}
	return out
}
