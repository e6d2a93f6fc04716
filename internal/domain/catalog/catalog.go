// Package catalog holds a project's reference data: regions, barriers, and
// restoration targets, loaded once per session and immutable afterward. All
// getters are pure reads, so a built Catalog is safe to share across
// goroutines without locking.
package catalog

import (
	"sort"
	"strings"

	"github.com/estuarine/gateopt/internal/source"
	"github.com/estuarine/gateopt/internal/tabular"
)

// Catalog is the immutable metadata store for one project.
type Catalog struct {
	project      string
	regions      []Region
	regionIndex  map[string]int
	barriers     map[string]Barrier
	barrierOrder []string
	targets      map[string]Target
	targetOrder  []string
	layout       []string
	mapping      source.ColumnMapping
	mapInfo      source.MapInfo
	totalCost    map[string]float64
	grandTotal   float64
}

// Build assembles a Catalog from parsed payloads, enforcing the ownership
// invariant: every barrier belongs to exactly one region.
func Build(
	project string,
	regionTable, barrierTable, targetTable *tabular.Table,
	layout []string,
	mapping source.ColumnMapping,
	mapInfo source.MapInfo,
) (*Catalog, error) {
	if err := regionTable.Require("region", "barriers"); err != nil {
		return nil, err
	}
	if err := barrierTable.Require("id", "name", "region", "cost", "passability"); err != nil {
		return nil, err
	}
	if err := targetTable.Require("abbrev", "description", "unit"); err != nil {
		return nil, err
	}

	c := &Catalog{
		project:     project,
		regionIndex: make(map[string]int),
		barriers:    make(map[string]Barrier),
		targets:     make(map[string]Target),
		layout:      layout,
		mapping:     mapping,
		mapInfo:     mapInfo,
		totalCost:   make(map[string]float64),
	}

	for _, row := range barrierTable.Rows() {
		cost, err := row.Float("cost")
		if err != nil {
			return nil, &IntegrityError{Entity: "barrier", ID: row.Key(), Reason: err.Error()}
		}
		name, _ := row.String("name")
		region, _ := row.String("region")
		passability, _ := row.String("passability")
		c.barriers[row.Key()] = Barrier{
			ID:          row.Key(),
			Name:        name,
			Region:      region,
			Cost:        cost,
			Passability: passability,
		}
		c.barrierOrder = append(c.barrierOrder, row.Key())
	}

	owner := make(map[string]string)
	for _, row := range regionTable.Rows() {
		ids, _ := row.String("barriers")
		region := Region{Name: row.Key()}
		for _, id := range strings.Fields(ids) {
			barrier, ok := c.barriers[id]
			if !ok {
				return nil, &IntegrityError{Entity: "region", ID: row.Key(), Reason: "claims unknown barrier " + id}
			}
			if prev, claimed := owner[id]; claimed {
				return nil, &IntegrityError{Entity: "barrier", ID: id, Reason: "claimed by both " + prev + " and " + row.Key()}
			}
			if barrier.Region != row.Key() {
				return nil, &IntegrityError{Entity: "barrier", ID: id, Reason: "recorded in region " + barrier.Region + " but claimed by " + row.Key()}
			}
			owner[id] = row.Key()
			region.Barriers = append(region.Barriers, id)
		}
		c.regions = append(c.regions, region)
	}
	for _, id := range c.barrierOrder {
		if _, ok := owner[id]; !ok {
			return nil, &IntegrityError{Entity: "barrier", ID: id, Reason: "belongs to no region"}
		}
	}

	sort.Slice(c.regions, func(i, j int) bool { return c.regions[i].Name < c.regions[j].Name })
	for i, region := range c.regions {
		c.regionIndex[region.Name] = i
		var total float64
		for _, id := range region.Barriers {
			total += c.barriers[id].Cost
		}
		c.totalCost[region.Name] = total
		c.grandTotal += total
	}

	for _, row := range targetTable.Rows() {
		description, _ := row.String("description")
		unit, _ := row.String("unit")
		c.targets[row.Key()] = Target{Abbrev: row.Key(), Description: description, Unit: unit}
		c.targetOrder = append(c.targetOrder, row.Key())
	}

	return c, nil
}

// Project returns the project id the catalog was built for.
func (c *Catalog) Project() string { return c.project }

// Regions returns all regions sorted by name.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out
}

// RegionNames returns the sorted region names.
func (c *Catalog) RegionNames() []string {
	out := make([]string, len(c.regions))
	for i, region := range c.regions {
		out[i] = region.Name
	}
	return out
}

// HasRegion reports whether the named region exists.
func (c *Catalog) HasRegion(name string) bool {
	_, ok := c.regionIndex[name]
	return ok
}

// Barrier looks up a barrier by id.
func (c *Catalog) Barrier(id string) (Barrier, bool) {
	b, ok := c.barriers[id]
	return b, ok
}

// Barriers returns all barriers in payload order.
func (c *Catalog) Barriers() []Barrier {
	out := make([]Barrier, 0, len(c.barrierOrder))
	for _, id := range c.barrierOrder {
		out = append(out, c.barriers[id])
	}
	return out
}

// Target looks up a target by abbreviation.
func (c *Catalog) Target(abbrev string) (Target, bool) {
	t, ok := c.targets[abbrev]
	return t, ok
}

// Targets returns all targets in payload order.
func (c *Catalog) Targets() []Target {
	out := make([]Target, 0, len(c.targetOrder))
	for _, abbrev := range c.targetOrder {
		out = append(out, c.targets[abbrev])
	}
	return out
}

// TargetDescription returns the description for a target abbreviation, or
// the abbreviation itself when unknown.
func (c *Catalog) TargetDescription(abbrev string) string {
	if t, ok := c.targets[abbrev]; ok {
		return t.Description
	}
	return abbrev
}

// TargetLayout returns the server's display grouping for targets.
func (c *Catalog) TargetLayout() []string {
	out := make([]string, len(c.layout))
	copy(out, c.layout)
	return out
}

// ColumnMapping returns the target column mapping metadata.
func (c *Catalog) ColumnMapping() source.ColumnMapping { return c.mapping }

// MapInfo returns the project's map metadata.
func (c *Catalog) MapInfo() source.MapInfo { return c.mapInfo }

// TotalCost returns the combined cost of all barriers in a region.
func (c *Catalog) TotalCost(region string) float64 { return c.totalCost[region] }

// GrandTotalCost returns the combined cost of every barrier in the project.
func (c *Catalog) GrandTotalCost() float64 { return c.grandTotal }
