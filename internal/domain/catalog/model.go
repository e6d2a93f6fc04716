package catalog

// Region is a named group of barriers. Every barrier belongs to exactly one
// region.
type Region struct {
	Name     string   `json:"name"`
	Barriers []string `json:"barriers"`
}

// Barrier is a single tide gate or culvert, with the static attributes the
// optimizer uses.
type Barrier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	Cost        float64 `json:"cost"`
	Passability string  `json:"passability"`
}

// Target is a restoration target. Weights are assigned per request; the
// canonical record carries none.
type Target struct {
	Abbrev      string `json:"abbrev"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}
