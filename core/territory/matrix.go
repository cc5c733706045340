// Package territory provides coarse travel-time estimation between territory
// labels. No geocoding is involved: lookups go through a curated
// suburb-to-suburb matrix with a zone-based fallback for pairs the matrix
// does not cover.
package territory

import "strings"

// Config defines the travel matrix and adjacency inputs. All fields are
// optional; zero values fall back to the built-in Melbourne defaults.
type Config struct {
	// TravelMinutes overrides or extends the built-in matrix.
	TravelMinutes map[string]map[string]int `json:"travel_minutes"`
	// Zones groups suburbs into named zones used for fallback estimation.
	Zones map[string][]string `json:"zones"`
	// Adjacent lists explicit adjacency pairs ("Richmond:Hawthorn").
	Adjacent []string `json:"adjacent"`
	// AdjacencyCutoffMinutes marks two territories adjacent when the travel
	// estimate is at or below this value. Default 20.
	AdjacencyCutoffMinutes int `json:"adjacency_cutoff_minutes"`
	// DefaultMinutes is returned when no estimate exists at all. Default 30.
	DefaultMinutes int `json:"default_minutes"`
}

// SetDefaults applies the built-in matrix and fallback values.
func (c *Config) SetDefaults() {
	if c.AdjacencyCutoffMinutes <= 0 {
		c.AdjacencyCutoffMinutes = 20
	}
	if c.DefaultMinutes <= 0 {
		c.DefaultMinutes = 30
	}
}

// Matrix answers travel-time and adjacency queries between territories.
type Matrix struct {
	travel   map[string]map[string]int
	zoneOf   map[string]string
	adjacent map[string]bool
	cutoff   int
	fallback int
}

// New builds a Matrix from the configuration merged over the defaults.
func New(cfg Config) *Matrix {
	cfg.SetDefaults()
	m := &Matrix{
		travel:   map[string]map[string]int{},
		zoneOf:   map[string]string{},
		adjacent: map[string]bool{},
		cutoff:   cfg.AdjacencyCutoffMinutes,
		fallback: cfg.DefaultMinutes,
	}
	for from, tos := range defaultTravelMinutes {
		m.travel[from] = map[string]int{}
		for to, mins := range tos {
			m.travel[from][to] = mins
		}
	}
	for from, tos := range cfg.TravelMinutes {
		if m.travel[from] == nil {
			m.travel[from] = map[string]int{}
		}
		for to, mins := range tos {
			m.travel[from][to] = mins
		}
	}
	zones := cfg.Zones
	if len(zones) == 0 {
		zones = defaultZones
	}
	for zone, suburbs := range zones {
		for _, s := range suburbs {
			m.zoneOf[s] = zone
		}
	}
	for _, pair := range cfg.Adjacent {
		if a, b, ok := strings.Cut(pair, ":"); ok {
			m.adjacent[pairKey(a, b)] = true
		}
	}
	return m
}

// TravelMinutes estimates the travel time between two territories. Same
// territory costs nothing; unknown pairs fall back to the zone estimate.
func (m *Matrix) TravelMinutes(from, to string) int {
	if from == to {
		return 0
	}
	if mins, ok := m.travel[from][to]; ok {
		return mins
	}
	if mins, ok := m.travel[to][from]; ok {
		return mins
	}
	return m.zoneEstimate(from, to)
}

// Adjacent reports whether two territories count as neighbouring for
// assignment scoring: either configured explicitly or close enough by the
// travel estimate.
func (m *Matrix) Adjacent(a, b string) bool {
	if a == b {
		return false
	}
	if m.adjacent[pairKey(a, b)] {
		return true
	}
	return m.TravelMinutes(a, b) <= m.cutoff
}

// Zone returns the zone label for a territory, or "OUTER" when unknown.
func (m *Matrix) Zone(territory string) string {
	if z, ok := m.zoneOf[territory]; ok {
		return z
	}
	return "OUTER"
}

func (m *Matrix) zoneEstimate(from, to string) int {
	if mins, ok := zoneTravelMinutes[m.Zone(from)][m.Zone(to)]; ok {
		return mins
	}
	return m.fallback
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
