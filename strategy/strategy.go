// Package strategy holds the preset catalog and turn-by-turn selection.
// Presets are immutable weight bundles; selection is recomputed every turn
// from seeded draws so the same match, side and round always produce the
// same choice.
package strategy

import (
	"math/rand"
)

// Strategy is a named bundle of weights that biases every downstream
// planner decision. All weights are 0.0–1.0.
type Strategy struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Aggression       float64 `yaml:"aggression"`        // 0=passive, 1=all-in
	FocusFire        float64 `yaml:"focus_fire"`        // 0=spread damage, 1=single target
	RetreatThreshold float64 `yaml:"retreat_threshold"` // fraction of max hp; higher retreats earlier
	TerrainWeight    float64 `yaml:"terrain_weight"`    // multiplier for terrain defense in tile scoring
	HQPressure       float64 `yaml:"hq_pressure"`       // push toward enemy HQ vs fighting
	Formation        float64 `yaml:"formation"`         // 0=spread, 1=tight blob

	FlankRatio  float64 `yaml:"flank_ratio"`  // fraction of infantry sent flanking
	ScreenRatio float64 `yaml:"screen_ratio"` // fraction of infantry used as screens

	// ValueTargets switches focus-fire ordering to pure unit-type value
	// (heavy > ranged > light), ignoring hit points and distance.
	ValueTargets bool `yaml:"value_targets"`

	Weight int `yaml:"weight"` // replication weight in the random pool
}

// Validate clamps all weights to their valid ranges.
func (s *Strategy) Validate() {
	s.Aggression = clamp(s.Aggression, 0, 1)
	s.FocusFire = clamp(s.FocusFire, 0, 1)
	s.RetreatThreshold = clamp(s.RetreatThreshold, 0, 1)
	s.TerrainWeight = clamp(s.TerrainWeight, 0, 4)
	s.HQPressure = clamp(s.HQPressure, 0, 1)
	s.Formation = clamp(s.Formation, 0, 1)
	s.FlankRatio = clamp(s.FlankRatio, 0, 1)
	s.ScreenRatio = clamp(s.ScreenRatio, 0, 1)
	if s.Weight < 1 {
		s.Weight = 1
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Canonical preset names, used by the adaptive override rules.
const (
	Deathball      = "Deathball"
	Turtle         = "Turtle"
	Guerrilla      = "Guerrilla"
	Rush           = "Rush"
	RangerFortress = "Ranger Fortress"
	Assassin       = "Assassin"
)

// DefaultCatalog returns the built-in preset catalog.
func DefaultCatalog() *Catalog {
	return newCatalog([]Strategy{
		{
			Name:        Deathball,
			Description: "Tight formation, overwhelming local force. Tanks front, rangers back.",
			Aggression:  0.6, FocusFire: 1.0, RetreatThreshold: 0.4,
			TerrainWeight: 1.5, HQPressure: 0.3, Formation: 1.0,
			Weight: 3,
		},
		{
			Name:        Turtle,
			Description: "Defensive posture. Hold terrain, let enemies come to us.",
			Aggression:  0.15, FocusFire: 0.8, RetreatThreshold: 0.7,
			TerrainWeight: 2.5, HQPressure: 0.1, Formation: 0.8,
			Weight: 2,
		},
		{
			Name:        Guerrilla,
			Description: "Split forces. Flankers pressure HQ while the main force skirmishes.",
			Aggression:  0.5, FocusFire: 0.6, RetreatThreshold: 0.5,
			TerrainWeight: 1.0, HQPressure: 0.8, Formation: 0.2,
			FlankRatio: 0.4,
			Weight:     3,
		},
		{
			Name:        Rush,
			Description: "All-in sprint toward the enemy HQ. Ignore fights, capture to win.",
			Aggression:  1.0, FocusFire: 0.3, RetreatThreshold: 0.1,
			TerrainWeight: 0.0, HQPressure: 1.0, Formation: 0.3,
			FlankRatio: 0.6,
			Weight:     1,
		},
		{
			Name:        RangerFortress,
			Description: "Rangers on defensive terrain behind a tank wall. Outrange everything.",
			Aggression:  0.3, FocusFire: 0.9, RetreatThreshold: 0.6,
			TerrainWeight: 2.0, HQPressure: 0.2, Formation: 0.9,
			ScreenRatio: 0.3,
			Weight:      2,
		},
		{
			Name:        Assassin,
			Description: "All-in on killing the highest-value enemy unit. Sacrifice if needed.",
			Aggression:  0.9, FocusFire: 1.0, RetreatThreshold: 0.2,
			TerrainWeight: 0.5, HQPressure: 0.2, Formation: 0.6,
			ValueTargets: true,
			Weight:       1,
		},
	})
}

// Catalog is a fixed, read-only set of presets. Safe for concurrent use
// after construction.
type Catalog struct {
	presets []Strategy
	byName  map[string]int
	pool    []int // preset indexes replicated by weight
}

func newCatalog(presets []Strategy) *Catalog {
	c := &Catalog{presets: presets, byName: make(map[string]int, len(presets))}
	for i := range c.presets {
		c.presets[i].Validate()
		c.byName[c.presets[i].Name] = i
		for n := 0; n < c.presets[i].Weight; n++ {
			c.pool = append(c.pool, i)
		}
	}
	return c
}

// Presets returns a copy of the catalog contents.
func (c *Catalog) Presets() []Strategy {
	out := make([]Strategy, len(c.presets))
	copy(out, c.presets)
	return out
}

// Get returns the preset with the given name.
func (c *Catalog) Get(name string) (Strategy, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Strategy{}, false
	}
	return c.presets[i], true
}

// Pick draws a preset from the weighted pool. The RNG is seeded from the
// match and side identifiers so the same game and player always get the
// same preset.
func (c *Catalog) Pick(gameID, playerID int) Strategy {
	rng := newRand(int64(gameID*10 + playerID))
	return c.presets[c.pool[rng.Intn(len(c.pool))]]
}

// newRand returns a seeded source; seed 0 is remapped so a zero game id
// still produces a usable stream.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}
