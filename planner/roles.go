package planner

import (
	"math"
	"sort"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/strategy"
)

// roleSplit is the per-turn partition of eligible units into mutually
// exclusive roles. Assignment order matters: flankers are pulled first,
// screeners from what remains, and the rest are triaged retreat/attack.
type roleSplit struct {
	flankers   []model.Unit
	screeners  []model.Unit
	retreaters []model.Unit
	attackers  []model.Unit
}

// partitionRoles splits the actionable units according to the preset's
// role-allocation fractions and retreat triage.
func partitionRoles(actionable, enemies []model.Unit, danger DangerMap, strat strategy.Strategy) roleSplit {
	var split roleSplit
	enemyCenter := centroid(enemies)

	taken := make(map[int]bool)

	// Flankers: light melee farthest from the enemy army, best placed to
	// swing wide toward the HQ.
	infantry := filterType(actionable, model.Infantry)
	nFlank := int(strat.FlankRatio * float64(len(infantry)))
	if nFlank > 0 {
		sort.SliceStable(infantry, func(i, j int) bool {
			di := infantry[i].Pos().Manhattan(enemyCenter)
			dj := infantry[j].Pos().Manhattan(enemyCenter)
			if di != dj {
				return di > dj
			}
			return infantry[i].ID < infantry[j].ID
		})
		for _, u := range infantry[:nFlank] {
			split.flankers = append(split.flankers, u)
			taken[u.ID] = true
		}
	}

	// Screeners: lowest-HP light melee of the remainder, spent shielding
	// the ranged units.
	remaining := exclude(actionable, taken)
	screenPool := filterType(remaining, model.Infantry)
	nScreen := int(strat.ScreenRatio * float64(len(screenPool)))
	if nScreen > 0 {
		sort.SliceStable(screenPool, func(i, j int) bool {
			if screenPool[i].HP != screenPool[j].HP {
				return screenPool[i].HP < screenPool[j].HP
			}
			return screenPool[i].ID < screenPool[j].ID
		})
		for _, u := range screenPool[:nScreen] {
			split.screeners = append(split.screeners, u)
			taken[u.ID] = true
		}
	}

	// Everyone else: retreat triage, then the attack force.
	for _, u := range exclude(actionable, taken) {
		if shouldRetreat(u, danger, strat) {
			split.retreaters = append(split.retreaters, u)
		} else {
			split.attackers = append(split.attackers, u)
		}
	}
	return split
}

// shouldRetreat reports whether a unit is damaged enough, and threatened
// enough, to pull back: at or below the preset fraction of max HP, facing
// projected damage at least equal to its HP, and not already at full
// health.
func shouldRetreat(u model.Unit, danger DangerMap, strat strategy.Strategy) bool {
	maxHP := u.Type.MaxHP()
	if u.HP >= maxHP {
		return false
	}
	threshold := int(math.Ceil(strat.RetreatThreshold * float64(maxHP)))
	if u.HP > threshold {
		return false
	}
	incoming := danger[u.Pos()]
	return incoming > 0 && u.HP <= incoming
}

func filterType(units []model.Unit, ut model.UnitType) []model.Unit {
	var out []model.Unit
	for _, u := range units {
		if u.Type == ut {
			out = append(out, u)
		}
	}
	return out
}

func exclude(units []model.Unit, taken map[int]bool) []model.Unit {
	var out []model.Unit
	for _, u := range units {
		if !taken[u.ID] {
			out = append(out, u)
		}
	}
	return out
}
