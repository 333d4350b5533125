package planner

import (
	"sort"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/strategy"
)

// focusOrder ranks enemies for concentrated fire. The default ordering
// blends low hit points, high attack stat and proximity to our army's
// centroid, with the preset's focus-fire weight shifting emphasis between
// hit-points-first and proximity-first. Value-targeting presets instead
// rank purely by unit-type value, for assassination play.
func focusOrder(myUnits, enemies []model.Unit, strat strategy.Strategy) []model.Unit {
	if len(enemies) == 0 {
		return nil
	}
	out := make([]model.Unit, len(enemies))
	copy(out, enemies)

	if strat.ValueTargets {
		sort.SliceStable(out, func(i, j int) bool {
			vi, vj := unitValue(out[i].Type), unitValue(out[j].Type)
			if vi != vj {
				return vi > vj
			}
			return out[i].ID < out[j].ID
		})
		return out
	}

	center := centroid(myUnits)
	score := func(e model.Unit) float64 {
		w := strat.FocusFire
		dist := float64(e.Pos().Manhattan(center))
		return w*float64(e.HP) + (1-w)*dist - 0.2*float64(e.Type.Attack())
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := score(out[i]), score(out[j])
		if si != sj {
			return si < sj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// unitValue orders types heavy > ranged > light.
func unitValue(ut model.UnitType) int {
	switch ut {
	case model.Tank:
		return 3
	case model.Ranger:
		return 2
	default:
		return 1
	}
}

// centroid returns the truncated average position of the given units.
func centroid(units []model.Unit) model.Position {
	if len(units) == 0 {
		return model.Position{}
	}
	var sx, sy int
	for _, u := range units {
		sx += u.X
		sy += u.Y
	}
	return model.Position{X: sx / len(units), Y: sy / len(units)}
}

// damageLedger tracks expected damage already assigned to each target this
// turn. Combat resolution on chain is probabilistic; the ledger is the
// planner's deterministic floor, used only to stop overkill.
type damageLedger map[int]int

// record books the expected damage of an attack against target.
func (l damageLedger) record(attacker model.Unit, target model.Unit, grid *model.Grid) {
	dmg := attacker.Type.Attack() - grid.At(target.Pos()).Defense()
	if dmg < 1 {
		dmg = 1
	}
	l[target.ID] += dmg
}

// spent reports whether enough damage is already assigned to drop target.
// Such a target is excluded from further selection this turn.
func (l damageLedger) spent(target model.Unit) bool {
	return target.HP <= l[target.ID]
}
