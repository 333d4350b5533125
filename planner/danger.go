package planner

import (
	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/pathfind"
)

// DangerMap records, per tile, the total damage the enemy side could deal
// there next turn. It is a worst-case, single-enemy-additive bound: every
// enemy is assumed free to reposition anywhere it could individually reach,
// so the map overstates coordinated danger on purpose.
type DangerMap map[model.Position]int

// BuildDangerMap computes the danger map for the given enemies. Enemy
// movement is searched with no occupancy constraints, since the opposing
// side can rearrange its own army before striking.
func BuildDangerMap(gs *model.GameState, enemies []model.Unit) DangerMap {
	danger := make(DangerMap)
	for _, enemy := range enemies {
		atk := enemy.Type.Attack()
		band := enemy.Type.AttackRange()

		reach := pathfind.Search(gs.Grid, enemy.Pos(), enemy.Type, nil, enemy.Type.MoveRange())
		from := append([]model.Position{enemy.Pos()}, reach.Order...)
		for _, tile := range from {
			for _, hit := range tilesInBand(gs.Grid, tile, band) {
				dmg := atk - gs.Grid.At(hit).Defense()
				if dmg < 1 {
					dmg = 1
				}
				danger[hit] += dmg
			}
		}
	}
	return danger
}

// tilesInBand returns all in-bounds tiles whose Manhattan distance from pos
// falls inside the attack band.
func tilesInBand(grid *model.Grid, pos model.Position, band model.RangeBand) []model.Position {
	var out []model.Position
	for dy := -band.Max; dy <= band.Max; dy++ {
		for dx := -band.Max; dx <= band.Max; dx++ {
			d := abs(dx) + abs(dy)
			if !band.Contains(d) {
				continue
			}
			p := model.Position{X: pos.X + dx, Y: pos.Y + dy}
			if grid.In(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
