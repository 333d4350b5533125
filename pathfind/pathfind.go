// Package pathfind implements the movement searches used by the planner:
// budgeted Dijkstra expansion with path reconstruction, true path distance,
// and attack/adjacent position discovery.
//
// Every search breaks cost ties by coordinate so identical inputs always
// settle tiles in the same order. Callers that scan for a "first minimum"
// must iterate Reachable.Order, never a Go map.
package pathfind

import (
	"container/heap"

	"github.com/hashfront/autoplay/model"
)

// Step holds the cost to reach a tile and the concrete path taken, as an
// ordered list of entered tiles (the start tile is not part of the path).
type Step struct {
	Cost int
	Path []model.Position
}

// Reachable is the result of a budgeted movement search.
type Reachable struct {
	steps map[model.Position]Step
	// Order lists reached tiles in settle order (ascending cost, ties by
	// coordinate). The start tile is never included.
	Order []model.Position
}

// At returns the step for a tile, if the tile was reached.
func (r *Reachable) At(p model.Position) (Step, bool) {
	s, ok := r.steps[p]
	return s, ok
}

// Contains reports whether the search reached p.
func (r *Reachable) Contains(p model.Position) bool {
	_, ok := r.steps[p]
	return ok
}

// Len returns the number of reached tiles.
func (r *Reachable) Len() int { return len(r.steps) }

type node struct {
	cost int
	pos  model.Position
	path []model.Position
}

// frontier orders nodes by cost, then Y, then X. The coordinate tie-break
// keeps expansion order independent of heap internals.
type frontier []node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	if f[i].pos.Y != f[j].pos.Y {
		return f[i].pos.Y < f[j].pos.Y
	}
	return f[i].pos.X < f[j].pos.X
}
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)         { *f = append(*f, x.(node)) }
func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

// Search computes every tile reachable from start within the movement
// budget (inclusive), for the given unit type. Blocked tiles are excluded
// both as transit cells and as destinations. The start tile is excluded
// from the result.
func Search(grid *model.Grid, start model.Position, ut model.UnitType, blocked map[model.Position]bool, budget int) *Reachable {
	out := &Reachable{steps: make(map[model.Position]Step)}
	settled := make(map[model.Position]bool)

	f := &frontier{{cost: 0, pos: start}}
	var scratch []model.Position

	for f.Len() > 0 {
		n := heap.Pop(f).(node)
		if settled[n.pos] {
			continue
		}
		settled[n.pos] = true
		if n.pos != start {
			out.steps[n.pos] = Step{Cost: n.cost, Path: n.path}
			out.Order = append(out.Order, n.pos)
		}
		if n.cost >= budget {
			continue
		}
		scratch = grid.Neighbors(scratch[:0], n.pos)
		for _, next := range scratch {
			if settled[next] || blocked[next] {
				continue
			}
			step, ok := grid.At(next).MoveCost(ut)
			if !ok {
				continue
			}
			cost := n.cost + step
			if cost > budget {
				continue
			}
			path := make([]model.Position, len(n.path)+1)
			copy(path, n.path)
			path[len(n.path)] = next
			heap.Push(f, node{cost: cost, pos: next, path: path})
		}
	}
	return out
}

// Distances runs a reverse Dijkstra from goal, ignoring movement budget and
// unit occupancy, and returns the true terrain-cost distance from every
// connected tile to the goal. Straight-line distance misleads around
// impassable bands; directional scoring must use these values instead.
func Distances(grid *model.Grid, goal model.Position, ut model.UnitType) map[model.Position]int {
	dist := make(map[model.Position]int)
	f := &frontier{{cost: 0, pos: goal}}
	var scratch []model.Position

	for f.Len() > 0 {
		n := heap.Pop(f).(node)
		if _, ok := dist[n.pos]; ok {
			continue
		}
		dist[n.pos] = n.cost
		scratch = grid.Neighbors(scratch[:0], n.pos)
		for _, next := range scratch {
			if _, ok := dist[next]; ok {
				continue
			}
			step, ok := grid.At(next).MoveCost(ut)
			if !ok {
				continue
			}
			heap.Push(f, node{cost: n.cost + step, pos: next})
		}
	}
	return dist
}

// BestMoveToward returns the path to goal if it is reachable this turn,
// otherwise the path to the reachable tile with the strictly smallest true
// path distance to goal. A nil path means the unit cannot make progress and
// should wait.
func BestMoveToward(grid *model.Grid, start, goal model.Position, ut model.UnitType, blocked map[model.Position]bool) []model.Position {
	reach := Search(grid, start, ut, blocked, ut.MoveRange())

	if s, ok := reach.At(goal); ok && len(s.Path) > 0 {
		return s.Path
	}

	trueDist := Distances(grid, goal, ut)
	startDist, ok := trueDist[start]
	if !ok {
		return nil // goal cut off entirely
	}

	best := -1
	bestDist := startDist
	for i, tile := range reach.Order {
		d, ok := trueDist[tile]
		if !ok {
			continue
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	s, _ := reach.At(reach.Order[best])
	return s.Path
}

// AttackPosition finds a reachable tile from which a unit of type ut could
// attack targetPos. It returns an empty path when the unit is already in
// range from unitPos, the cheapest-to-reach firing tile otherwise, and
// ok=false when no firing position is reachable this turn.
func AttackPosition(grid *model.Grid, unitPos, targetPos model.Position, ut model.UnitType, blocked map[model.Position]bool) (path []model.Position, ok bool) {
	band := ut.AttackRange()
	if band.Contains(unitPos.Manhattan(targetPos)) {
		return []model.Position{}, true
	}

	reach := Search(grid, unitPos, ut, blocked, ut.MoveRange())
	bestCost := -1
	for _, tile := range reach.Order {
		if !band.Contains(tile.Manhattan(targetPos)) {
			continue
		}
		s, _ := reach.At(tile)
		if bestCost < 0 || s.Cost < bestCost {
			bestCost = s.Cost
			path = s.Path
		}
	}
	if bestCost < 0 {
		return nil, false
	}
	return path, true
}

// AdjacentTo finds the cheapest reachable tile that is a four-directional
// neighbor of target. For melee units. ok=false when no such tile is
// reachable this turn.
func AdjacentTo(grid *model.Grid, target, start model.Position, ut model.UnitType, blocked map[model.Position]bool) (path []model.Position, ok bool) {
	reach := Search(grid, start, ut, blocked, ut.MoveRange())
	bestCost := -1
	var scratch []model.Position
	for _, n := range grid.Neighbors(scratch, target) {
		s, found := reach.At(n)
		if !found || len(s.Path) == 0 {
			continue
		}
		if bestCost < 0 || s.Cost < bestCost {
			bestCost = s.Cost
			path = s.Path
		}
	}
	if bestCost < 0 {
		return nil, false
	}
	return path, true
}
