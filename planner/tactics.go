package planner

import (
	"log/slog"
	"math"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/pathfind"
)

// Each tactic returns the unit's planned actions plus its final position so
// the caller can update the working occupancy set.

// planMarcher advances a unit toward the enemy HQ and captures on arrival.
// Used when no enemy units remain.
func planMarcher(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()
	if !ctx.hasHQ {
		return []Action{Wait{UnitID: u.ID}}, pos
	}

	if pos == ctx.enemyHQ {
		if u.Type.CanCapture() {
			slog.Debug("capturing HQ", "unit", u.ID, "at", pos)
			return []Action{Capture{UnitID: u.ID}}, pos
		}
		return []Action{Wait{UnitID: u.ID}}, pos // heavies can't capture
	}

	path := pathfind.BestMoveToward(ctx.gs.Grid, pos, ctx.enemyHQ, u.Type, ctx.blockedFor(pos))
	if len(path) == 0 {
		return []Action{Wait{UnitID: u.ID}}, pos
	}

	newPos := path[len(path)-1]
	actions := []Action{Move{UnitID: u.ID, Path: path}}
	if newPos == ctx.enemyHQ && u.Type.CanCapture() {
		actions = append(actions, Capture{UnitID: u.ID})
	}
	return actions, newPos
}

// planFlanker sprints toward the enemy HQ, trading straight-line progress
// against local danger net of terrain cover, and captures if it ends the
// move on the objective.
func planFlanker(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()
	if !ctx.hasHQ {
		return planCombat(ctx, u)
	}
	if pos == ctx.enemyHQ && u.Type.CanCapture() {
		return []Action{Capture{UnitID: u.ID}}, pos
	}

	grid := ctx.gs.Grid
	trueDist := pathfind.Distances(grid, ctx.enemyHQ, u.Type)
	reach := pathfind.Search(grid, pos, u.Type, ctx.blockedFor(pos), u.Type.MoveRange())

	score := func(p model.Position) float64 {
		d, ok := trueDist[p]
		if !ok {
			return math.Inf(1)
		}
		exposure := float64(ctx.danger[p] - grid.At(p).Defense())
		return float64(d) + 0.3*exposure
	}

	best := pos
	bestScore := score(pos)
	for _, tile := range reach.Order {
		if s := score(tile); s < bestScore {
			bestScore = s
			best = tile
		}
	}
	if best == pos {
		return []Action{Wait{UnitID: u.ID}}, pos
	}

	step, _ := reach.At(best)
	actions := []Action{Move{UnitID: u.ID, Path: step.Path}}
	if best == ctx.enemyHQ && u.Type.CanCapture() {
		actions = append(actions, Capture{UnitID: u.ID})
	}
	return actions, best
}

// planRetreat moves a damaged unit to the reachable tile with the least
// danger net of preset-weighted terrain cover. Ties break toward our own
// HQ under a passive preset, away from the enemy centroid otherwise.
func planRetreat(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()
	grid := ctx.gs.Grid
	reach := pathfind.Search(grid, pos, u.Type, ctx.blockedFor(pos), u.Type.MoveRange())
	enemyCenter := centroid(ctx.enemies)

	type retreatScore struct {
		exposure float64
		tie      int
	}
	score := func(p model.Position) retreatScore {
		s := retreatScore{
			exposure: float64(ctx.danger[p]) - float64(grid.At(p).Defense())*ctx.strat.TerrainWeight,
		}
		if ctx.strat.Aggression < 0.3 && ctx.hasMyHQ {
			s.tie = p.Manhattan(ctx.myHQ) // toward home
		} else {
			s.tie = -p.Manhattan(enemyCenter) // away from the enemy
		}
		return s
	}
	better := func(a, b retreatScore) bool {
		if a.exposure != b.exposure {
			return a.exposure < b.exposure
		}
		return a.tie < b.tie
	}

	best := pos
	bestScore := score(pos)
	for _, tile := range reach.Order {
		if s := score(tile); better(s, bestScore) {
			bestScore = s
			best = tile
		}
	}

	if best == pos {
		slog.Debug("retreat blocked", "unit", u.ID, "hp", u.HP, "danger", ctx.danger[pos])
		return []Action{Wait{UnitID: u.ID}}, pos
	}

	step, _ := reach.At(best)
	slog.Debug("retreat", "unit", u.ID, "hp", u.HP,
		"from_danger", ctx.danger[pos], "to_danger", ctx.danger[best])
	return []Action{Move{UnitID: u.ID, Path: step.Path}, Wait{UnitID: u.ID}}, best
}

// planScreener keeps a cheap body between the nearest enemy and our
// nearest ranged unit. With no ranged ally to protect it fights as an
// ordinary melee unit.
func planScreener(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()

	if target := pickFocusTarget(ctx, u, pos); target != nil {
		ctx.ledger.record(u, *target, ctx.gs.Grid)
		actions := []Action{Attack{UnitID: u.ID, TargetID: target.ID}}
		return appendWaitIfSafe(ctx, actions, u, pos, target), pos
	}

	ranged := nearestFriendlyRanged(ctx, u)
	if ranged == nil {
		return planMelee(ctx, u)
	}
	enemy := nearestEnemy(ctx, pos)

	// Screen position: biased toward the ranged ally so the body stays in
	// front of it rather than on top of the enemy.
	goal := model.Position{
		X: int(math.Round(0.4*float64(enemy.X) + 0.6*float64(ranged.X))),
		Y: int(math.Round(0.4*float64(enemy.Y) + 0.6*float64(ranged.Y))),
	}

	newPos := pos
	var actions []Action
	if path := pathfind.BestMoveToward(ctx.gs.Grid, pos, goal, u.Type, ctx.blockedFor(pos)); len(path) > 0 {
		newPos = path[len(path)-1]
		actions = append(actions, Move{UnitID: u.ID, Path: path})
	}

	var target *model.Unit
	if t := pickFocusTarget(ctx, u, newPos); t != nil {
		ctx.ledger.record(u, *t, ctx.gs.Grid)
		actions = append(actions, Attack{UnitID: u.ID, TargetID: t.ID})
		target = t
	}
	return appendWaitIfSafe(ctx, actions, u, newPos, target), newPos
}

// planCombat dispatches a main-force unit to its per-type tactic.
func planCombat(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	if u.Type == model.Ranger {
		return planRanged(ctx, u)
	}
	return planMelee(ctx, u)
}

// planRanged fires from the current tile when a focus target is in range,
// otherwise repositions to the best sniping tile: in range of the top
// target first, then lowest danger net of cover, then closest. Moving into
// melee reach is the last resort.
func planRanged(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()
	grid := ctx.gs.Grid

	if target := pickFocusTarget(ctx, u, pos); target != nil {
		ctx.ledger.record(u, *target, ctx.gs.Grid)
		slog.Debug("snipe", "unit", u.ID, "target", target.ID)
		actions := []Action{Attack{UnitID: u.ID, TargetID: target.ID}}
		return appendWaitIfSafe(ctx, actions, u, pos, target), pos
	}

	primary := ctx.focus[0]
	primaryPos := primary.Pos()
	band := u.Type.AttackRange()
	blocked := ctx.blockedFor(pos)
	reach := pathfind.Search(grid, pos, u.Type, blocked, u.Type.MoveRange())

	type snipeScore struct {
		outOfRange int
		exposure   float64
		dist       int
	}
	better := func(a, b snipeScore) bool {
		if a.outOfRange != b.outOfRange {
			return a.outOfRange < b.outOfRange
		}
		if a.exposure != b.exposure {
			return a.exposure < b.exposure
		}
		return a.dist < b.dist
	}

	found := false
	var best model.Position
	var bestScore snipeScore
	for _, tile := range reach.Order {
		d := tile.Manhattan(primaryPos)
		s := snipeScore{
			exposure: float64(ctx.danger[tile]) - float64(grid.At(tile).Defense())*ctx.strat.TerrainWeight,
			dist:     d,
		}
		if !band.Contains(d) {
			s.outOfRange = 1
		}
		if !found || better(s, bestScore) {
			found = true
			best = tile
			bestScore = s
		}
	}

	newPos := pos
	var actions []Action
	var target *model.Unit
	if found && best != pos {
		step, _ := reach.At(best)
		actions = append(actions, Move{UnitID: u.ID, Path: step.Path})
		newPos = best
		if t := pickFocusTarget(ctx, u, newPos); t != nil {
			ctx.ledger.record(u, *t, ctx.gs.Grid)
			actions = append(actions, Attack{UnitID: u.ID, TargetID: t.ID})
			target = t
		}
	} else if path := pathfind.BestMoveToward(grid, pos, primaryPos, u.Type, blocked); len(path) > 0 {
		actions = append(actions, Move{UnitID: u.ID, Path: path})
		newPos = path[len(path)-1]
	}
	return appendWaitIfSafe(ctx, actions, u, newPos, target), newPos
}

// planMelee attacks an adjacent focus target, charges to a tile adjacent to
// the top target, or advances on a composite of true distance, cover and
// danger. Passive presets hold defensible ground instead of advancing.
func planMelee(ctx *turnContext, u model.Unit) ([]Action, model.Position) {
	pos := u.Pos()
	grid := ctx.gs.Grid

	if target := pickFocusTarget(ctx, u, pos); target != nil {
		ctx.ledger.record(u, *target, ctx.gs.Grid)
		slog.Debug("attack", "unit", u.ID, "target", target.ID)
		actions := []Action{Attack{UnitID: u.ID, TargetID: target.ID}}
		return appendWaitIfSafe(ctx, actions, u, pos, target), pos
	}

	if ctx.strat.Aggression <= 0.2 && grid.At(pos).Defense() >= 1 {
		return []Action{Wait{UnitID: u.ID}}, pos // hold the ground
	}

	primary := ctx.focus[0]
	primaryPos := primary.Pos()
	blocked := ctx.blockedFor(pos)

	newPos := pos
	var actions []Action
	var target *model.Unit
	if path, ok := pathfind.AdjacentTo(grid, primaryPos, pos, u.Type, blocked); ok {
		actions = append(actions, Move{UnitID: u.ID, Path: path})
		newPos = path[len(path)-1]
		if t := pickFocusTarget(ctx, u, newPos); t != nil {
			ctx.ledger.record(u, *t, ctx.gs.Grid)
			actions = append(actions, Attack{UnitID: u.ID, TargetID: t.ID})
			target = t
		}
	} else if tile, path, ok := bestAdvanceTile(ctx, u, primaryPos, blocked); ok {
		actions = append(actions, Move{UnitID: u.ID, Path: path})
		newPos = tile
	}
	return appendWaitIfSafe(ctx, actions, u, newPos, target), newPos
}

// bestAdvanceTile scores reachable tiles toward the goal: true path
// distance discounted by aggression, terrain cover amplified by the terrain
// weight, and local danger discounted by aggression.
func bestAdvanceTile(ctx *turnContext, u model.Unit, goal model.Position, blocked map[model.Position]bool) (model.Position, []model.Position, bool) {
	grid := ctx.gs.Grid
	agg := ctx.strat.Aggression
	trueDist := pathfind.Distances(grid, goal, u.Type)
	reach := pathfind.Search(grid, u.Pos(), u.Type, blocked, u.Type.MoveRange())

	found := false
	var best model.Position
	bestScore := math.Inf(1)
	for _, tile := range reach.Order {
		d, ok := trueDist[tile]
		if !ok {
			continue
		}
		score := float64(d)*(1-0.3*agg) -
			float64(grid.At(tile).Defense())*1.5*ctx.strat.TerrainWeight +
			float64(ctx.danger[tile])*0.3*(1-agg)
		if score < bestScore {
			bestScore = score
			best = tile
			found = true
		}
	}
	if !found {
		return model.Position{}, nil, false
	}
	step, _ := reach.At(best)
	return best, step.Path, true
}

// pickFocusTarget returns the highest-priority focus target that is alive,
// not already covered by the overkill ledger, and in attack range from pos.
func pickFocusTarget(ctx *turnContext, u model.Unit, pos model.Position) *model.Unit {
	for i := range ctx.focus {
		t := &ctx.focus[i]
		if !t.Alive() || ctx.ledger.spent(*t) {
			continue
		}
		if u.Type.InAttackRange(pos, t.Pos()) {
			return t
		}
	}
	return nil
}

// appendWaitIfSafe closes a unit's activation with Wait unless the unit
// just attacked a survivor whose counterattack would be lethal from our
// terrain; in that case the activation ends on the attack itself. No
// corrective repositioning is attempted.
func appendWaitIfSafe(ctx *turnContext, actions []Action, u model.Unit, pos model.Position, lastTarget *model.Unit) []Action {
	if len(actions) == 0 {
		return append(actions, Wait{UnitID: u.ID})
	}
	if lastTarget != nil && lastTarget.Alive() && !ctx.ledger.spent(*lastTarget) {
		counter := lastTarget.Type.Attack() - ctx.gs.Grid.At(pos).Defense()
		if counter < 1 {
			counter = 1
		}
		if u.HP <= counter {
			return actions
		}
	}
	return append(actions, Wait{UnitID: u.ID})
}

// nearestEnemy returns the position of the closest living enemy.
func nearestEnemy(ctx *turnContext, pos model.Position) model.Position {
	best := ctx.enemies[0].Pos()
	bestDist := pos.Manhattan(best)
	for _, e := range ctx.enemies[1:] {
		if d := pos.Manhattan(e.Pos()); d < bestDist {
			bestDist = d
			best = e.Pos()
		}
	}
	return best
}

// nearestFriendlyRanged returns the closest living friendly ranged unit,
// or nil when the army has none.
func nearestFriendlyRanged(ctx *turnContext, u model.Unit) *model.Unit {
	var best *model.Unit
	bestDist := 0
	for _, f := range ctx.gs.AliveUnits(ctx.player) {
		if f.Type != model.Ranger || f.ID == u.ID {
			continue
		}
		d := u.Pos().Manhattan(f.Pos())
		if best == nil || d < bestDist {
			f := f
			best = &f
			bestDist = d
		}
	}
	return best
}
