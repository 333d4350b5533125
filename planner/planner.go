// Package planner turns a battle snapshot into a complete, legal action
// sequence for one side's turn. Planning is pure and deterministic: given
// the same snapshot, catalog and identifiers it emits a bit-identical
// action list, so it is safe to call concurrently for independent matches.
package planner

import (
	"log/slog"
	"sort"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/pathfind"
	"github.com/hashfront/autoplay/strategy"
)

// Planner plans turns using a strategy selector. Adaptive mode lets
// situational override rules pick the preset before the seeded draw.
type Planner struct {
	selector *strategy.Selector
	adaptive bool
}

// New returns a planner backed by the given selector.
func New(selector *strategy.Selector, adaptive bool) *Planner {
	return &Planner{selector: selector, adaptive: adaptive}
}

// PlanTurn plans all actions for the given player's turn.
func (p *Planner) PlanTurn(gs *model.GameState, player int) []Action {
	var strat strategy.Strategy
	if p.adaptive {
		strat = p.selector.PickAdaptive(gs, player)
	} else {
		strat = p.selector.Pick(gs.Info.GameID, player)
	}
	return PlanTurnWith(gs, player, strat)
}

// turnContext carries the per-turn working state shared by the tactic
// functions. occupied is the planner's only mutable set: it simulates the
// sequential effect of already-planned moves within the turn.
type turnContext struct {
	gs       *model.GameState
	player   int
	strat    strategy.Strategy
	danger   DangerMap
	focus    []model.Unit
	ledger   damageLedger
	occupied map[model.Position]bool
	enemies  []model.Unit
	enemyHQ  model.Position
	hasHQ    bool
	myHQ     model.Position
	hasMyHQ  bool
}

// blockedFor returns the occupied set with the acting unit's own tile
// removed, for use as the blocked set of its movement search.
func (c *turnContext) blockedFor(pos model.Position) map[model.Position]bool {
	blocked := make(map[model.Position]bool, len(c.occupied))
	for p, v := range c.occupied {
		if v && p != pos {
			blocked[p] = true
		}
	}
	return blocked
}

// applyMove updates the working occupancy set after a planned move.
func (c *turnContext) applyMove(from, to model.Position) {
	if from != to {
		delete(c.occupied, from)
		c.occupied[to] = true
	}
}

// PlanTurnWith plans all actions for one turn under an explicit preset.
// The returned list is never empty and always terminates: every phase falls
// back to Wait when a unit has no legal destination, and the list ends with
// exactly one EndTurn unless a Capture is present.
func PlanTurnWith(gs *model.GameState, player int, strat strategy.Strategy) []Action {
	myUnits := gs.AliveUnits(player)
	if len(myUnits) == 0 {
		return []Action{EndTurn{}}
	}

	round := gs.Info.Round
	var actionable []model.Unit
	for _, u := range myUnits {
		if u.LastActedRound < round {
			actionable = append(actionable, u)
		}
	}
	if len(actionable) == 0 {
		return []Action{EndTurn{}}
	}

	enemies := gs.EnemyUnits(player)
	enemyHQ, hasHQ := gs.HQ(model.Opponent(player))
	myHQ, hasMyHQ := gs.HQ(player)

	ctx := &turnContext{
		gs:       gs,
		player:   player,
		strat:    strat,
		ledger:   make(damageLedger),
		occupied: gs.OccupiedPositions(),
		enemies:  enemies,
		enemyHQ:  enemyHQ,
		hasHQ:    hasHQ,
		myHQ:     myHQ,
		hasMyHQ:  hasMyHQ,
	}

	// No opposition left: march everything at the HQ.
	if len(enemies) == 0 {
		actions := planCaptureMarch(ctx, actionable)
		if !HasCapture(actions) {
			actions = append(actions, EndTurn{})
		}
		return actions
	}

	ctx.danger = BuildDangerMap(gs, enemies)
	ctx.focus = focusOrder(myUnits, enemies, strat)
	split := partitionRoles(actionable, enemies, ctx.danger, strat)

	slog.Debug("turn plan",
		"game", gs.Info.GameID, "player", player, "round", round,
		"strategy", strat.Name,
		"flankers", len(split.flankers), "screeners", len(split.screeners),
		"retreaters", len(split.retreaters), "attackers", len(split.attackers))

	var actions []Action
	run := func(units []model.Unit, tactic func(*turnContext, model.Unit) ([]Action, model.Position)) {
		for _, u := range units {
			planned, newPos := tactic(ctx, u)
			actions = append(actions, planned...)
			ctx.applyMove(u.Pos(), newPos)
		}
	}

	run(split.flankers, planFlanker)
	run(split.retreaters, planRetreat)
	run(split.screeners, planScreener)

	// The main force converges on the top focus target; closest units act
	// first so they claim the best tiles.
	if len(ctx.focus) > 0 {
		top := ctx.focus[0].Pos()
		sort.SliceStable(split.attackers, func(i, j int) bool {
			di := split.attackers[i].Pos().Manhattan(top)
			dj := split.attackers[j].Pos().Manhattan(top)
			if di != dj {
				return di < dj
			}
			return split.attackers[i].ID < split.attackers[j].ID
		})
	}
	run(split.attackers, planCombat)

	if !HasCapture(actions) {
		actions = append(actions, EndTurn{})
	}
	return actions
}

// planCaptureMarch sends every eligible unit toward the enemy HQ, nearest
// first by true path distance, capturing on arrival.
func planCaptureMarch(ctx *turnContext, actionable []model.Unit) []Action {
	if ctx.hasHQ {
		dists := make(map[model.UnitType]map[model.Position]int)
		for _, u := range actionable {
			if _, ok := dists[u.Type]; !ok {
				dists[u.Type] = pathfind.Distances(ctx.gs.Grid, ctx.enemyHQ, u.Type)
			}
		}
		trueDist := func(u model.Unit) int {
			if d, ok := dists[u.Type][u.Pos()]; ok {
				return d
			}
			return 1 << 20 // cut off from the HQ, march last
		}
		sort.SliceStable(actionable, func(i, j int) bool {
			di, dj := trueDist(actionable[i]), trueDist(actionable[j])
			if di != dj {
				return di < dj
			}
			return actionable[i].ID < actionable[j].ID
		})
	}

	var actions []Action
	for _, u := range actionable {
		planned, newPos := planMarcher(ctx, u)
		actions = append(actions, planned...)
		ctx.applyMove(u.Pos(), newPos)
	}
	return actions
}
