package sim

import (
	"fmt"
	"math/rand"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/planner"
	"github.com/hashfront/autoplay/strategy"
)

// Game is a mutable offline match. Planning still happens on the shared
// snapshot type; the engine owns mutation.
type Game struct {
	State *model.GameState
	rng   *rand.Rand

	// capture progress keyed by building index; moving off a contested
	// building resets it.
	captureBy       map[int]int
	captureProgress map[int]int

	winner  int
	winType string
}

// Win types reported by Result.
const (
	WinHQCapture   = "hq_capture"
	WinElimination = "elimination"
	WinTimeout     = "timeout"
)

// NewGame starts a match on a copy of the scenario.
func NewGame(m *Map, seed int64) *Game {
	units := make([]model.Unit, len(m.Units))
	copy(units, m.Units)
	buildings := make([]model.Building, len(m.Buildings))
	copy(buildings, m.Buildings)

	return &Game{
		State: &model.GameState{
			Info: model.GameInfo{
				Name:          m.Name,
				State:         model.StatePlaying,
				CurrentPlayer: 1,
				Round:         1,
				PlayerCount:   2,
			},
			Units:     units,
			Buildings: buildings,
			Grid:      m.Grid,
		},
		rng:             rand.New(rand.NewSource(seed)),
		captureBy:       make(map[int]int),
		captureProgress: make(map[int]int),
	}
}

// Winner returns the winning player and how they won, or 0 while the match
// is still running.
func (g *Game) Winner() (int, string) { return g.winner, g.winType }

func (g *Game) unit(id int) *model.Unit {
	for i := range g.State.Units {
		if g.State.Units[i].ID == id {
			return &g.State.Units[i]
		}
	}
	return nil
}

// Apply executes one player's planned actions under the offline rules.
// Unknown unit ids and attacks on already-dead targets are skipped, the
// same way the chain would revert individual calls.
func (g *Game) Apply(player int, actions []planner.Action) error {
	round := g.State.Info.Round
	for _, action := range actions {
		if g.winner != 0 {
			return nil
		}
		switch a := action.(type) {
		case planner.Move:
			u := g.unit(a.UnitID)
			if u == nil || !u.Alive() || len(a.Path) == 0 {
				continue
			}
			g.resetCaptureAt(u.Pos(), player)
			dest := a.Path[len(a.Path)-1]
			u.X, u.Y = dest.X, dest.Y
			u.LastMovedRound = round

		case planner.Attack:
			att := g.unit(a.UnitID)
			def := g.unit(a.TargetID)
			if att == nil || def == nil || !att.Alive() || !def.Alive() {
				continue
			}
			dist := att.Pos().Manhattan(def.Pos())
			moved := att.LastMovedRound == round
			dmgDef, dmgAtt := ResolveCombat(g.rng, *att, *def,
				g.State.Grid.At(att.Pos()), g.State.Grid.At(def.Pos()), dist, moved)
			g.damage(def, dmgDef)
			g.damage(att, dmgAtt)
			att.LastActedRound = round
			g.checkElimination()

		case planner.Capture:
			u := g.unit(a.UnitID)
			if u == nil || !u.Alive() || !u.Type.CanCapture() {
				continue
			}
			g.capture(u)
			u.LastActedRound = round

		case planner.Wait:
			if u := g.unit(a.UnitID); u != nil {
				u.LastActedRound = round
			}

		case planner.EndTurn:
			g.endTurn()

		default:
			return fmt.Errorf("sim: unknown action %T", action)
		}
	}
	return nil
}

func (g *Game) damage(u *model.Unit, dmg int) {
	u.HP -= dmg
	if u.HP <= 0 {
		u.HP = 0
		u.IsAlive = false
	}
}

// resetCaptureAt clears capture progress when the capturing player's unit
// leaves the building.
func (g *Game) resetCaptureAt(pos model.Position, player int) {
	for i, b := range g.State.Buildings {
		if b.Pos() == pos && g.captureBy[i] == player && g.captureProgress[i] > 0 {
			delete(g.captureBy, i)
			delete(g.captureProgress, i)
		}
	}
}

func (g *Game) capture(u *model.Unit) {
	for i := range g.State.Buildings {
		b := &g.State.Buildings[i]
		if b.Pos() != u.Pos() || b.PlayerID == u.PlayerID {
			continue
		}
		if g.captureBy[i] != u.PlayerID {
			g.captureBy[i] = u.PlayerID
			g.captureProgress[i] = 1
		} else {
			g.captureProgress[i]++
		}
		b.CaptureProgress = g.captureProgress[i]
		if g.captureProgress[i] >= CaptureThreshold {
			b.PlayerID = u.PlayerID
			b.CaptureProgress = 0
			delete(g.captureBy, i)
			delete(g.captureProgress, i)
			if b.Type == model.BuildingHQ {
				g.finish(u.PlayerID, WinHQCapture)
			}
		}
		return
	}
}

func (g *Game) checkElimination() {
	alive1 := len(g.State.AliveUnits(1))
	alive2 := len(g.State.AliveUnits(2))
	switch {
	case alive1 == 0 && alive2 > 0:
		g.finish(2, WinElimination)
	case alive2 == 0 && alive1 > 0:
		g.finish(1, WinElimination)
	}
}

func (g *Game) finish(winner int, winType string) {
	g.winner = winner
	g.winType = winType
	g.State.Info.State = model.StateFinished
	g.State.Info.Winner = winner
}

// endTurn advances play to the other side; the round counter ticks when
// play returns to player 1. Past MaxRounds the match resolves by total HP,
// then by unit count.
func (g *Game) endTurn() {
	info := &g.State.Info
	if info.CurrentPlayer == 1 {
		info.CurrentPlayer = 2
	} else {
		info.CurrentPlayer = 1
		info.Round++
	}

	if info.Round > MaxRounds && g.winner == 0 {
		hp1, hp2 := g.totalHP(1), g.totalHP(2)
		switch {
		case hp1 > hp2:
			g.finish(1, WinTimeout)
		case hp2 > hp1:
			g.finish(2, WinTimeout)
		case len(g.State.AliveUnits(1)) >= len(g.State.AliveUnits(2)):
			g.finish(1, WinTimeout)
		default:
			g.finish(2, WinTimeout)
		}
	}
}

func (g *Game) totalHP(player int) int {
	total := 0
	for _, u := range g.State.AliveUnits(player) {
		total += u.HP
	}
	return total
}

// Result summarizes one finished offline match.
type Result struct {
	Winner  int
	WinType string
	Rounds  int
	P1Kills int
	P2Kills int
}

// Play runs a full match between two presets and returns the outcome.
func Play(m *Map, p1, p2 strategy.Strategy, seed int64) (Result, error) {
	g := NewGame(m, seed)
	initial := map[int]int{
		1: len(g.State.AliveUnits(1)),
		2: len(g.State.AliveUnits(2)),
	}
	presets := map[int]strategy.Strategy{1: p1, 2: p2}

	for g.winner == 0 && g.State.Info.Round <= MaxRounds {
		player := g.State.Info.CurrentPlayer
		actions := planner.PlanTurnWith(g.State, player, presets[player])
		if err := g.Apply(player, actions); err != nil {
			return Result{}, err
		}
		// A capture turn carries no EndTurn action; when the capture did
		// not take the HQ the turn still passes.
		if g.winner == 0 && planner.HasCapture(actions) {
			g.endTurn()
		}
	}
	if g.winner == 0 {
		g.endTurn() // force timeout resolution
	}

	return Result{
		Winner:  g.winner,
		WinType: g.winType,
		Rounds:  g.State.Info.Round,
		P1Kills: initial[2] - len(g.State.AliveUnits(2)),
		P2Kills: initial[1] - len(g.State.AliveUnits(1)),
	}, nil
}
