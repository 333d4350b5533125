package strategy

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hashfront/autoplay/model"
)

// SituationEnv wraps a snapshot and exposes the helpers callable from
// override rule conditions. Roll draws from the round-and-side-seeded RNG,
// so override decisions are reproducible for identical snapshots.
type SituationEnv struct {
	State  *model.GameState
	Player int
	rng    *rand.Rand
}

func (e SituationEnv) MyCount() int    { return len(e.State.AliveUnits(e.Player)) }
func (e SituationEnv) EnemyCount() int { return len(e.State.EnemyUnits(e.Player)) }
func (e SituationEnv) Round() int      { return e.State.Info.Round }

func (e SituationEnv) MyUnits(t string) int {
	n := 0
	for _, u := range e.State.AliveUnits(e.Player) {
		if string(u.Type) == t {
			n++
		}
	}
	return n
}

func (e SituationEnv) EnemyUnits(t string) int {
	n := 0
	for _, u := range e.State.EnemyUnits(e.Player) {
		if string(u.Type) == t {
			n++
		}
	}
	return n
}

func (e SituationEnv) CountDiff() int { return e.MyCount() - e.EnemyCount() }

func (e SituationEnv) AbsCountDiff() int {
	d := e.CountDiff()
	if d < 0 {
		return -d
	}
	return d
}

// Roll consumes one draw from the seeded stream and reports whether it fell
// below p. Conditions are evaluated in a fixed order with short-circuiting,
// so the stream position is identical for identical snapshots.
func (e SituationEnv) Roll(p float64) bool { return e.rng.Float64() < p }

// overrideRule pairs a compiled situational condition with the preset pick
// it forces. Higher priority rules are evaluated first.
type overrideRule struct {
	name         string
	priority     int
	conditionSrc string
	program      *vm.Program
	pick         func(c *Catalog, env SituationEnv) (Strategy, bool)
}

// Selector resolves the preset governing a side's turn. The zero mode is
// the deterministic weighted pick; the adaptive mode applies situational
// override rules first.
type Selector struct {
	catalog *Catalog
	rules   []*overrideRule
}

// NewSelector compiles the adaptive override rules against the catalog.
// Compilation failures are programming errors and surface at startup.
func NewSelector(catalog *Catalog) (*Selector, error) {
	byName := func(name string) func(*Catalog, SituationEnv) (Strategy, bool) {
		return func(c *Catalog, _ SituationEnv) (Strategy, bool) { return c.Get(name) }
	}

	rules := []*overrideRule{
		{
			name:         "capture-rush",
			priority:     600,
			conditionSrc: `EnemyCount() == 0`,
			pick:         byName(Rush),
		},
		{
			name:         "grind-when-ahead",
			priority:     500,
			conditionSrc: `MyCount() >= EnemyCount() + 3 && Roll(0.5)`,
			pick:         byName(Turtle),
		},
		{
			name:         "desperation",
			priority:     400,
			conditionSrc: `EnemyCount() >= MyCount() + 3`,
			pick: func(c *Catalog, env SituationEnv) (Strategy, bool) {
				if env.rng.Intn(2) == 0 {
					return c.Get(Guerrilla)
				}
				return c.Get(Rush)
			},
		},
		{
			name:         "ranged-fortress",
			priority:     300,
			conditionSrc: `MyUnits("Ranger") >= 2 && MyUnits("Tank") >= 1 && Roll(0.4)`,
			pick:         byName(RangerFortress),
		},
		{
			name:         "tight-formation",
			priority:     200,
			conditionSrc: `EnemyUnits("Ranger") == 0 && Roll(0.4)`,
			pick:         byName(Deathball),
		},
		{
			name:         "late-game-assassin",
			priority:     100,
			conditionSrc: `Round() >= 12 && AbsCountDiff() <= 1 && Roll(0.3)`,
			pick:         byName(Assassin),
		},
	}

	for _, r := range rules {
		prog, err := expr.Compile(r.conditionSrc, expr.Env(SituationEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile override %q: %w", r.name, err)
		}
		r.program = prog
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].priority > rules[j].priority })

	return &Selector{catalog: catalog, rules: rules}, nil
}

// Catalog returns the selector's preset catalog.
func (s *Selector) Catalog() *Catalog { return s.catalog }

// Pick is the deterministic weighted draw, seeded by match and side.
func (s *Selector) Pick(gameID, playerID int) Strategy {
	st := s.catalog.Pick(gameID, playerID)
	slog.Debug("strategy picked", "game", gameID, "player", playerID, "strategy", st.Name)
	return st
}

// PickAdaptive applies the situational override rules in priority order and
// falls back to the weighted pick when none fire.
func (s *Selector) PickAdaptive(state *model.GameState, playerID int) Strategy {
	env := SituationEnv{
		State:  state,
		Player: playerID,
		rng:    newRand(int64(state.Info.GameID*10 + playerID + state.Info.Round)),
	}

	for _, r := range s.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("override condition error", "rule", r.name, "error", err)
			continue
		}
		if match, ok := result.(bool); !ok || !match {
			continue
		}
		if st, ok := r.pick(s.catalog, env); ok {
			slog.Debug("strategy override fired",
				"rule", r.name, "game", state.Info.GameID,
				"player", playerID, "round", state.Info.Round,
				"strategy", st.Name)
			return st
		}
	}
	return s.Pick(state.Info.GameID, playerID)
}
