// Package sim is an offline, probabilistic replica of the on-chain game
// rules. It replays full matches between strategy presets without touching
// the chain, for balance testing and planner regression.
package sim

import (
	"math/rand"

	"github.com/hashfront/autoplay/model"
)

// Combat constants mirrored from the game contracts.
const (
	CaptureThreshold = 2
	MaxRounds        = 30
)

var accuracy = map[model.UnitType]int{
	model.Infantry: 90,
	model.Tank:     85,
	model.Ranger:   88,
}

var evasion = map[model.TerrainType]int{
	model.Tree:     5,
	model.Mountain: 12,
	model.HQTile:   10,
	model.City:     8,
	model.Factory:  8,
}

// HitChance returns the strike's hit chance in percent, clamped to 75-95.
// Moving before firing and ranger shots at maximum range each cost 5.
func HitChance(atk model.UnitType, defTile model.TerrainType, moved bool, distance int) int {
	chance := accuracy[atk]
	chance -= evasion[defTile]
	if moved {
		chance -= 5
	}
	if atk == model.Ranger && distance == 3 {
		chance -= 5
	}
	if chance < 75 {
		return 75
	}
	if chance > 95 {
		return 95
	}
	return chance
}

// ResolveStrike rolls a single strike and returns the damage dealt: full
// damage on a hit, 1 on a graze when full damage is at least 2, else 0.
func ResolveStrike(rng *rand.Rand, atk model.UnitType, defTile model.TerrainType, moved bool, distance int) int {
	hitDmg := atk.Attack() - defTile.Defense()
	if hitDmg < 1 {
		hitDmg = 1
	}
	roll := 1 + rng.Intn(100)
	switch {
	case roll <= HitChance(atk, defTile, moved, distance):
		return hitDmg
	case hitDmg >= 2:
		return 1
	default:
		return 0
	}
}

// ResolveCombat runs one exchange. The defender counterattacks only if it
// survives the strike and the attacker sits inside its range band.
func ResolveCombat(rng *rand.Rand, attacker, defender model.Unit, atkTile, defTile model.TerrainType, distance int, attackerMoved bool) (dmgToDefender, dmgToAttacker int) {
	dmgToDefender = ResolveStrike(rng, attacker.Type, defTile, attackerMoved, distance)
	if defender.HP > dmgToDefender && defender.Type.AttackRange().Contains(distance) {
		dmgToAttacker = ResolveStrike(rng, defender.Type, atkTile, false, distance)
	}
	return dmgToDefender, dmgToAttacker
}
