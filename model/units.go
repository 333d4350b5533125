package model

// UnitType names match the indexer's unit_type strings.
type UnitType string

const (
	Infantry UnitType = "Infantry" // melee, light, fast, can capture
	Ranger   UnitType = "Ranger"   // ranged skirmisher, can capture
	Tank     UnitType = "Tank"     // melee, heavy, slow
)

// RangeBand is an inclusive attack distance band.
type RangeBand struct {
	Min int
	Max int
}

// Contains reports whether distance d falls inside the band.
func (r RangeBand) Contains(d int) bool { return d >= r.Min && d <= r.Max }

// Base unit stats. The road movement bonus exists on chain but is ignored
// here; the planner budgets conservatively with the base values.
var (
	moveRange   = map[UnitType]int{Infantry: 4, Ranger: 3, Tank: 2}
	attackRange = map[UnitType]RangeBand{
		Infantry: {1, 1},
		Ranger:   {2, 3},
		Tank:     {1, 1},
	}
	unitAttack = map[UnitType]int{Infantry: 2, Ranger: 3, Tank: 4}
	unitMaxHP  = map[UnitType]int{Infantry: 3, Ranger: 3, Tank: 5}
)

// MoveRange returns the unit type's per-turn movement budget.
func (ut UnitType) MoveRange() int { return moveRange[ut] }

// AttackRange returns the unit type's attack distance band.
func (ut UnitType) AttackRange() RangeBand { return attackRange[ut] }

// Attack returns the unit type's attack stat.
func (ut UnitType) Attack() int { return unitAttack[ut] }

// MaxHP returns the unit type's maximum hit points.
func (ut UnitType) MaxHP() int { return unitMaxHP[ut] }

// CanCapture reports whether the unit type can capture buildings.
func (ut UnitType) CanCapture() bool { return ut == Infantry || ut == Ranger }

// InAttackRange reports whether a unit of type ut at from can hit to.
func (ut UnitType) InAttackRange(from, to Position) bool {
	return ut.AttackRange().Contains(from.Manhattan(to))
}
