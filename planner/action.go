package planner

import "github.com/hashfront/autoplay/model"

// Action is the closed set of per-turn commands the planner can emit. The
// executor consumes it with an exhaustive type switch, so adding a variant
// is a compile-visible change everywhere actions are handled.
type Action interface {
	isAction()
}

// Move walks a unit along an ordered path of tiles. The full path is
// encoded, not just the endpoints.
type Move struct {
	UnitID int
	Path   []model.Position
}

// Attack strikes a target unit from the acting unit's current tile.
type Attack struct {
	UnitID   int
	TargetID int
}

// Capture claims the building under the acting unit. Capturing the enemy
// HQ ends the match, so a turn containing Capture carries no EndTurn.
type Capture struct {
	UnitID int
}

// Wait ends a unit's activation in place.
type Wait struct {
	UnitID int
}

// EndTurn passes the turn. Exactly one terminates every turn that has no
// Capture.
type EndTurn struct{}

func (Move) isAction()    {}
func (Attack) isAction()  {}
func (Capture) isAction() {}
func (Wait) isAction()    {}
func (EndTurn) isAction() {}

// HasCapture reports whether any action in the list is a Capture.
func HasCapture(actions []Action) bool {
	for _, a := range actions {
		if _, ok := a.(Capture); ok {
			return true
		}
	}
	return false
}
