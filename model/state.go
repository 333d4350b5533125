package model

// Unit is a single army piece as reported by the indexer. The planner only
// reads units; it never creates or destroys them.
type Unit struct {
	ID             int      `json:"unit_id"`
	PlayerID       int      `json:"player_id"`
	Type           UnitType `json:"unit_type"`
	X              int      `json:"x"`
	Y              int      `json:"y"`
	HP             int      `json:"hp"`
	IsAlive        bool     `json:"is_alive"`
	LastMovedRound int      `json:"last_moved_round"`
	LastActedRound int      `json:"last_acted_round"`
}

// Pos returns the unit's grid position.
func (u Unit) Pos() Position { return Position{u.X, u.Y} }

// Alive reports whether the unit counts for side/enemy queries. A unit at
// zero or fewer hit points is never alive, whatever the flag says.
func (u Unit) Alive() bool { return u.IsAlive && u.HP > 0 }

// Building is a map structure. Only headquarters matter to the planner.
type Building struct {
	X               int    `json:"x"`
	Y               int    `json:"y"`
	Type            string `json:"building_type"`
	PlayerID        int    `json:"player_id"`
	CaptureProgress int    `json:"capture_progress"`
}

// Pos returns the building's grid position.
func (b Building) Pos() Position { return Position{b.X, b.Y} }

// BuildingHQ is the building_type of a headquarters.
const BuildingHQ = "HQ"

// GameInfo identifies a match and its progress.
type GameInfo struct {
	GameID        int    `json:"game_id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	CurrentPlayer int    `json:"current_player"`
	Round         int    `json:"round"`
	MapID         int    `json:"map_id"`
	Winner        int    `json:"winner"`
	PlayerCount   int    `json:"player_count"`
}

// Game state values reported by the chain.
const (
	StateLobby    = "Lobby"
	StatePlaying  = "Playing"
	StateFinished = "Finished"
)

// GameState is the battle snapshot handed to the planner. It is refreshed
// once per planning call and must not be mutated by the planner.
type GameState struct {
	Info      GameInfo
	Units     []Unit
	Buildings []Building
	Grid      *Grid
}

// AliveUnits returns the living units owned by player.
func (gs *GameState) AliveUnits(player int) []Unit {
	var out []Unit
	for _, u := range gs.Units {
		if u.PlayerID == player && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// EnemyUnits returns the living units not owned by player.
func (gs *GameState) EnemyUnits(player int) []Unit {
	var out []Unit
	for _, u := range gs.Units {
		if u.PlayerID != player && u.Alive() {
			out = append(out, u)
		}
	}
	return out
}

// HQ returns the position of player's headquarters.
func (gs *GameState) HQ(player int) (Position, bool) {
	for _, b := range gs.Buildings {
		if b.Type == BuildingHQ && b.PlayerID == player {
			return b.Pos(), true
		}
	}
	return Position{}, false
}

// OccupiedPositions returns the positions of all living units. The planner
// copies this into a working set to simulate sequential moves in a turn.
func (gs *GameState) OccupiedPositions() map[Position]bool {
	occ := make(map[Position]bool, len(gs.Units))
	for _, u := range gs.Units {
		if u.Alive() {
			occ[u.Pos()] = true
		}
	}
	return occ
}

// Opponent returns the other player in a two-player game.
func Opponent(player int) int {
	if player == 1 {
		return 2
	}
	return 1
}
