package model

import "testing"

func TestTerrainDefense(t *testing.T) {
	tests := []struct {
		terrain TerrainType
		want    int
	}{
		{Grass, 0},
		{Road, 0},
		{DirtRoad, 0},
		{City, 1},
		{Factory, 1},
		{Tree, 1},
		{Mountain, 2},
		{HQTile, 2},
	}
	for _, tc := range tests {
		if got := tc.terrain.Defense(); got != tc.want {
			t.Errorf("Defense(%d) = %d, want %d", tc.terrain, got, tc.want)
		}
	}
}

func TestMountainInfantryOnly(t *testing.T) {
	cost, ok := Mountain.MoveCost(Infantry)
	if !ok || cost != 2 {
		t.Errorf("Mountain.MoveCost(Infantry) = %d, %v, want 2, true", cost, ok)
	}
	if _, ok := Mountain.MoveCost(Tank); ok {
		t.Error("tanks should not enter mountains")
	}
	if _, ok := Mountain.MoveCost(Ranger); ok {
		t.Error("rangers should not enter mountains")
	}
	if cost, ok := Grass.MoveCost(Tank); !ok || cost != 1 {
		t.Errorf("Grass.MoveCost(Tank) = %d, %v, want 1, true", cost, ok)
	}
}

func TestUnitStats(t *testing.T) {
	tests := []struct {
		ut         UnitType
		move, atk  int
		hp         int
		band       RangeBand
		canCapture bool
	}{
		{Infantry, 4, 2, 3, RangeBand{1, 1}, true},
		{Ranger, 3, 3, 3, RangeBand{2, 3}, true},
		{Tank, 2, 4, 5, RangeBand{1, 1}, false},
	}
	for _, tc := range tests {
		if got := tc.ut.MoveRange(); got != tc.move {
			t.Errorf("%s MoveRange = %d, want %d", tc.ut, got, tc.move)
		}
		if got := tc.ut.Attack(); got != tc.atk {
			t.Errorf("%s Attack = %d, want %d", tc.ut, got, tc.atk)
		}
		if got := tc.ut.MaxHP(); got != tc.hp {
			t.Errorf("%s MaxHP = %d, want %d", tc.ut, got, tc.hp)
		}
		if got := tc.ut.AttackRange(); got != tc.band {
			t.Errorf("%s AttackRange = %v, want %v", tc.ut, got, tc.band)
		}
		if got := tc.ut.CanCapture(); got != tc.canCapture {
			t.Errorf("%s CanCapture = %v, want %v", tc.ut, got, tc.canCapture)
		}
	}
}

func TestRangerRangeBand(t *testing.T) {
	band := Ranger.AttackRange()
	if band.Contains(1) {
		t.Error("ranger should not hit adjacent tiles")
	}
	if !band.Contains(2) || !band.Contains(3) {
		t.Error("ranger should hit at distance 2 and 3")
	}
	if band.Contains(4) {
		t.Error("ranger should not hit at distance 4")
	}
}

func TestAliveExcludesZeroHP(t *testing.T) {
	gs := &GameState{
		Units: []Unit{
			{ID: 1, PlayerID: 1, Type: Infantry, HP: 3, IsAlive: true},
			{ID: 2, PlayerID: 1, Type: Infantry, HP: 0, IsAlive: true}, // stale flag
			{ID: 3, PlayerID: 1, Type: Infantry, HP: 2, IsAlive: false},
			{ID: 4, PlayerID: 2, Type: Tank, HP: 5, IsAlive: true},
		},
	}
	mine := gs.AliveUnits(1)
	if len(mine) != 1 || mine[0].ID != 1 {
		t.Errorf("AliveUnits(1) = %v, want only unit 1", mine)
	}
	enemies := gs.EnemyUnits(1)
	if len(enemies) != 1 || enemies[0].ID != 4 {
		t.Errorf("EnemyUnits(1) = %v, want only unit 4", enemies)
	}
}

func TestOccupiedPositions(t *testing.T) {
	gs := &GameState{
		Units: []Unit{
			{ID: 1, PlayerID: 1, Type: Infantry, X: 2, Y: 3, HP: 3, IsAlive: true},
			{ID: 2, PlayerID: 2, Type: Tank, X: 5, Y: 5, HP: 5, IsAlive: true},
			{ID: 3, PlayerID: 2, Type: Tank, X: 7, Y: 7, HP: 0, IsAlive: true}, // dead
		},
	}
	occ := gs.OccupiedPositions()
	if len(occ) != 2 {
		t.Fatalf("got %d occupied tiles, want 2", len(occ))
	}
	if !occ[Position{2, 3}] || !occ[Position{5, 5}] {
		t.Errorf("occupied = %v, want (2,3) and (5,5)", occ)
	}
}

func TestHQ(t *testing.T) {
	gs := &GameState{
		Buildings: []Building{
			{X: 1, Y: 2, Type: BuildingHQ, PlayerID: 1},
			{X: 8, Y: 9, Type: "Factory", PlayerID: 2},
		},
	}
	pos, ok := gs.HQ(1)
	if !ok || pos != (Position{1, 2}) {
		t.Errorf("HQ(1) = %v, %v, want (1,2), true", pos, ok)
	}
	if _, ok := gs.HQ(2); ok {
		t.Error("HQ(2) should not exist; factories are not headquarters")
	}
}

func TestOpponent(t *testing.T) {
	if Opponent(1) != 2 || Opponent(2) != 1 {
		t.Error("Opponent should swap players 1 and 2")
	}
}

func TestNeighborsOrder(t *testing.T) {
	g := NewGrid(3, 3)
	got := g.Neighbors(nil, Position{1, 1})
	want := []Position{{1, 0}, {1, 2}, {0, 1}, {2, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d neighbors, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("neighbor %d = %v, want %v", i, got[i], want[i])
		}
	}

	corner := g.Neighbors(nil, Position{0, 0})
	if len(corner) != 2 {
		t.Errorf("corner has %d neighbors, want 2", len(corner))
	}
}
