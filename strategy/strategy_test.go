package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashfront/autoplay/model"
)

func TestDefaultCatalogPresets(t *testing.T) {
	c := DefaultCatalog()
	for _, name := range []string{Deathball, Turtle, Guerrilla, Rush, RangerFortress, Assassin} {
		if _, ok := c.Get(name); !ok {
			t.Errorf("missing preset %q", name)
		}
	}
	if _, ok := c.Get("Blitzkrieg"); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestValidateClamps(t *testing.T) {
	s := Strategy{
		Name:       "out-of-range",
		Aggression: 1.5, FocusFire: -0.2, RetreatThreshold: 2,
		TerrainWeight: 9, Weight: 0,
	}
	s.Validate()
	if s.Aggression != 1 || s.FocusFire != 0 || s.RetreatThreshold != 1 {
		t.Errorf("weights not clamped: %+v", s)
	}
	if s.TerrainWeight != 4 {
		t.Errorf("TerrainWeight = %v, want 4", s.TerrainWeight)
	}
	if s.Weight != 1 {
		t.Errorf("Weight = %d, want 1", s.Weight)
	}
}

func TestPickIsSeededByMatchAndSide(t *testing.T) {
	c := DefaultCatalog()
	for gameID := 1; gameID <= 20; gameID++ {
		for player := 1; player <= 2; player++ {
			first := c.Pick(gameID, player)
			for i := 0; i < 5; i++ {
				if got := c.Pick(gameID, player); got.Name != first.Name {
					t.Fatalf("Pick(%d,%d) changed between calls: %s then %s",
						gameID, player, first.Name, got.Name)
				}
			}
		}
	}
}

func TestPickUsesWeights(t *testing.T) {
	c := DefaultCatalog()
	seen := make(map[string]bool)
	for gameID := 1; gameID <= 200; gameID++ {
		seen[c.Pick(gameID, 1).Name] = true
	}
	// Every preset has weight >= 1, so a wide sweep should hit them all.
	if len(seen) != 6 {
		t.Errorf("saw %d presets across 200 games, want all 6: %v", len(seen), seen)
	}
}

func snapshot(gameID, round int, units []model.Unit) *model.GameState {
	return &model.GameState{
		Info:  model.GameInfo{GameID: gameID, Round: round},
		Units: units,
		Grid:  model.NewGrid(20, 20),
	}
}

func mkUnits(player int, types ...model.UnitType) []model.Unit {
	var out []model.Unit
	for i, ut := range types {
		out = append(out, model.Unit{
			ID: player*100 + i, PlayerID: player, Type: ut,
			X: i, Y: player, HP: ut.MaxHP(), IsAlive: true,
		})
	}
	return out
}

func TestAdaptiveCaptureRush(t *testing.T) {
	sel, err := NewSelector(DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	// No enemies left: always Rush, regardless of seed.
	for round := 1; round <= 10; round++ {
		gs := snapshot(7, round, mkUnits(1, model.Infantry, model.Tank))
		if got := sel.PickAdaptive(gs, 1); got.Name != Rush {
			t.Errorf("round %d: got %s, want %s", round, got.Name, Rush)
		}
	}
}

func TestAdaptiveDesperation(t *testing.T) {
	sel, err := NewSelector(DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	units := append(mkUnits(1, model.Infantry),
		mkUnits(2, model.Infantry, model.Infantry, model.Tank, model.Ranger)...)
	gs := snapshot(3, 5, units)
	got := sel.PickAdaptive(gs, 1)
	if got.Name != Guerrilla && got.Name != Rush {
		t.Errorf("outnumbered by 3: got %s, want %s or %s", got.Name, Guerrilla, Rush)
	}
	// Same snapshot, same pick.
	if again := sel.PickAdaptive(gs, 1); again.Name != got.Name {
		t.Errorf("adaptive pick changed between identical snapshots: %s then %s", got.Name, again.Name)
	}
}

func TestAdaptiveReproducible(t *testing.T) {
	sel, err := NewSelector(DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	units := append(
		mkUnits(1, model.Infantry, model.Ranger, model.Ranger, model.Tank),
		mkUnits(2, model.Infantry, model.Tank)...)
	for round := 1; round <= 15; round++ {
		gs := snapshot(42, round, units)
		first := sel.PickAdaptive(gs, 2)
		for i := 0; i < 3; i++ {
			if got := sel.PickAdaptive(gs, 2); got.Name != first.Name {
				t.Fatalf("round %d: pick changed between calls: %s then %s",
					round, first.Name, got.Name)
			}
		}
	}
}

func TestAdaptiveFallsBackToSeededPick(t *testing.T) {
	sel, err := NewSelector(DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	// Balanced armies with rangers on both sides and an early round: the
	// deterministic conditions all fail, and any Roll-gated rule that fires
	// must still resolve identically on a re-run.
	units := append(
		mkUnits(1, model.Infantry, model.Ranger),
		mkUnits(2, model.Infantry, model.Ranger)...)
	gs := snapshot(11, 2, units)
	first := sel.PickAdaptive(gs, 1)
	if again := sel.PickAdaptive(gs, 1); again.Name != first.Name {
		t.Errorf("fallback pick not reproducible: %s then %s", first.Name, again.Name)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `version: 1
presets:
  - name: Steamroll
    aggression: 0.8
    focus_fire: 0.9
    retreat_threshold: 0.3
    terrain_weight: 1.0
    hq_pressure: 0.5
    formation: 0.7
    weight: 2
  - name: Skirmish
    aggression: 0.4
    flank_ratio: 0.5
    weight: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := c.Get("Steamroll")
	if !ok {
		t.Fatal("Steamroll not loaded")
	}
	if s.Aggression != 0.8 || s.Weight != 2 {
		t.Errorf("loaded preset = %+v", s)
	}
	if _, ok := c.Get("Skirmish"); !ok {
		t.Error("Skirmish not loaded")
	}
}

func TestLoadCatalogEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("version: 1\npresets: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Error("empty catalog should fail to load")
	}
}
