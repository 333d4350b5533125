package sim

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashfront/autoplay/model"
)

// Map is an offline scenario: terrain plus starting buildings and units.
type Map struct {
	Name      string
	Grid      *model.Grid
	Buildings []model.Building
	Units     []model.Unit
}

// Terrain characters used by the map text format.
var tileChars = map[byte]model.TerrainType{
	'.': model.Grass,
	'R': model.Road,
	'D': model.DirtRoad,
	'T': model.Tree,
	'M': model.Mountain,
	'H': model.HQTile,
	'C': model.City,
	'F': model.Factory,
}

// ParseTerrain reads a whitespace-separated terrain sheet. Blank lines and
// lines starting with # are skipped; unknown characters read as grass.
func ParseTerrain(text string) (*model.Grid, error) {
	var rows [][]model.TerrainType
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var row []model.TerrainType
		for _, cell := range strings.Fields(line) {
			row = append(row, tileChars[cell[0]])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("terrain: no rows")
	}
	width := len(rows[0])
	grid := model.NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("terrain: row %d has %d cells, want %d", y, len(row), width)
		}
		for x, t := range row {
			grid.Set(model.Position{X: x, Y: y}, t)
		}
	}
	return grid, nil
}

// parseBuildings reads "type owner x y" lines.
func parseBuildings(text string) ([]model.Building, error) {
	var out []model.Building
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 4 {
			return nil, fmt.Errorf("buildings: bad line %q", line)
		}
		owner, err1 := strconv.Atoi(parts[1])
		x, err2 := strconv.Atoi(parts[2])
		y, err3 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("buildings: bad line %q", line)
		}
		btype := parts[0]
		if strings.EqualFold(btype, model.BuildingHQ) {
			btype = model.BuildingHQ
		}
		out = append(out, model.Building{X: x, Y: y, Type: btype, PlayerID: owner})
	}
	return out, nil
}

// parseUnits reads "type player x y" lines, assigning ids in file order.
func parseUnits(text string) ([]model.Unit, error) {
	var out []model.Unit
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 4 {
			return nil, fmt.Errorf("units: bad line %q", line)
		}
		var ut model.UnitType
		switch strings.ToLower(parts[0]) {
		case "infantry":
			ut = model.Infantry
		case "tank":
			ut = model.Tank
		case "ranger":
			ut = model.Ranger
		default:
			return nil, fmt.Errorf("units: unknown type %q", parts[0])
		}
		player, err1 := strconv.Atoi(parts[1])
		x, err2 := strconv.Atoi(parts[2])
		y, err3 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("units: bad line %q", line)
		}
		out = append(out, model.Unit{
			ID:       len(out) + 1,
			PlayerID: player,
			Type:     ut,
			X:        x,
			Y:        y,
			HP:       ut.MaxHP(),
			IsAlive:  true,
		})
	}
	return out, nil
}

// LoadMap reads a scenario from a directory holding terrain.txt and
// optional buildings.txt / units.txt.
func LoadMap(dir string) (*Map, error) {
	terrain, err := os.ReadFile(filepath.Join(dir, "terrain.txt"))
	if err != nil {
		return nil, fmt.Errorf("load map: %w", err)
	}
	grid, err := ParseTerrain(string(terrain))
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", dir, err)
	}
	m := &Map{Name: filepath.Base(dir), Grid: grid}

	if data, err := os.ReadFile(filepath.Join(dir, "buildings.txt")); err == nil {
		m.Buildings, err = parseBuildings(string(data))
		if err != nil {
			return nil, fmt.Errorf("load map %s: %w", dir, err)
		}
		// HQ tiles carry the HQ terrain bonus.
		for _, b := range m.Buildings {
			if b.Type == model.BuildingHQ {
				grid.Set(b.Pos(), model.HQTile)
			}
		}
	}
	if data, err := os.ReadFile(filepath.Join(dir, "units.txt")); err == nil {
		m.Units, err = parseUnits(string(data))
		if err != nil {
			return nil, fmt.Errorf("load map %s: %w", dir, err)
		}
	}
	return m, nil
}

// Skirmish is a built-in mirrored 20x20 scenario used when no map
// directory is given: HQs on the east/west edges behind light cover, a
// mountain spine in the middle, and matched five-unit armies.
func Skirmish() *Map {
	grid := model.NewGrid(20, 20)

	for y := 6; y <= 13; y++ {
		grid.Set(model.Position{X: 9, Y: y}, model.Mountain)
		grid.Set(model.Position{X: 10, Y: y}, model.Mountain)
	}
	// Gaps in the spine keep vehicles in the game.
	grid.Set(model.Position{X: 9, Y: 9}, model.Grass)
	grid.Set(model.Position{X: 10, Y: 9}, model.Grass)
	grid.Set(model.Position{X: 9, Y: 10}, model.DirtRoad)
	grid.Set(model.Position{X: 10, Y: 10}, model.DirtRoad)

	for x := 2; x <= 17; x++ {
		grid.Set(model.Position{X: x, Y: 10}, model.DirtRoad)
	}
	for _, p := range []model.Position{{X: 4, Y: 7}, {X: 4, Y: 13}, {X: 15, Y: 7}, {X: 15, Y: 13}} {
		grid.Set(p, model.Tree)
	}
	for _, p := range []model.Position{{X: 5, Y: 10}, {X: 14, Y: 10}} {
		grid.Set(p, model.City)
	}
	grid.Set(model.Position{X: 2, Y: 10}, model.HQTile)
	grid.Set(model.Position{X: 17, Y: 10}, model.HQTile)

	buildings := []model.Building{
		{X: 2, Y: 10, Type: model.BuildingHQ, PlayerID: 1},
		{X: 17, Y: 10, Type: model.BuildingHQ, PlayerID: 2},
	}

	spawn := func(id, player int, ut model.UnitType, x, y int) model.Unit {
		return model.Unit{ID: id, PlayerID: player, Type: ut, X: x, Y: y, HP: ut.MaxHP(), IsAlive: true}
	}
	units := []model.Unit{
		spawn(1, 1, model.Infantry, 3, 8),
		spawn(2, 1, model.Infantry, 3, 12),
		spawn(3, 1, model.Infantry, 4, 10),
		spawn(4, 1, model.Tank, 3, 10),
		spawn(5, 1, model.Ranger, 2, 9),
		spawn(6, 2, model.Infantry, 16, 8),
		spawn(7, 2, model.Infantry, 16, 12),
		spawn(8, 2, model.Infantry, 15, 10),
		spawn(9, 2, model.Tank, 16, 10),
		spawn(10, 2, model.Ranger, 17, 9),
	}

	return &Map{Name: "skirmish", Grid: grid, Buildings: buildings, Units: units}
}
