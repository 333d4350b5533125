package model

// TerrainType classifies a single grid tile. Values match the on-chain
// tile_type IDs so snapshots can be stored and compared directly.
type TerrainType byte

const (
	Grass    TerrainType = 0
	Mountain TerrainType = 1 // infantry only, costs 2 to enter
	City     TerrainType = 2
	Factory  TerrainType = 3
	HQTile   TerrainType = 4
	Road     TerrainType = 5
	Tree     TerrainType = 6
	DirtRoad TerrainType = 7
)

// TerrainNames maps the indexer's tile_type strings to terrain IDs.
var TerrainNames = map[string]TerrainType{
	"Grass":    Grass,
	"Mountain": Mountain,
	"City":     City,
	"Factory":  Factory,
	"HQ":       HQTile,
	"Road":     Road,
	"Tree":     Tree,
	"DirtRoad": DirtRoad,
}

// Defense returns the damage reduction granted to a unit standing on t.
// Incoming damage never drops below 1 regardless of defense.
func (t TerrainType) Defense() int {
	switch t {
	case Mountain, HQTile:
		return 2
	case City, Factory, Tree:
		return 1
	default:
		return 0
	}
}

// MoveCost returns the cost for ut to enter t, or ok=false if the tile is
// impassable for that unit type. Only infantry may enter mountains.
func (t TerrainType) MoveCost(ut UnitType) (cost int, ok bool) {
	if t == Mountain {
		if ut != Infantry {
			return 0, false
		}
		return 2, true
	}
	return 1, true
}

// Position is a tile coordinate on the grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the taxicab distance between two positions.
func (p Position) Manhattan(q Position) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Grid is a fixed-size rectangular terrain map, row-major:
// Tiles[y*Width + x]. Immutable for the duration of a turn.
type Grid struct {
	Width  int
	Height int
	Tiles  []TerrainType
}

// NewGrid returns an all-grass grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Tiles:  make([]TerrainType, width*height),
	}
}

// In reports whether p lies inside the grid bounds.
func (g *Grid) In(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// At returns the terrain at p. Out-of-bounds reads return Grass.
func (g *Grid) At(p Position) TerrainType {
	if !g.In(p) {
		return Grass
	}
	return g.Tiles[p.Y*g.Width+p.X]
}

// Set writes the terrain at p, ignoring out-of-bounds coordinates.
func (g *Grid) Set(p Position, t TerrainType) {
	if g.In(p) {
		g.Tiles[p.Y*g.Width+p.X] = t
	}
}

// Neighbors appends the in-bounds four-directional neighbors of p to dst
// and returns it. Order is fixed (up, down, left, right) so every search
// that ties on cost settles tiles in the same order.
func (g *Grid) Neighbors(dst []Position, p Position) []Position {
	for _, d := range [4]Position{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
		n := Position{p.X + d.X, p.Y + d.Y}
		if g.In(n) {
			dst = append(dst, n)
		}
	}
	return dst
}
