package geo

// Tile is one cell of the battle map.
type Tile struct {
	// Solid tiles block both movement and sight.
	Solid bool
	// Walls is an NSWE mask of the tile sides that carry a wall.
	Walls byte
	// Window tiles cannot be walked through but can be seen and shot through.
	Window bool
	// Lift tiles connect vertically to the lift tile directly above or below.
	Lift bool
	// Fire is the number of turns the tile keeps burning. Zero means no fire.
	Fire int
	// Dangerous marks a tile an AI unit should not stand on (primed explosive nearby).
	Dangerous bool
	// Cost is the TU cost to enter the tile. Zero means TUWalk.
	Cost int
}

// Walkable reports whether a unit can stand on the tile.
func (t *Tile) Walkable() bool {
	return !t.Solid && !t.Window
}

// Transparent reports whether sight passes through the tile.
func (t *Tile) Transparent() bool {
	return !t.Solid
}

// EnterCost returns the TU cost to step onto the tile.
func (t *Tile) EnterCost() int {
	if t.Cost > 0 {
		return t.Cost
	}
	return TUWalk
}

// Map is a fixed-size three-dimensional tile grid.
type Map struct {
	SizeX, SizeY, SizeZ int
	tiles               []Tile
}

// NewMap creates an open map of the given size.
func NewMap(sx, sy, sz int) *Map {
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}
	if sz < 1 {
		sz = 1
	}
	return &Map{
		SizeX: sx,
		SizeY: sy,
		SizeZ: sz,
		tiles: make([]Tile, sx*sy*sz),
	}
}

// InBounds reports whether p lies on the map.
func (m *Map) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 &&
		p.X < m.SizeX && p.Y < m.SizeY && p.Z < m.SizeZ
}

func (m *Map) index(p Position) int {
	return p.Z*m.SizeX*m.SizeY + p.Y*m.SizeX + p.X
}

// Tile returns the tile at p, or nil if p is off the map.
func (m *Map) Tile(p Position) *Tile {
	if !m.InBounds(p) {
		return nil
	}
	return &m.tiles[m.index(p)]
}

// SetTile replaces the tile at p. Out of bounds positions are ignored.
func (m *Map) SetTile(p Position, t Tile) {
	if !m.InBounds(p) {
		return
	}
	m.tiles[m.index(p)] = t
}

// AddWall puts a wall on the given sides of the tile at p.
func (m *Map) AddWall(p Position, sides byte) {
	if t := m.Tile(p); t != nil {
		t.Walls |= sides & NSWEAll
	}
}

// Walkable reports whether a unit can stand at p.
func (m *Map) Walkable(p Position) bool {
	t := m.Tile(p)
	return t != nil && t.Walkable()
}

// wallBetween reports whether a wall separates two orthogonally adjacent tiles
// on the same level.
func (m *Map) wallBetween(a, b Position) bool {
	step := ComputeNSWE(a.X, a.Y, b.X, b.Y)
	ta, tb := m.Tile(a), m.Tile(b)
	if ta != nil && ta.Walls&step != 0 {
		return true
	}
	if tb != nil && tb.Walls&opposite(step) != 0 {
		return true
	}
	return false
}

// canStep reports whether a walker can move from a to the horizontally adjacent b.
// Diagonal steps require both orthogonal detours to be open.
func (m *Map) canStep(a, b Position) bool {
	if !m.Walkable(b) {
		return false
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 || dy == 0 {
		return !m.wallBetween(a, b)
	}
	c1 := Position{X: a.X + dx, Y: a.Y, Z: a.Z}
	c2 := Position{X: a.X, Y: a.Y + dy, Z: a.Z}
	if !m.Walkable(c1) || !m.Walkable(c2) {
		return false
	}
	return !m.wallBetween(a, c1) && !m.wallBetween(c1, b) &&
		!m.wallBetween(a, c2) && !m.wallBetween(c2, b)
}

// FaceWindow returns the direction of a window tile adjacent to p, or
// NoDirection when there is none.
func (m *Map) FaceWindow(p Position) int {
	for dir := range 8 {
		t := m.Tile(p.Add(DirectionVector(dir)))
		if t != nil && t.Window {
			return dir
		}
	}
	return NoDirection
}
