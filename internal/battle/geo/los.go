package geo

// CanSee checks terrain line of sight between two tiles.
// Uses 3D Bresenham and checks every cell strictly between the end points,
// plus the wall crossings between consecutive cells. Units are not considered.
func (m *Map) CanSee(from, to Position) bool {
	if !m.InBounds(from) || !m.InBounds(to) {
		return false
	}
	if from == to {
		return true
	}

	it := NewLineIterator3D(from, to)
	it.Next() // start tile
	prev := it.Pos()

	for it.Next() {
		cur := it.Pos()

		if cur.Z == prev.Z && m.wallCrossingBlocks(prev, cur) {
			return false
		}

		if cur == to {
			return true
		}

		t := m.Tile(cur)
		if t == nil || !t.Transparent() {
			return false
		}
		prev = cur
	}

	return true
}

// wallCrossingBlocks reports whether sight moving between two horizontally
// adjacent cells hits a wall. A diagonal crossing is blocked only when both
// orthogonal detours are walled or solid.
func (m *Map) wallCrossingBlocks(a, b Position) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx == 0 && dy == 0 {
		return false
	}
	if dx == 0 || dy == 0 {
		return m.wallBetween(a, b)
	}

	c1 := Position{X: a.X + dx, Y: a.Y, Z: a.Z}
	c2 := Position{X: a.X, Y: a.Y + dy, Z: a.Z}
	open := func(c Position) bool {
		t := m.Tile(c)
		return t != nil && t.Transparent() && !m.wallBetween(a, c) && !m.wallBetween(c, b)
	}
	return !open(c1) && !open(c2)
}
