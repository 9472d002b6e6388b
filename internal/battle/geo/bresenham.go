package geo

// LineIterator3D walks the tiles of a 3D Bresenham line.
// The first call to Next yields the start tile.
type LineIterator3D struct {
	current Position
	target  Position
	delta   Position
	step    Position
	errA    int
	errB    int
	axis    int // dominant axis: 0=X, 1=Y, 2=Z
	started bool
}

// NewLineIterator3D creates an iterator from start to end (both inclusive).
func NewLineIterator3D(start, end Position) *LineIterator3D {
	it := &LineIterator3D{current: start, target: end}

	it.delta = Position{absInt(end.X - start.X), absInt(end.Y - start.Y), absInt(end.Z - start.Z)}
	it.step = Position{stepOf(start.X, end.X), stepOf(start.Y, end.Y), stepOf(start.Z, end.Z)}

	switch {
	case it.delta.X >= it.delta.Y && it.delta.X >= it.delta.Z:
		it.axis = 0
		it.errA, it.errB = it.delta.X/2, it.delta.X/2
	case it.delta.Y >= it.delta.X && it.delta.Y >= it.delta.Z:
		it.axis = 1
		it.errA, it.errB = it.delta.Y/2, it.delta.Y/2
	default:
		it.axis = 2
		it.errA, it.errB = it.delta.Z/2, it.delta.Z/2
	}

	return it
}

// Next advances to the next tile. Returns false once the end was yielded.
func (it *LineIterator3D) Next() bool {
	if !it.started {
		it.started = true
		return true
	}

	if it.current == it.target {
		return false
	}

	c, d, s := &it.current, it.delta, it.step
	switch it.axis {
	case 0:
		c.X += s.X
		it.errA += d.Y
		if it.errA >= d.X {
			c.Y += s.Y
			it.errA -= d.X
		}
		it.errB += d.Z
		if it.errB >= d.X {
			c.Z += s.Z
			it.errB -= d.X
		}
	case 1:
		c.Y += s.Y
		it.errA += d.X
		if it.errA >= d.Y {
			c.X += s.X
			it.errA -= d.Y
		}
		it.errB += d.Z
		if it.errB >= d.Y {
			c.Z += s.Z
			it.errB -= d.Y
		}
	case 2:
		c.Z += s.Z
		it.errA += d.X
		if it.errA >= d.Z {
			c.X += s.X
			it.errA -= d.Z
		}
		it.errB += d.Y
		if it.errB >= d.Z {
			c.Y += s.Y
			it.errB -= d.Z
		}
	}

	return true
}

// Pos returns the current tile.
func (it *LineIterator3D) Pos() Position { return it.current }

// Line returns every tile from start to end inclusive.
func Line(start, end Position) []Position {
	it := NewLineIterator3D(start, end)
	out := make([]Position, 0, absInt(end.X-start.X)+absInt(end.Y-start.Y)+absInt(end.Z-start.Z)+1)
	for it.Next() {
		out = append(out, it.Pos())
	}
	return out
}

func stepOf(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}
