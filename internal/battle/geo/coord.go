package geo

import (
	"fmt"
	"math"
)

// Position is a tile coordinate on the battle map. Z is the level.
type Position struct {
	X, Y, Z int
}

// Pos is a shorthand constructor.
func Pos(x, y, z int) Position {
	return Position{X: x, Y: y, Z: z}
}

// Add returns p shifted by o.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub returns p - o.
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Distance returns the rounded planar distance in tiles. Levels are ignored,
// the same way weapon ranges and sight ranges are measured.
func Distance(a, b Position) int {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return int(math.Floor(math.Sqrt(dx*dx+dy*dy) + 0.5))
}

// DistanceSq returns the squared distance, optionally including the level delta.
func DistanceSq(a, b Position, considerZ bool) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	d := dx*dx + dy*dy
	if considerZ {
		dz := a.Z - b.Z
		d += dz * dz
	}
	return d
}

// Adjacent reports whether b is one of the eight tiles around a on the same level.
func Adjacent(a, b Position) bool {
	if a.Z != b.Z || a == b {
		return false
	}
	return absInt(a.X-b.X) <= 1 && absInt(a.Y-b.Y) <= 1
}

var dirVectors = [8]Position{
	{0, -1, 0},  // N
	{1, -1, 0},  // NE
	{1, 0, 0},   // E
	{1, 1, 0},   // SE
	{0, 1, 0},   // S
	{-1, 1, 0},  // SW
	{-1, 0, 0},  // W
	{-1, -1, 0}, // NW
}

// DirectionVector returns the unit step for a facing direction.
func DirectionVector(dir int) Position {
	if dir < 0 || dir > 7 {
		return Position{}
	}
	return dirVectors[dir]
}

// DirectionTo returns the facing (0..7, clockwise from north) that points from
// one tile towards another. Returns NoDirection when both are the same column.
func DirectionTo(from, to Position) int {
	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	if dx == 0 && dy == 0 {
		return NoDirection
	}
	angle := math.Atan2(dx, -dy) // 0 = north, clockwise positive
	if angle < 0 {
		angle += 2 * math.Pi
	}
	dir := int(math.Floor(angle/(math.Pi/4)+0.5)) % 8
	return dir
}

// ComputeNSWE computes the NSWE step flags from (fromX,fromY) to (toX,toY).
func ComputeNSWE(fromX, fromY, toX, toY int) byte {
	var nswe byte
	if toX > fromX {
		nswe |= NSWEEast
	} else if toX < fromX {
		nswe |= NSWEWest
	}
	if toY > fromY {
		nswe |= NSWESouth
	} else if toY < fromY {
		nswe |= NSWENorth
	}
	return nswe
}

// opposite flips the cardinal components of an NSWE mask.
func opposite(nswe byte) byte {
	var o byte
	if nswe&NSWEEast != 0 {
		o |= NSWEWest
	}
	if nswe&NSWEWest != 0 {
		o |= NSWEEast
	}
	if nswe&NSWENorth != 0 {
		o |= NSWESouth
	}
	if nswe&NSWESouth != 0 {
		o |= NSWENorth
	}
	return o
}

// SearchSquare returns every offset within the given Chebyshev radius on one
// level, including the origin, in row-major order.
func SearchSquare(radius int) []Position {
	out := make([]Position, 0, (2*radius+1)*(2*radius+1))
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			out = append(out, Position{X: x, Y: y})
		}
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
