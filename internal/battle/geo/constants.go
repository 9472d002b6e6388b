package geo

// NSWE direction bitmask constants.
// Used both for wall sides of a tile and for the direction of a single step.
const (
	NSWEEast  byte = 1 << 0 // 0x01
	NSWEWest  byte = 1 << 1 // 0x02
	NSWESouth byte = 1 << 2 // 0x04
	NSWENorth byte = 1 << 3 // 0x08
	NSWEAll   byte = 0x0F
)

// Composite NSWE directions.
const (
	NSWENorthEast = NSWENorth | NSWEEast // 0x09
	NSWENorthWest = NSWENorth | NSWEWest // 0x0A
	NSWESouthEast = NSWESouth | NSWEEast // 0x05
	NSWESouthWest = NSWESouth | NSWEWest // 0x06
)

// Facing directions, clockwise from north (negative Y).
const (
	DirNorth = iota
	DirNorthEast
	DirEast
	DirSouthEast
	DirSouth
	DirSouthWest
	DirWest
	DirNorthWest

	// NoDirection marks an unset facing.
	NoDirection = -1
)

// Time unit costs for movement.
const (
	TUWalk      = 4 // entering a plain floor tile
	TUClimb     = 8 // moving one level through a lift
	Unreachable = -1
)

// Pathfinding configuration.
const (
	MaxPathfindIterations = 7000
)
