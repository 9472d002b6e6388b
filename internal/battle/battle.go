package battle

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// MaxViewDistance is how far a unit can see, in tiles.
const MaxViewDistance = 20

// DefaultCheatTurn is the turn from which AI units know where every enemy is.
const DefaultCheatTurn = 20

var (
	// ErrDuplicateUnit is returned when a unit ID is added twice.
	ErrDuplicateUnit = errors.New("duplicate unit")
	// ErrOffMap is returned when a unit is placed outside the map or on a blocked tile.
	ErrOffMap = errors.New("position not walkable")
)

// Battle is the state of one tactical battle. It owns the map, the node graph
// and every unit, and answers the visibility and pathfinding queries of the AI.
type Battle struct {
	ID string

	grid  *geo.Map
	nodes *NodeGraph
	units map[UnitID]*Unit
	order []*Unit

	turn       int
	difficulty int
	cheatTurn  int
	rng        *rand.Rand
}

// Option configures a Battle.
type Option func(*Battle)

// WithDifficulty sets the difficulty (0 beginner .. 4 superhuman).
func WithDifficulty(d int) Option {
	return func(b *Battle) { b.difficulty = min(4, max(0, d)) }
}

// WithSeed seeds the battle's random source.
func WithSeed(seed uint64) Option {
	return func(b *Battle) { b.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithCheatTurn sets the turn from which AI units know every enemy position.
func WithCheatTurn(turn int) Option {
	return func(b *Battle) { b.cheatTurn = turn }
}

// WithTurn sets the current turn.
func WithTurn(turn int) Option {
	return func(b *Battle) { b.turn = turn }
}

// New creates a battle on the given map and node graph. Turn numbering starts at one.
func New(id string, grid *geo.Map, nodes *NodeGraph, opts ...Option) *Battle {
	if nodes == nil {
		nodes = NewNodeGraph()
	}
	b := &Battle{
		ID:        id,
		grid:      grid,
		nodes:     nodes,
		units:     make(map[UnitID]*Unit),
		turn:      1,
		cheatTurn: DefaultCheatTurn,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(1, 2))
	}
	return b
}

// AddUnit places a unit on the battlefield.
func (b *Battle) AddUnit(u *Unit) error {
	if _, ok := b.units[u.ID]; ok {
		return fmt.Errorf("unit %d: %w", u.ID, ErrDuplicateUnit)
	}
	if !b.grid.Walkable(u.Pos) {
		return fmt.Errorf("unit %d at %v: %w", u.ID, u.Pos, ErrOffMap)
	}
	if other := b.UnitAt(u.Pos); other != nil {
		return fmt.Errorf("unit %d at %v occupied by %d: %w", u.ID, u.Pos, other.ID, ErrOffMap)
	}
	b.units[u.ID] = u
	idx, _ := slices.BinarySearchFunc(b.order, u.ID, func(x *Unit, id UnitID) int {
		return int(x.ID - id)
	})
	b.order = slices.Insert(b.order, idx, u)
	return nil
}

// Map returns the tile grid.
func (b *Battle) Map() *geo.Map { return b.grid }

// NodeGraph returns the patrol network.
func (b *Battle) NodeGraph() *NodeGraph { return b.nodes }

// Units returns every unit in ascending ID order, including those that are out.
func (b *Battle) Units() []*Unit { return b.order }

// Unit looks up a unit by ID.
func (b *Battle) Unit(id UnitID) (*Unit, bool) {
	u, ok := b.units[id]
	return u, ok
}

// UnitAt returns the standing unit on a tile, or nil.
func (b *Battle) UnitAt(p geo.Position) *Unit {
	for _, u := range b.order {
		if !u.IsOut() && u.Pos == p {
			return u
		}
	}
	return nil
}

// Turn returns the current turn number.
func (b *Battle) Turn() int { return b.turn }

// Difficulty returns the difficulty coefficient.
func (b *Battle) Difficulty() int { return b.difficulty }

// Cheating reports whether AI units know every enemy position this turn.
func (b *Battle) Cheating() bool { return b.turn >= b.cheatTurn }

// Rand returns the battle's random source.
func (b *Battle) Rand() *rand.Rand { return b.rng }

// Nodes returns all patrol nodes.
func (b *Battle) Nodes() []*Node { return b.nodes.Nodes() }

// Node looks up a patrol node.
func (b *Battle) Node(id int) (*Node, bool) { return b.nodes.Node(id) }

// Tile returns the tile at p.
func (b *Battle) Tile(p geo.Position) (*geo.Tile, bool) {
	t := b.grid.Tile(p)
	return t, t != nil
}

// FaceWindow returns the direction of a window next to p, or geo.NoDirection.
func (b *Battle) FaceWindow(p geo.Position) int {
	return b.grid.FaceWindow(p)
}

// CanSee reports whether the observer could see the tile: within view
// distance with terrain line of sight. Facing is not considered.
func (b *Battle) CanSee(observer *Unit, pos geo.Position) bool {
	if observer.IsOut() {
		return false
	}
	if geo.Distance(observer.Pos, pos) > MaxViewDistance {
		return false
	}
	return b.grid.CanSee(observer.Pos, pos)
}

// CanTarget reports whether a shot from one tile reaches another: terrain line
// of sight and no standing unit in between other than shooter and ignore.
func (b *Battle) CanTarget(from, to geo.Position, shooter, ignore *Unit) bool {
	if !b.grid.CanSee(from, to) {
		return false
	}
	line := geo.Line(from, to)
	if len(line) <= 2 {
		return true
	}
	for _, p := range line[1 : len(line)-1] {
		u := b.UnitAt(p)
		if u == nil || u == shooter || u == ignore {
			continue
		}
		return false
	}
	return true
}

// Reachable returns the TU cost of every tile the unit can walk to within maxTU.
func (b *Battle) Reachable(u *Unit, maxTU int) map[geo.Position]int {
	return b.grid.Reachable(u.Pos, b.pathOptions(u, maxTU))
}

// Path computes the unit's walk to dest. A negative maxTU means no cap.
func (b *Battle) Path(u *Unit, dest geo.Position, maxTU int) ([]geo.Position, int, bool) {
	return b.grid.FindPath(u.Pos, dest, b.pathOptions(u, maxTU))
}

// MissilePath computes the flight of a guided missile, ignoring units.
func (b *Battle) MissilePath(from, to geo.Position) ([]geo.Position, bool) {
	path, _, ok := b.grid.FindPath(from, to, geo.PathOptions{MaxTU: -1, Flying: true})
	return path, ok
}

func (b *Battle) pathOptions(u *Unit, maxTU int) geo.PathOptions {
	return geo.PathOptions{
		MaxTU: maxTU,
		Blocked: func(p geo.Position) bool {
			other := b.UnitAt(p)
			return other != nil && other != u
		},
	}
}
