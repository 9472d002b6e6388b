package ai

import (
	"math/rand/v2"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// World answers questions about the units and the turn.
type World interface {
	// Units returns every unit in ascending ID order.
	Units() []*battle.Unit
	Unit(id battle.UnitID) (*battle.Unit, bool)
	Turn() int
	Difficulty() int
	// Cheating reports whether AI units know every enemy position.
	Cheating() bool
}

// Visibility answers sight and line of fire queries.
type Visibility interface {
	CanSee(observer *battle.Unit, pos geo.Position) bool
	CanTarget(from, to geo.Position, shooter, ignore *battle.Unit) bool
	Tile(pos geo.Position) (*geo.Tile, bool)
	FaceWindow(pos geo.Position) int
}

// Pathfinder answers movement queries. A negative maxTU means no cap.
type Pathfinder interface {
	Reachable(u *battle.Unit, maxTU int) map[geo.Position]int
	Path(u *battle.Unit, dest geo.Position, maxTU int) ([]geo.Position, int, bool)
	MissilePath(from, to geo.Position) ([]geo.Position, bool)
}

// NodeGraph gives read access to the patrol network.
type NodeGraph interface {
	Nodes() []*battle.Node
	Node(id int) (*battle.Node, bool)
}

// Env bundles the services an AI state consumes.
// All of them are read-only from the AI's point of view.
type Env struct {
	World      World
	Visibility Visibility
	Paths      Pathfinder
	Nodes      NodeGraph
	Rand       *rand.Rand
	Settings   Settings
}

// BattleEnv builds an Env backed by a battle.
func BattleEnv(b *battle.Battle, s Settings) Env {
	return Env{
		World:      b,
		Visibility: b,
		Paths:      b,
		Nodes:      b,
		Rand:       b.Rand(),
		Settings:   s,
	}
}
