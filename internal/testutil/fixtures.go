package testutil

import (
	"testing"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// Fixtures holds the stats and item rules shared by battle tests.
var Fixtures = struct {
	SoldierStats  battle.Stats
	AlienStats    battle.Stats
	CivilianStats battle.Stats

	Rifle   *battle.ItemRule
	Clip    *battle.ItemRule
	Blaster *battle.ItemRule
	Grenade *battle.ItemRule
	Claws   *battle.ItemRule
}{
	SoldierStats: battle.Stats{
		TU: 60, Health: 40, Bravery: 50, Reactions: 50,
		FiringAccuracy: 60, ThrowingAccuracy: 60, MeleeAccuracy: 50,
		Strength: 30, PsiStrength: 40, PsiSkill: 0,
	},
	AlienStats: battle.Stats{
		TU: 60, Health: 40, Bravery: 80, Reactions: 60,
		FiringAccuracy: 70, ThrowingAccuracy: 70, MeleeAccuracy: 70,
		Strength: 40, PsiStrength: 0, PsiSkill: 0,
	},
	CivilianStats: battle.Stats{
		TU: 50, Health: 20, Bravery: 20, Reactions: 20, Strength: 20,
	},

	Rifle: &battle.ItemRule{
		Name: "PLASMA_RIFLE", Type: battle.BTFirearm,
		TUAuto: 35, TUSnap: 30, TUAimed: 60,
		AccuracyAuto: 55, AccuracySnap: 86, AccuracyAimed: 100,
		AutoShots: 3, Power: 80,
	},
	Clip: &battle.ItemRule{
		Name: "PLASMA_RIFLE_CLIP", Type: battle.BTAmmo, Power: 80, ClipSize: 28,
	},
	Blaster: &battle.ItemRule{
		Name: "BLASTER_LAUNCHER", Type: battle.BTFirearm,
		TUAimed: 80, AccuracyAimed: 120, Power: 200, ClipSize: 1, Waypoints: -1,
	},
	Grenade: &battle.ItemRule{
		Name: "ALIEN_GRENADE", Type: battle.BTGrenade,
		TUPrime: 50, Power: 90,
	},
	Claws: &battle.ItemRule{
		Name: "CLAWS", Type: battle.BTMelee,
		TUMelee: 20, AccuracyMelee: 100, Power: 40,
	},
}

// Soldier creates a player soldier.
func Soldier(id battle.UnitID, pos geo.Position) *battle.Unit {
	return battle.NewUnit(id, "soldier", battle.KindSoldier, battle.FactionPlayer, pos, Fixtures.SoldierStats)
}

// Alien creates an unarmed alien.
func Alien(id battle.UnitID, pos geo.Position) *battle.Unit {
	u := battle.NewUnit(id, "alien", battle.KindAlien, battle.FactionHostile, pos, Fixtures.AlienStats)
	u.Intelligence = 3
	u.Aggression = 1
	return u
}

// ArmedAlien creates an alien holding a loaded plasma rifle.
func ArmedAlien(id battle.UnitID, pos geo.Position) *battle.Unit {
	u := Alien(id, pos)
	u.MainHand = LoadedRifle(int(id) * 10)
	return u
}

// Civilian creates a neutral civilian.
func Civilian(id battle.UnitID, pos geo.Position) *battle.Unit {
	return battle.NewUnit(id, "civilian", battle.KindCivilian, battle.FactionNeutral, pos, Fixtures.CivilianStats)
}

// LoadedRifle creates a plasma rifle with a full clip.
func LoadedRifle(id int) *battle.Item {
	rifle := battle.NewItem(id, Fixtures.Rifle)
	rifle.Load(battle.NewItem(id+1, Fixtures.Clip))
	return rifle
}

// BattleBuilder assembles small battles for tests.
type BattleBuilder struct {
	tb    testing.TB
	grid  *geo.Map
	nodes *battle.NodeGraph
	units []*battle.Unit
	opts  []battle.Option
}

// NewBattle starts an open map of the given size.
func NewBattle(tb testing.TB, sx, sy, sz int) *BattleBuilder {
	tb.Helper()
	return &BattleBuilder{
		tb:    tb,
		grid:  geo.NewMap(sx, sy, sz),
		nodes: battle.NewNodeGraph(),
		opts:  []battle.Option{battle.WithSeed(42)},
	}
}

// Solid fills tiles with solid terrain.
func (b *BattleBuilder) Solid(ps ...geo.Position) *BattleBuilder {
	for _, p := range ps {
		b.grid.SetTile(p, geo.Tile{Solid: true})
	}
	return b
}

// SolidLine fills every tile on the straight line between two tiles.
func (b *BattleBuilder) SolidLine(from, to geo.Position) *BattleBuilder {
	return b.Solid(geo.Line(from, to)...)
}

// Tile sets a tile.
func (b *BattleBuilder) Tile(p geo.Position, t geo.Tile) *BattleBuilder {
	b.grid.SetTile(p, t)
	return b
}

// Node adds a patrol node linked to already added nodes.
func (b *BattleBuilder) Node(id int, p geo.Position, priority int, links ...int) *BattleBuilder {
	b.nodes.Add(&battle.Node{ID: id, Pos: p, Priority: priority})
	for _, l := range links {
		b.nodes.Link(id, l)
	}
	return b
}

// Unit places units.
func (b *BattleBuilder) Unit(units ...*battle.Unit) *BattleBuilder {
	b.units = append(b.units, units...)
	return b
}

// With adds battle options.
func (b *BattleBuilder) With(opts ...battle.Option) *BattleBuilder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build creates the battle. Placement errors fail the test.
func (b *BattleBuilder) Build() *battle.Battle {
	b.tb.Helper()
	bt := battle.New("test", b.grid, b.nodes, b.opts...)
	for _, u := range b.units {
		if err := bt.AddUnit(u); err != nil {
			b.tb.Fatalf("placing unit: %v", err)
		}
	}
	return bt
}
