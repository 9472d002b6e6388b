package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
	"github.com/fluffyfreak/OpenXcom/internal/testutil"
)

func TestSetupEscape_NeverIncreasesExposure(t *testing.T) {
	for seed := range uint64(10) {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			alien := testutil.Alien(10, geo.Pos(10, 10, 0))
			first := testutil.Soldier(1, geo.Pos(10, 15, 0))
			second := testutil.Soldier(2, geo.Pos(12, 14, 0))
			first.TurnsSinceSpotted, second.TurnsSinceSpotted = 0, 0
			b := testutil.NewBattle(t, 30, 30, 1).
				SolidLine(geo.Pos(14, 4, 0), geo.Pos(14, 9, 0)).
				Unit(alien, first, second).
				With(battle.WithSeed(seed)).
				Build()
			s := newTestState(t, b, 10, NoNode)

			s.SetWasHit()
			a := think(s)

			require.Equal(t, ModeEscape, s.Mode())
			_, _, spotting := s.Counts()
			require.Equal(t, battle.ActionWalk, a.Type)
			assert.LessOrEqual(t, s.getSpottingUnits(a.Target), spotting)
			assert.True(t, a.FinalAction)
			assert.True(t, a.Desperate)
			assert.Zero(t, a.Reserve)

			escape, _, _ := s.Budgets()
			assert.Equal(t, a.TU, escape)
			assert.LessOrEqual(t, a.TU, alien.TU)
		})
	}
}

func TestSetupEscape_HoldsWhenNothingIsReachable(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	soldier := testutil.Soldier(1, geo.Pos(5, 9, 0))
	soldier.TurnsSinceSpotted = 0
	b := testutil.NewBattle(t, 20, 20, 1).Unit(alien, soldier).Build()
	s := newTestState(t, b, 10, NoNode)
	alien.TU = 0

	s.SetWasHit()
	a := think(s)

	assert.Equal(t, ModeEscape, s.Mode())
	assert.Equal(t, battle.ActionNone, a.Type)
	escape, _, _ := s.Budgets()
	assert.Zero(t, escape)
	assert.True(t, s.Plan().Hold())
}

// forkBattle carves a fork out of solid rock. From the alien at (5,10) two
// arms lead north to (4,7) and (6,7), equally far from the soldier at (5,20)
// and hidden from it. Only the arm ends are safe, and the east end is rough
// ground.
func forkBattle(t *testing.T, seed uint64) *battle.Battle {
	t.Helper()
	alien := testutil.Alien(10, geo.Pos(5, 10, 0))
	soldier := testutil.Soldier(1, geo.Pos(5, 20, 0))
	soldier.TurnsSinceSpotted = 0

	bb := testutil.NewBattle(t, 11, 21, 1)
	for y := range 21 {
		bb.SolidLine(geo.Pos(0, y, 0), geo.Pos(10, y, 0))
	}
	danger := geo.Tile{Dangerous: true}
	return bb.
		Tile(geo.Pos(5, 10, 0), geo.Tile{}).
		Tile(geo.Pos(5, 20, 0), geo.Tile{}).
		Tile(geo.Pos(5, 9, 0), danger).
		Tile(geo.Pos(4, 9, 0), danger).
		Tile(geo.Pos(4, 8, 0), danger).
		Tile(geo.Pos(4, 7, 0), geo.Tile{}).
		Tile(geo.Pos(6, 9, 0), danger).
		Tile(geo.Pos(6, 8, 0), danger).
		Tile(geo.Pos(6, 7, 0), geo.Tile{Cost: 30}).
		Unit(alien, soldier).
		With(battle.WithSeed(seed)).
		Build()
}

func TestSetupEscape_PrefersCheaperTile(t *testing.T) {
	for seed := range uint64(8) {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			s := newTestState(t, forkBattle(t, seed), 10, NoNode)

			s.SetWasHit()
			a := think(s)

			require.Equal(t, ModeEscape, s.Mode())
			require.Equal(t, battle.ActionWalk, a.Type)
			assert.Equal(t, geo.Pos(4, 7, 0), a.Target)
			assert.Equal(t, 16, a.TU)
		})
	}
}

// ambushBattle builds two rooms split by a wall at x=15. The soldier is in
// the east room out of sight; the alien waits in the west room next to a
// window. With door set, the rooms connect at (15,10).
func ambushBattle(t *testing.T, door bool) (*battle.Battle, *battle.Unit) {
	t.Helper()
	alien := testutil.ArmedAlien(10, geo.Pos(8, 10, 0))
	soldier := testutil.Soldier(1, geo.Pos(25, 3, 0))
	soldier.TurnsSinceSpotted = 0

	bb := testutil.NewBattle(t, 30, 20, 1).
		SolidLine(geo.Pos(15, 0, 0), geo.Pos(15, 19, 0)).
		Tile(geo.Pos(10, 12, 0), geo.Tile{Window: true}).
		Node(0, geo.Pos(8, 10, 0), 1).
		Node(1, geo.Pos(4, 15, 0), 1, 0).
		Unit(alien, soldier)
	if door {
		bb.Tile(geo.Pos(15, 10, 0), geo.Tile{})
	}
	return bb.Build(), soldier
}

func TestSetupAmbush_CoversEnemyApproach(t *testing.T) {
	b, soldier := ambushBattle(t, true)
	s := newTestState(t, b, 10, 0)

	a := think(s)

	require.Equal(t, ModeAmbush, s.Mode())
	known, visible, spotting := s.Counts()
	assert.Equal(t, 1, known)
	assert.Zero(t, visible)
	assert.Zero(t, spotting)

	require.Equal(t, battle.ActionWalk, a.Type)
	assert.True(t, a.FinalAction)
	assert.NotEqual(t, geo.NoDirection, a.FinalFacing)
	assert.Equal(t, 18, a.Reserve, "snapshot TU stay reserved")
	assert.False(t, b.CanSee(soldier, a.Target), "ambush tile must be concealed")
	assert.Zero(t, s.getSpottingUnits(a.Target))
	assert.NotEqual(t, geo.NoDirection, b.FaceWindow(a.Target))
	assert.Equal(t, soldier.ID, s.AggroTarget())

	_, ambush, _ := s.Budgets()
	assert.Equal(t, a.TU, ambush)
}

func TestSetupAmbush_FallsBackToPatrol(t *testing.T) {
	b, _ := ambushBattle(t, false)
	s := newTestState(t, b, 10, 0)

	a := think(s)

	assert.Equal(t, ModePatrol, s.Mode())
	require.Equal(t, battle.ActionWalk, a.Type)
	assert.Equal(t, geo.Pos(4, 15, 0), a.Target)
	assert.Equal(t, 21, a.Reserve, "aggression 1 reserves auto shot TU")
	assert.False(t, a.FinalAction)

	from, to := s.Nodes()
	assert.Equal(t, 0, from)
	assert.Equal(t, 1, to)
}

func TestSetupPatrol_AdvancesAlongLinks(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	b := testutil.NewBattle(t, 20, 20, 1).
		Node(0, geo.Pos(5, 5, 0), 1).
		Node(1, geo.Pos(5, 15, 0), 1, 0).
		Node(2, geo.Pos(15, 5, 0), 1, 0).
		Unit(alien).
		Build()
	s := newTestState(t, b, 10, 0)

	a := think(s)
	require.Equal(t, ModePatrol, s.Mode())
	require.Equal(t, battle.ActionWalk, a.Type)
	assert.Zero(t, a.Reserve)

	from, to := s.Nodes()
	assert.Equal(t, 0, from)
	require.Contains(t, []int{1, 2}, to)
	dest, ok := b.Node(to)
	require.True(t, ok)
	assert.Equal(t, dest.Pos, a.Target)

	// Still on the way: keep heading for the same node.
	a = think(s)
	assert.Equal(t, dest.Pos, a.Target)

	alien.Pos = dest.Pos
	a = think(s)

	from, next := s.Nodes()
	assert.Equal(t, to, from)
	assert.Equal(t, 0, next, "the only link leads back")
	assert.Equal(t, geo.Pos(5, 5, 0), a.Target)
}

func TestSetupPatrol_PicksClosestNodeWithoutStart(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(6, 6, 0))
	b := testutil.NewBattle(t, 20, 20, 1).
		Node(0, geo.Pos(15, 15, 0), 1).
		Node(1, geo.Pos(5, 5, 0), 1, 0).
		Unit(alien).
		Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	from, to := s.Nodes()
	assert.Equal(t, 1, from)
	assert.Equal(t, 0, to)
	assert.Equal(t, geo.Pos(15, 15, 0), a.Target)
}

func TestSetupPatrol_HoldsWithoutNodes(t *testing.T) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	b := testutil.NewBattle(t, 20, 20, 1).Unit(alien).Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	assert.Equal(t, ModePatrol, s.Mode())
	assert.Equal(t, battle.ActionNone, a.Type)
	from, to := s.Nodes()
	assert.Equal(t, NoNode, from)
	assert.Equal(t, NoNode, to)
}

func TestSetupPatrol_SkipsUnreachableNodes(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(2, 2, 0))
	b := testutil.NewBattle(t, 20, 20, 1).
		// Node 1 sits in a sealed box.
		Solid(
			geo.Pos(14, 14, 0), geo.Pos(15, 14, 0), geo.Pos(16, 14, 0),
			geo.Pos(14, 15, 0), geo.Pos(16, 15, 0),
			geo.Pos(14, 16, 0), geo.Pos(15, 16, 0), geo.Pos(16, 16, 0),
		).
		Node(0, geo.Pos(2, 2, 0), 1).
		Node(1, geo.Pos(15, 15, 0), 5, 0).
		Node(2, geo.Pos(2, 10, 0), 1, 0).
		Unit(alien).
		Build()
	s := newTestState(t, b, 10, 0)

	a := think(s)

	_, to := s.Nodes()
	assert.Equal(t, 2, to)
	assert.Equal(t, geo.Pos(2, 10, 0), a.Target)
}
