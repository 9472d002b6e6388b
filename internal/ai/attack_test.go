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

func TestSetupAttack_SelectsFireMethod(t *testing.T) {
	tests := []struct {
		name    string
		soldier geo.Position
		tu      int
		want    battle.ActionType
		wantTU  int
	}{
		{"close range auto", geo.Pos(5, 7, 0), 60, battle.ActionAutoShot, 21},
		{"mid range snap", geo.Pos(5, 12, 0), 60, battle.ActionSnapShot, 18},
		{"long range aimed", geo.Pos(5, 20, 0), 60, battle.ActionAimedShot, 36},
		{"long range snap when short of TU", geo.Pos(5, 20, 0), 20, battle.ActionSnapShot, 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
			soldier := testutil.Soldier(1, tt.soldier)
			b := testutil.NewBattle(t, 30, 30, 1).Unit(alien, soldier).Build()
			s := newTestState(t, b, 10, NoNode)
			alien.TU = tt.tu

			a := think(s)

			require.Equal(t, ModeCombat, s.Mode())
			assert.Equal(t, tt.want, a.Type)
			assert.Equal(t, tt.wantTU, a.TU)
			assert.Equal(t, soldier.ID, a.TargetUnit)
			assert.Equal(t, soldier.Pos, a.Target)
			assert.Same(t, alien.MainHand, a.Weapon)
			assert.Equal(t, soldier.ID, s.AggroTarget())
		})
	}
}

func TestSelectFireMethod_NoShot(t *testing.T) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	b := testutil.NewBattle(t, 20, 20, 1).Unit(alien).Build()
	s := newTestState(t, b, 10, NoNode)
	s.beginCycle()

	assert.Equal(t, battle.ActionNone, s.selectFireMethod(battle.DefaultRange+1), "out of range")

	alien.TU = 10
	assert.Equal(t, battle.ActionNone, s.selectFireMethod(5), "not enough TU")

	alien.TU = 60
	alien.MainHand.Ammo.Rounds = 2
	assert.Equal(t, battle.ActionSnapShot, s.selectFireMethod(2), "auto needs three rounds")

	alien.MainHand.Ammo.Rounds = 0
	assert.Equal(t, battle.ActionNone, s.selectFireMethod(2), "empty clip")
}

func grenadier(id battle.UnitID, pos geo.Position) *battle.Unit {
	u := testutil.ArmedAlien(id, pos)
	u.Belt = []*battle.Item{battle.NewItem(900, testutil.Fixtures.Grenade)}
	return u
}

func TestSetupAttack_GrenadeNeedsEfficacy(t *testing.T) {
	tests := []struct {
		name     string
		turn     int
		soldiers []geo.Position
		want     battle.ActionType
	}{
		{
			name:     "cluster after grace period",
			turn:     5,
			soldiers: []geo.Position{geo.Pos(5, 12, 0), geo.Pos(6, 12, 0), geo.Pos(5, 13, 0)},
			want:     battle.ActionThrow,
		},
		{
			name:     "cluster during grace period",
			turn:     1,
			soldiers: []geo.Position{geo.Pos(5, 12, 0), geo.Pos(6, 12, 0), geo.Pos(5, 13, 0)},
			want:     battle.ActionSnapShot,
		},
		{
			name:     "lone soldier",
			turn:     5,
			soldiers: []geo.Position{geo.Pos(5, 12, 0)},
			want:     battle.ActionSnapShot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alien := grenadier(10, geo.Pos(5, 5, 0))
			bb := testutil.NewBattle(t, 30, 30, 1).Unit(alien).With(battle.WithTurn(tt.turn))
			for i, p := range tt.soldiers {
				bb.Unit(testutil.Soldier(battle.UnitID(i+1), p))
			}
			b := bb.Build()
			s := newTestState(t, b, 10, NoNode)

			a := think(s)

			require.Equal(t, ModeCombat, s.Mode())
			assert.Equal(t, tt.want, a.Type)
			assert.Equal(t, geo.Pos(5, 12, 0), a.Target)
			assert.Equal(t, battle.UnitID(1), a.TargetUnit)
			if tt.want == battle.ActionThrow {
				assert.Same(t, alien.Belt[0], a.Weapon)
				assert.Equal(t, battle.TUPickup+30+15, a.TU)
			}
		})
	}
}

func TestExplosiveEfficacy(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	friend := testutil.Alien(11, geo.Pos(5, 11, 0))
	s1 := testutil.Soldier(1, geo.Pos(5, 12, 0))
	s2 := testutil.Soldier(2, geo.Pos(6, 12, 0))
	b := testutil.NewBattle(t, 30, 30, 1).
		Unit(alien, friend, s1, s2).
		With(battle.WithTurn(5)).
		Build()
	s := newTestState(t, b, 10, NoNode)
	s.beginCycle()

	// Two enemies gained, one friend lost.
	assert.False(t, s.explosiveEfficacy(s1.Pos, 2, false))

	friend.Status = battle.StatusDead
	assert.True(t, s.explosiveEfficacy(s1.Pos, 2, false))
	assert.True(t, s.explosiveEfficacy(s1.Pos, 2, true))

	// The thrower inside its own blast.
	assert.False(t, s.explosiveEfficacy(s1.Pos, 8, false))

	// A desperate unit accepts a single target.
	s2.Status = battle.StatusDead
	assert.False(t, s.explosiveEfficacy(s1.Pos, 2, true))
	alien.Morale = 30
	assert.True(t, s.explosiveEfficacy(s1.Pos, 2, true))

	assert.False(t, s.explosiveEfficacy(s1.Pos, 0, false), "no blast")
}

func TestSetupAttack_MeleeStrikesAdjacent(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	alien.MainHand = battle.NewItem(70, testutil.Fixtures.Claws)
	soldier := testutil.Soldier(1, geo.Pos(5, 6, 0))
	b := testutil.NewBattle(t, 20, 20, 1).Unit(alien, soldier).Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	require.Equal(t, ModeCombat, s.Mode())
	assert.Equal(t, battle.ActionHit, a.Type)
	assert.Equal(t, soldier.Pos, a.Target)
	assert.Equal(t, 12, a.TU)
}

func TestSetupAttack_MeleeCharges(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	alien.MainHand = battle.NewItem(70, testutil.Fixtures.Claws)
	soldier := testutil.Soldier(1, geo.Pos(5, 9, 0))
	b := testutil.NewBattle(t, 20, 20, 1).Unit(alien, soldier).Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	require.Equal(t, ModeCombat, s.Mode())
	require.Equal(t, battle.ActionWalk, a.Type)
	assert.True(t, geo.Adjacent(a.Target, soldier.Pos), "charge ends next to the target")
	assert.Equal(t, 12, a.Reserve, "TU for the blow stay reserved")
	assert.LessOrEqual(t, a.TU, alien.TU-12)
	assert.Equal(t, soldier.ID, a.TargetUnit)

	// Arriving next to the target turns the charge into a strike.
	alien.Pos = a.Target
	a = think(s)
	assert.Equal(t, battle.ActionHit, a.Type)
}

// psiCorridor puts a psionic alien at (5,5) and a soldier at (5,12) in a
// one tile wide north-south corridor. The rough tile north of the alien makes
// every retreat cost at least 10 TU.
func psiCorridor(t *testing.T, seed uint64) (*battle.Battle, *battle.Unit, *battle.Unit) {
	t.Helper()
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	alien.Stats.PsiSkill, alien.Stats.PsiStrength = 60, 80
	soldier := testutil.Soldier(1, geo.Pos(5, 12, 0))
	b := testutil.NewBattle(t, 30, 30, 1).
		SolidLine(geo.Pos(4, 0, 0), geo.Pos(4, 20, 0)).
		SolidLine(geo.Pos(6, 0, 0), geo.Pos(6, 20, 0)).
		Solid(geo.Pos(5, 2, 0), geo.Pos(5, 13, 0)).
		Tile(geo.Pos(5, 4, 0), geo.Tile{Cost: 10}).
		Unit(alien, soldier).
		With(battle.WithSeed(seed)).
		Build()
	return b, alien, soldier
}

func TestSetupAttack_PsiOncePerTurn(t *testing.T) {
	b, _, soldier := psiCorridor(t, 42)
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	require.Equal(t, ModeCombat, s.Mode())
	assert.Contains(t, []battle.ActionType{battle.ActionPanic, battle.ActionMindControl}, a.Type)
	assert.Equal(t, soldier.ID, a.TargetUnit)
	assert.Equal(t, 25, a.TU)
	require.NotNil(t, a.Weapon)
	assert.Same(t, battle.AlienPsiWeapon, a.Weapon.Rule)

	escape, _, _ := s.Budgets()
	assert.GreaterOrEqual(t, escape, 10, "a spotted unit prices its retreat")
	assert.LessOrEqual(t, escape, 14)

	a = think(s)
	assert.Equal(t, battle.ActionSnapShot, a.Type, "psi is spent for this turn")
}

func TestSetupAttack_PsiKeepsEscapeTUs(t *testing.T) {
	for seed := range uint64(6) {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			b, alien, _ := psiCorridor(t, seed)
			s := newTestState(t, b, 10, NoNode)
			alien.TU = 30

			a := think(s)

			escape, _, _ := s.Budgets()
			require.GreaterOrEqual(t, escape, 10)
			assert.Less(t, alien.TU, escape+25)
			assert.Equal(t, battle.ActionSnapShot, a.Type, "no psi without TU to retreat")

			alien.TU = 60
			a = think(s)
			assert.Contains(t, []battle.ActionType{battle.ActionPanic, battle.ActionMindControl}, a.Type,
				"psi was not spent by the refused attempt")
		})
	}
}

func TestSetupAttack_MindControlledSoldierSkipsPsi(t *testing.T) {
	traitor := testutil.Soldier(10, geo.Pos(5, 5, 0))
	traitor.Faction = battle.FactionHostile
	traitor.Stats.PsiSkill, traitor.Stats.PsiStrength = 60, 80
	traitor.MainHand = testutil.LoadedRifle(100)
	soldier := testutil.Soldier(1, geo.Pos(5, 12, 0))
	b := testutil.NewBattle(t, 30, 30, 1).Unit(traitor, soldier).Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	assert.Equal(t, ModeCombat, s.Mode())
	assert.Equal(t, battle.ActionSnapShot, a.Type)
}

func TestSetupAttack_BlasterWaypoints(t *testing.T) {
	alien := testutil.Alien(10, geo.Pos(5, 5, 0))
	alien.MainHand = battle.NewItem(80, testutil.Fixtures.Blaster)
	soldier := testutil.Soldier(1, geo.Pos(18, 5, 0))
	soldier.TurnsSinceSpotted = 0
	b := testutil.NewBattle(t, 30, 30, 1).
		SolidLine(geo.Pos(10, 0, 0), geo.Pos(10, 20, 0)).
		Unit(alien, soldier).
		With(battle.WithTurn(5)).
		Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	require.Equal(t, ModeCombat, s.Mode())
	_, visible, _ := s.Counts()
	assert.Zero(t, visible)
	require.Equal(t, battle.ActionLaunch, a.Type)
	require.NotEmpty(t, a.Waypoints)
	assert.Equal(t, soldier.Pos, a.Waypoints[len(a.Waypoints)-1])
	assert.Equal(t, a.Waypoints[0], a.Target)
	assert.LessOrEqual(t, len(a.Waypoints), 6+2*b.Difficulty())
	assert.Greater(t, len(a.Waypoints), 1, "the wall forces a turn")
	assert.Equal(t, 48, a.TU)
}

func TestSetupAttack_FindsFirePoint(t *testing.T) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	alien.Aggression = 2
	blocker := testutil.Alien(11, geo.Pos(5, 8, 0))
	soldier := testutil.Soldier(1, geo.Pos(5, 12, 0))
	b := testutil.NewBattle(t, 30, 30, 1).Unit(alien, blocker, soldier).Build()
	s := newTestState(t, b, 10, NoNode)

	a := think(s)

	require.Equal(t, ModeCombat, s.Mode())
	require.Equal(t, battle.ActionWalk, a.Type)
	assert.NotEqual(t, alien.Pos, a.Target)
	assert.True(t, b.CanTarget(a.Target, soldier.Pos, alien, soldier))
	assert.Equal(t, soldier.ID, a.TargetUnit)
	assert.Equal(t, 18, a.Reserve)
	assert.LessOrEqual(t, a.TU, alien.TU-18)
	assert.Equal(t, geo.DirectionTo(a.Target, soldier.Pos), a.FinalFacing)
}

func TestSetupAttack_FirePointRandomTargetWithoutMemory(t *testing.T) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	alien.Aggression = 2
	alien.Intelligence = 0
	blocker := testutil.Alien(11, geo.Pos(5, 8, 0))
	soldier := testutil.Soldier(1, geo.Pos(5, 12, 0))
	b := testutil.NewBattle(t, 30, 30, 1).Unit(alien, blocker, soldier).Build()
	s := newTestState(t, b, 10, NoNode)
	require.Zero(t, s.Intelligence())

	a := think(s)

	require.Equal(t, battle.ActionWalk, a.Type)
	assert.Equal(t, soldier.ID, a.TargetUnit)
	assert.True(t, b.CanTarget(a.Target, soldier.Pos, alien, soldier))
}

func BenchmarkThink_Combat(b *testing.B) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	soldier := testutil.Soldier(1, geo.Pos(8, 15, 0))
	bt := testutil.NewBattle(b, 40, 40, 1).
		SolidLine(geo.Pos(2, 10, 0), geo.Pos(7, 10, 0)).
		Unit(alien, soldier).
		Build()
	s := newTestState(b, bt, 10, NoNode)
	a := battle.NewAction(10)

	b.ResetTimer()
	for range b.N {
		s.Think(&a)
	}
}

func BenchmarkThink_Patrol(b *testing.B) {
	alien := testutil.ArmedAlien(10, geo.Pos(5, 5, 0))
	bt := testutil.NewBattle(b, 40, 40, 1).
		Node(0, geo.Pos(5, 5, 0), 1).
		Node(1, geo.Pos(30, 30, 0), 1, 0).
		Node(2, geo.Pos(5, 30, 0), 1, 0, 1).
		Unit(alien).
		Build()
	s := newTestState(b, bt, 10, 0)
	a := battle.NewAction(10)

	b.ResetTimer()
	for range b.N {
		s.Think(&a)
	}
}
