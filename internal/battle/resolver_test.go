package battle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

func TestResolverWalkKeepsReserve(t *testing.T) {
	u := NewUnit(1, "w", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	b := newTestBattle(t, u)
	r := NewResolver(b, nil)

	a := NewAction(u.ID)
	a.Type = ActionWalk
	a.Target = geo.Pos(19, 0, 0)
	a.Reserve = 50

	require.NoError(t, r.Execute(context.Background(), &a))
	assert.Equal(t, geo.Pos(2, 0, 0), u.Pos)
	assert.Equal(t, 52, u.TU)
	assert.Equal(t, geo.DirEast, u.Direction)
}

func TestResolverWalkFinalFacing(t *testing.T) {
	u := NewUnit(1, "w", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	b := newTestBattle(t, u)
	r := NewResolver(b, nil)

	a := NewAction(u.ID)
	a.Type = ActionWalk
	a.Target = geo.Pos(2, 0, 0)
	a.FinalFacing = geo.DirSouth

	require.NoError(t, r.Execute(context.Background(), &a))
	assert.Equal(t, geo.Pos(2, 0, 0), u.Pos)
	assert.Equal(t, geo.DirSouth, u.Direction)
}

func TestResolverWalkRejected(t *testing.T) {
	u := NewUnit(1, "w", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	b := newTestBattle(t, u)
	r := NewResolver(b, nil)
	u.TU = 2

	a := NewAction(u.ID)
	a.Type = ActionWalk
	a.Target = geo.Pos(5, 0, 0)
	assert.ErrorIs(t, r.Execute(context.Background(), &a), ErrRejected)
	assert.Equal(t, geo.Pos(0, 0, 0), u.Pos)
}

func TestResolverUnknownActor(t *testing.T) {
	b := newTestBattle(t)
	r := NewResolver(b, nil)
	a := NewAction(42)
	err := r.Execute(context.Background(), &a)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}

func TestResolverCanceledContext(t *testing.T) {
	u := NewUnit(1, "w", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	r := NewResolver(newTestBattle(t, u), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewAction(u.ID)
	assert.ErrorIs(t, r.Execute(ctx, &a), context.Canceled)
}

func TestResolverShotNotifiesHit(t *testing.T) {
	stats := testStats
	stats.FiringAccuracy = 200
	shooter := NewUnit(1, "s", KindAlien, FactionHostile, geo.Pos(0, 0, 0), stats)
	target := NewUnit(2, "t", KindSoldier, FactionPlayer, geo.Pos(3, 0, 0), testStats)
	b := newTestBattle(t, shooter, target)

	var hits []UnitID
	r := NewResolver(b, func(id UnitID) { hits = append(hits, id) })

	rifle := NewItem(1, &ItemRule{Type: BTFirearm, TUSnap: 25, AccuracySnap: 100, ClipSize: 5, Power: 30})
	a := NewAction(shooter.ID)
	a.Type = ActionSnapShot
	a.Target = target.Pos
	a.Weapon = rifle

	require.NoError(t, r.Execute(context.Background(), &a))
	assert.Equal(t, []UnitID{2}, hits)
	assert.Less(t, target.Health, testStats.Health)
	assert.Equal(t, 4, rifle.RoundsLeft())
	assert.Equal(t, 45, shooter.TU)
}

func TestResolverShotWithoutAmmo(t *testing.T) {
	shooter := NewUnit(1, "s", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	b := newTestBattle(t, shooter)
	r := NewResolver(b, nil)
	a := NewAction(shooter.ID)
	a.Type = ActionAimedShot
	a.Weapon = NewItem(1, &ItemRule{Type: BTFirearm})
	assert.ErrorIs(t, r.Execute(context.Background(), &a), ErrRejected)
}

func TestResolverThrowRemovesGrenade(t *testing.T) {
	stats := testStats
	stats.ThrowingAccuracy = 100
	thrower := NewUnit(1, "s", KindAlien, FactionHostile, geo.Pos(0, 0, 0), stats)
	target := NewUnit(2, "t", KindSoldier, FactionPlayer, geo.Pos(8, 0, 0), testStats)
	b := newTestBattle(t, thrower, target)
	grenade := NewItem(1, &ItemRule{Type: BTGrenade, TUPrime: 50, Power: 200, BlastRadius: 1})
	thrower.Belt = []*Item{grenade}

	var hits []UnitID
	r := NewResolver(b, func(id UnitID) { hits = append(hits, id) })
	a := NewAction(thrower.ID)
	a.Type = ActionThrow
	a.Target = target.Pos
	a.Weapon = grenade

	require.NoError(t, r.Execute(context.Background(), &a))
	assert.Nil(t, thrower.GrenadeFromBelt())
	assert.Equal(t, []UnitID{2}, hits)
	assert.Equal(t, 60-4-30-15, thrower.TU)
	assert.True(t, target.IsOut())
}

func TestResolverMindControl(t *testing.T) {
	stats := testStats
	stats.PsiSkill = 100
	stats.PsiStrength = 100
	alien := NewUnit(1, "a", KindAlien, FactionHostile, geo.Pos(0, 0, 0), stats)
	soldier := NewUnit(2, "s", KindSoldier, FactionPlayer, geo.Pos(2, 0, 0), testStats)
	b := newTestBattle(t, alien, soldier)
	r := NewResolver(b, nil)

	a := NewAction(alien.ID)
	a.Type = ActionMindControl
	a.Target = soldier.Pos
	require.NoError(t, r.Execute(context.Background(), &a))

	assert.Equal(t, FactionHostile, soldier.Faction)
	assert.True(t, soldier.MindControlled())
	assert.Equal(t, 35, alien.TU)
}

func TestResolverMeleeRequiresAdjacency(t *testing.T) {
	alien := NewUnit(1, "a", KindAlien, FactionHostile, geo.Pos(0, 0, 0), testStats)
	soldier := NewUnit(2, "s", KindSoldier, FactionPlayer, geo.Pos(2, 0, 0), testStats)
	r := NewResolver(newTestBattle(t, alien, soldier), nil)

	a := NewAction(alien.ID)
	a.Type = ActionHit
	a.Target = soldier.Pos
	a.Weapon = NewItem(1, &ItemRule{Type: BTMelee, TUMelee: 20, AccuracyMelee: 100, Power: 20})
	assert.ErrorIs(t, r.Execute(context.Background(), &a), ErrRejected)
}
