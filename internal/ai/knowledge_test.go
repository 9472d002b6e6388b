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

// twoSoldiers places an alien at (2,2) with a known soldier two tiles away
// and another eighteen tiles away.
func twoSoldiers(t *testing.T, seed uint64) *AlienState {
	t.Helper()
	alien := testutil.Alien(10, geo.Pos(2, 2, 0))
	near := testutil.Soldier(1, geo.Pos(4, 2, 0))
	far := testutil.Soldier(2, geo.Pos(20, 2, 0))
	near.TurnsSinceSpotted, far.TurnsSinceSpotted = 0, 0
	b := testutil.NewBattle(t, 25, 5, 1).
		Unit(alien, near, far).
		With(battle.WithSeed(seed)).
		Build()
	return newTestState(t, b, 10, NoNode)
}

func TestSelectRandomTarget(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "no known enemy",
			check: func(t *testing.T) {
				alien := testutil.Alien(10, geo.Pos(2, 2, 0))
				hidden := testutil.Soldier(1, geo.Pos(8, 2, 0))
				b := testutil.NewBattle(t, 10, 5, 1).
					SolidLine(geo.Pos(5, 0, 0), geo.Pos(5, 4, 0)).
					Unit(alien, hidden).
					Build()
				s := newTestState(t, b, 10, NoNode)

				target, ok := s.selectRandomTarget()
				assert.False(t, ok)
				assert.Nil(t, target)
			},
		},
		{
			name: "same seed same pick",
			check: func(t *testing.T) {
				for seed := range uint64(10) {
					first, ok := twoSoldiers(t, seed).selectRandomTarget()
					require.True(t, ok)
					second, ok := twoSoldiers(t, seed).selectRandomTarget()
					require.True(t, ok)
					assert.Equal(t, first.ID, second.ID, "seed %d", seed)
				}
			},
		},
		{
			name: "closer enemy is favoured",
			check: func(t *testing.T) {
				const seeds = 40
				near := 0
				for seed := range uint64(seeds) {
					target, ok := twoSoldiers(t, seed).selectRandomTarget()
					require.True(t, ok)
					if target.ID == 1 {
						near++
					}
				}
				assert.Greater(t, near, seeds*3/4)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.check)
	}
}

func TestSelectClosestKnownEnemy(t *testing.T) {
	for seed := range uint64(3) {
		t.Run(fmt.Sprintf("seed%d", seed), func(t *testing.T) {
			target, ok := twoSoldiers(t, seed).selectClosestKnownEnemy()
			require.True(t, ok)
			assert.Equal(t, battle.UnitID(1), target.ID)
		})
	}
}
