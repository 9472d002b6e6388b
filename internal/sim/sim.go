// Package sim plays out battles between AI-controlled units and a passive
// player side.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fluffyfreak/OpenXcom/internal/ai"
	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/scenario"
)

// aiFactions act in this order every turn. The player side holds.
var aiFactions = []battle.Faction{battle.FactionHostile, battle.FactionNeutral}

// Result summarizes a finished run.
type Result struct {
	Battle  string
	Turns   int
	Actions int
	Alive   map[battle.Faction]int
	// Over is set when one side was wiped out before the turn limit.
	Over bool
}

// Runner drives one battle. It is not safe for concurrent use; run separate
// battles on separate runners.
type Runner struct {
	battle   *battle.Battle
	manager  *ai.Manager
	resolver *battle.Resolver
}

// New prepares a runner and registers a controller for every AI-side unit,
// starting from its spawn node.
func New(sc *scenario.Scenario, settings ai.Settings) *Runner {
	b := sc.Battle
	m := ai.NewManager(ai.BattleEnv(b, settings))
	for _, u := range b.Units() {
		if u.Faction == battle.FactionPlayer || u.IsOut() {
			continue
		}
		m.Register(u, sc.StartNode(u.ID))
	}
	return &Runner{
		battle:   b,
		manager:  m,
		resolver: battle.NewResolver(b, m.NotifyHit),
	}
}

// Battle returns the battle being run.
func (r *Runner) Battle() *battle.Battle { return r.battle }

// Manager returns the AI manager of the battle.
func (r *Runner) Manager() *ai.Manager { return r.manager }

// Run plays up to turns turns and stops early when the player or the hostile
// side has no standing unit left.
func (r *Runner) Run(ctx context.Context, turns int) (Result, error) {
	res := Result{Battle: r.battle.ID}

	for range turns {
		if r.over() {
			res.Over = true
			break
		}
		r.battle.UpdateSpotting()

		for _, f := range aiFactions {
			n, err := r.manager.RunTurn(ctx, f, r.resolver)
			res.Actions += n
			if err != nil {
				return res, fmt.Errorf("battle %s turn %d %s: %w", r.battle.ID, r.battle.Turn(), f, err)
			}
			r.manager.Sync()
			r.battle.UpdateSpotting()
		}
		res.Turns++

		slog.Info("turn completed",
			"battle", r.battle.ID,
			"turn", r.battle.Turn(),
			"actions", res.Actions,
			"player", r.battle.Alive(battle.FactionPlayer),
			"hostile", r.battle.Alive(battle.FactionHostile))

		r.battle.NewTurn()
	}
	if r.over() {
		res.Over = true
	}

	res.Alive = map[battle.Faction]int{
		battle.FactionPlayer:  r.battle.Alive(battle.FactionPlayer),
		battle.FactionHostile: r.battle.Alive(battle.FactionHostile),
		battle.FactionNeutral: r.battle.Alive(battle.FactionNeutral),
	}
	return res, nil
}

func (r *Runner) over() bool {
	return r.battle.Alive(battle.FactionPlayer) == 0 || r.battle.Alive(battle.FactionHostile) == 0
}
