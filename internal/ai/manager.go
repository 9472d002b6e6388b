package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
)

// Executor carries out the actions the AI chooses.
type Executor interface {
	Execute(ctx context.Context, a *battle.Action) error
}

// Manager drives the AI controllers of one battle.
type Manager struct {
	env             Env
	controllers     sync.Map // map[battle.UnitID]Controller
	controllerCount atomic.Int32
}

// NewManager creates a manager whose controllers share env.
func NewManager(env Env) *Manager {
	return &Manager{env: env}
}

// Register creates and enters the controller of a unit. A unit that already
// has one keeps it.
func (m *Manager) Register(u *battle.Unit, startNode int) Controller {
	if c, ok := m.controllers.Load(u.ID); ok {
		return c.(Controller)
	}
	c := NewAlienState(u, m.env, startNode)
	m.controllers.Store(u.ID, Controller(c))
	m.controllerCount.Add(1)
	c.Enter()

	slog.Debug("AI controller registered",
		"unit", u.ID,
		"faction", u.Faction,
		"mode", c.Mode())
	return c
}

// Unregister exits and drops the controller of a unit.
func (m *Manager) Unregister(id battle.UnitID) {
	value, ok := m.controllers.LoadAndDelete(id)
	if !ok {
		return
	}
	m.controllerCount.Add(-1)
	value.(Controller).Exit()

	slog.Debug("AI controller unregistered", "unit", id)
}

// Count returns the number of registered controllers.
func (m *Manager) Count() int {
	return int(m.controllerCount.Load())
}

// Controller returns the controller of a unit.
func (m *Manager) Controller(id battle.UnitID) (Controller, error) {
	value, ok := m.controllers.Load(id)
	if !ok {
		return nil, fmt.Errorf("controller not found for unit %d", id)
	}
	return value.(Controller), nil
}

// NotifyHit flags a unit as hit. Units without a controller are ignored.
func (m *Manager) NotifyHit(id battle.UnitID) {
	if value, ok := m.controllers.Load(id); ok {
		value.(Controller).SetWasHit()
	}
}

// Sync registers every standing AI-side unit without a controller and drops
// the controllers of units that are out or went over to the player.
func (m *Manager) Sync() {
	for _, u := range m.env.World.Units() {
		_, registered := m.controllers.Load(u.ID)
		aiSide := u.Faction != battle.FactionPlayer && !u.IsOut()
		switch {
		case aiSide && !registered:
			m.Register(u, NoNode)
		case !aiSide && registered:
			m.Unregister(u.ID)
		}
	}
}

// Records returns the persisted state of every controller.
func (m *Manager) Records() map[battle.UnitID]Record {
	out := make(map[battle.UnitID]Record, m.Count())
	m.controllers.Range(func(key, value any) bool {
		out[key.(battle.UnitID)] = value.(Controller).Save()
		return true
	})
	return out
}

// Restore loads saved records into the matching controllers. Records of
// units without a controller are skipped.
func (m *Manager) Restore(records map[battle.UnitID]Record) {
	for id, r := range records {
		value, ok := m.controllers.Load(id)
		if !ok {
			slog.Warn("AI record for unknown unit", "unit", id)
			continue
		}
		value.(Controller).Load(r)
	}
}

// RunTurn lets every controlled unit of the faction act, in ascending ID
// order. Each unit thinks up to MaxActionsPerUnit times and stops early on a
// hold, a final action, a rejected action or an action that cost nothing.
// The context is checked between units. Returns the number of executed actions.
func (m *Manager) RunTurn(ctx context.Context, faction battle.Faction, exec Executor) (int, error) {
	var ids []battle.UnitID
	m.controllers.Range(func(key, _ any) bool {
		ids = append(ids, key.(battle.UnitID))
		return true
	})
	slices.Sort(ids)

	executed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		u, ok := m.env.World.Unit(id)
		if !ok || u.IsOut() || u.Faction != faction {
			continue
		}
		c, err := m.Controller(id)
		if err != nil {
			continue
		}

		n, err := m.runUnit(ctx, u, c, exec)
		executed += n
		if err != nil {
			return executed, err
		}
	}

	if IsDebugEnabled() {
		slog.Debug("AI turn completed",
			"faction", faction,
			"controllers", len(ids),
			"actions", executed)
	}
	return executed, nil
}

func (m *Manager) runUnit(ctx context.Context, u *battle.Unit, c Controller, exec Executor) (int, error) {
	executed := 0
	action := battle.NewAction(u.ID)
	for range m.env.Settings.MaxActionsPerUnit {
		action.Reset()
		c.Think(&action)
		if action.Type == battle.ActionNone || action.Type == battle.ActionRethink {
			break
		}

		before := u.TU
		err := exec.Execute(ctx, &action)
		if errors.Is(err, battle.ErrRejected) {
			if IsDebugEnabled() {
				slog.Debug("AI action rejected", "unit", u.ID, "action", action, "error", err)
			}
			break
		}
		if err != nil {
			return executed, fmt.Errorf("unit %d %s: %w", u.ID, action.Type, err)
		}
		executed++

		if action.FinalAction || u.IsOut() || u.TU == before {
			break
		}
	}
	return executed, nil
}
