package ai

import (
	"log/slog"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
)

// Think runs one decision cycle: refresh knowledge, pick a mode, plan for it
// and write the committed action.
func (s *AlienState) Think(action *battle.Action) {
	if s.unit.IsOut() {
		*action = battle.NewAction(s.unit.ID)
		s.wasHit.Store(false)
		return
	}

	s.beginCycle()
	s.evaluateAIMode()

	plan := s.planObjective()
	s.commit(&plan, action)
	s.plan = plan

	s.wasHit.Store(false)

	if IsDebugEnabled() {
		slog.Debug("AI decision",
			"unit", s.unit.ID,
			"mode", s.mode,
			"action", action.Type,
			"target", action.Target,
			"tu", action.TU,
			"known", s.knownEnemies,
			"visible", s.visibleEnemies,
			"spotting", s.spottingEnemies)
	}
}

// evaluateAIMode picks the mode of this cycle from the enemy counts, the
// unit's condition and its weapons.
func (s *AlienState) evaluateAIMode() {
	s.threatened = s.wasHit.Load() || s.env.Settings.Threat.Eval(ThreatEnv{
		WasHit:     s.wasHit.Load(),
		Known:      s.knownEnemies,
		Visible:    s.visibleEnemies,
		Spotting:   s.spottingEnemies,
		HealthPct:  s.unit.HealthPct(),
		Morale:     s.unit.Morale,
		Aggression: s.unit.Aggression,
		TU:         s.unit.TU,
	})
	viable := s.attackViable()

	switch {
	case s.threatened && !viable:
		s.setMode(ModeEscape)
	case viable:
		s.setMode(ModeCombat)
	case s.charging():
		s.setMode(ModeCombat)
	case s.ambushEligible():
		s.setMode(ModeAmbush)
	default:
		s.setMode(ModePatrol)
	}
}

func (s *AlienState) setMode(m Mode) {
	if m == s.mode {
		return
	}
	if IsDebugEnabled() {
		slog.Debug("AI mode changed",
			"unit", s.unit.ID,
			"from", s.mode,
			"mode", m,
			"threatened", s.threatened)
	}
	s.mode = m
}

// attackViable reports whether some attack could be attempted this cycle.
func (s *AlienState) attackViable() bool {
	if !s.profile.CanAttack {
		return false
	}
	if s.visibleEnemies > 0 && (s.rifle || s.melee || s.blaster || s.grenade != nil) {
		return true
	}
	if s.knownEnemies == 0 {
		return false
	}
	return s.blaster || s.psiReady()
}

func (s *AlienState) psiReady() bool {
	if !s.profile.CanPsi || s.psiTurn == s.env.World.Turn() {
		return false
	}
	return s.unit.TU >= s.unit.ActionTU(battle.ActionMindControl, psiWeapon())
}

// charging reports whether a melee charge is still under way.
func (s *AlienState) charging() bool {
	if s.chargeTarget == battle.NoUnit || !s.melee {
		return false
	}
	t, ok := s.env.World.Unit(s.chargeTarget)
	return ok && s.validTarget(t, true, true)
}

func (s *AlienState) ambushEligible() bool {
	return s.profile.CanAttack &&
		s.knownEnemies > 0 &&
		s.visibleEnemies == 0 &&
		s.rifle &&
		s.ambushTUs > 0
}

// planObjective runs the setup of the current mode, degrading to a less
// demanding mode when it finds nothing.
func (s *AlienState) planObjective() Objective {
	switch s.mode {
	case ModeEscape:
		return s.setupEscape()

	case ModeCombat:
		s.reserveEscapeTUs()
		if obj, ok := s.setupAttack(); ok {
			return obj
		}
		if s.threatened {
			s.setMode(ModeEscape)
			return s.setupEscape()
		}
		if s.ambushEligible() {
			if obj, ok := s.setupAmbush(); ok {
				s.setMode(ModeAmbush)
				return obj
			}
		}
		s.setMode(ModePatrol)
		return s.setupPatrol()

	case ModeAmbush:
		if obj, ok := s.setupAmbush(); ok {
			return obj
		}
		s.setMode(ModePatrol)
		return s.setupPatrol()

	default:
		return s.setupPatrol()
	}
}

// commit turns the plan into the action handed back to the caller.
func (s *AlienState) commit(plan *Objective, action *battle.Action) {
	a := plan.Action
	a.Actor = s.unit.ID
	a.Diff = s.env.World.Difficulty()

	if a.Type == battle.ActionWalk {
		switch plan.Mode {
		case ModeEscape:
			a.FinalAction = true
			a.Desperate = true
			a.Reserve = 0
			s.lastCover, s.hasCover = a.Target, true
		case ModeAmbush:
			a.FinalAction = true
			a.Reserve = s.snapCost()
		case ModePatrol:
			a.Reserve = s.patrolReserve()
		}
		if a.Target == s.unit.Pos {
			a = battle.NewAction(s.unit.ID)
			a.Diff = s.env.World.Difficulty()
		}
	}

	if a.TargetUnit != battle.NoUnit {
		s.aggroTarget = a.TargetUnit
	}
	s.reserveTUs = a.Reserve
	plan.Action = a
	*action = a
}

// patrolReserve keeps enough TU for the shot the unit's aggression favours.
func (s *AlienState) patrolReserve() int {
	reserve := 0
	if s.weapon != nil && (s.rifle || s.blaster) {
		t := battle.ActionSnapShot
		switch s.unit.Aggression {
		case 0:
			t = battle.ActionAimedShot
		case 1:
			t = battle.ActionAutoShot
		}
		reserve = s.unit.ActionTU(t, s.weapon)
	}
	if s.spottingEnemies > 0 && s.profile.CanPsi {
		reserve = max(reserve, s.unit.Stats.TU/4)
	}
	return reserve
}
