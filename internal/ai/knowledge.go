package ai

import (
	"log/slog"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// knows reports whether the unit remembers where u is.
func (s *AlienState) knows(u *battle.Unit) bool {
	if s.env.World.Cheating() {
		return true
	}
	if u.TurnsSinceSpotted <= s.intelligence {
		return true
	}
	return s.env.Visibility.CanSee(s.unit, u.Pos)
}

// validTarget reports whether u is a standing, known enemy. assessDanger
// excludes units on tiles that are already about to blow up.
func (s *AlienState) validTarget(u *battle.Unit, assessDanger, includeCivilians bool) bool {
	if u == s.unit || u.IsOut() {
		return false
	}
	if !s.profile.Targets(u.Faction, includeCivilians) {
		return false
	}
	if !s.knows(u) {
		return false
	}
	if assessDanger {
		if t, ok := s.env.Visibility.Tile(u.Pos); ok && t.Dangerous {
			return false
		}
	}
	return true
}

// countKnownTargets returns how many enemies the unit knows the position of.
func (s *AlienState) countKnownTargets() int {
	n := 0
	for _, u := range s.env.World.Units() {
		if s.validTarget(u, true, true) {
			n++
		}
	}
	return n
}

// getSpottingUnits returns how many known enemies could fire on pos.
func (s *AlienState) getSpottingUnits(pos geo.Position) int {
	n := 0
	for _, u := range s.env.World.Units() {
		if !s.validTarget(u, false, false) {
			continue
		}
		if geo.Distance(u.Pos, pos) > s.env.Settings.SpottingRange {
			continue
		}
		if s.env.Visibility.CanTarget(u.Pos, pos, u, s.unit) {
			n++
		}
	}
	return n
}

// selectNearestTarget counts the enemies in sight and records the nearest
// one, preferring those with a clear line of fire from where the unit stands.
func (s *AlienState) selectNearestTarget() int {
	s.nearest = nil
	s.closestDist = 0

	visible := 0
	nearestClear := false
	for _, u := range s.env.World.Units() {
		if !s.validTarget(u, true, true) || !s.env.Visibility.CanSee(s.unit, u.Pos) {
			continue
		}
		visible++

		dist := geo.Distance(s.unit.Pos, u.Pos)
		clear := s.env.Visibility.CanTarget(s.unit.Pos, u.Pos, s.unit, u)
		better := s.nearest == nil ||
			(clear && !nearestClear) ||
			(clear == nearestClear && dist < s.closestDist)
		if better {
			s.nearest = u
			s.closestDist = dist
			nearestClear = clear
		}
	}
	return visible
}

// selectClosestKnownEnemy picks the closest non-civilian enemy the unit knows
// about, seen or not.
func (s *AlienState) selectClosestKnownEnemy() (*battle.Unit, bool) {
	var best *battle.Unit
	bestDist := 0
	for _, u := range s.env.World.Units() {
		if !s.validTarget(u, true, false) {
			continue
		}
		dist := geo.Distance(s.unit.Pos, u.Pos)
		if best == nil || dist < bestDist {
			best, bestDist = u, dist
		}
	}
	return best, best != nil
}

// selectRandomTarget picks a known enemy at random, closer ones more likely.
func (s *AlienState) selectRandomTarget() (*battle.Unit, bool) {
	var best *battle.Unit
	bestScore := 0
	for _, u := range s.env.World.Units() {
		if !s.validTarget(u, true, true) {
			continue
		}
		score := s.env.Rand.IntN(21) - geo.Distance(s.unit.Pos, u.Pos)
		if best == nil || score > bestScore {
			best, bestScore = u, score
		}
	}
	if best != nil && IsDebugEnabled() {
		slog.Debug("random target selected", "unit", s.unit.ID, "target", best.ID, "score", bestScore)
	}
	return best, best != nil
}

// selectPointNearTarget finds a free tile next to target the unit can walk to
// within maxTUs. Tiles behind the target's back are preferred, then cheaper ones.
func (s *AlienState) selectPointNearTarget(target *battle.Unit, maxTUs int) (geo.Position, int, bool) {
	var (
		best     geo.Position
		bestCost int
		bestBack bool
		found    bool
	)
	for dir := range 8 {
		p := target.Pos.Add(geo.DirectionVector(dir))
		cost, ok := s.reachable[p]
		if !ok || cost > maxTUs {
			continue
		}
		if t, ok := s.env.Visibility.Tile(p); !ok || t.Dangerous {
			continue
		}
		back := !target.InViewSector(p)
		if !found || (back && !bestBack) || (back == bestBack && cost < bestCost) {
			best, bestCost, bestBack, found = p, cost, back, true
		}
	}
	return best, bestCost, found
}

// unitAt returns the standing unit on a tile.
func (s *AlienState) unitAt(p geo.Position) *battle.Unit {
	for _, u := range s.env.World.Units() {
		if !u.IsOut() && u.Pos == p {
			return u
		}
	}
	return nil
}
