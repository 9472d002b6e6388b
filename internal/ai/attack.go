package ai

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

const (
	autoShotMinRounds = 3
	closeRange        = 4
	longRange         = 12

	firePointFastPass = 100
	firePointBase     = 100
	spotterPenalty    = 10
	flankBonus        = 10

	meleeSearchRange     = 20
	chargeHealthPct      = 34
	chargeMaxSpotters    = 1
	nodeEfficacyMinimum  = 2
	desperationThreshold = 6
	overwhelmingEnemies  = 10
)

func psiWeapon() *battle.Item {
	return &battle.Item{Rule: battle.AlienPsiWeapon}
}

// setupAttack tries the attack options in order of preference: psionics,
// guided missiles, grenades, melee, direct fire, and finally moving to a
// better fire point.
func (s *AlienState) setupAttack() (Objective, bool) {
	if s.knownEnemies > 0 {
		if obj, ok := s.psiAction(); ok {
			return obj, true
		}
		if s.blaster {
			if obj, ok := s.wayPointAction(); ok {
				return obj, true
			}
		}
	}

	if s.visibleEnemies > 0 && s.nearest != nil && s.grenade != nil {
		if obj, ok := s.grenadeAction(s.nearest); ok {
			s.rifle, s.melee = false, false
			return obj, true
		}
	}
	if s.melee && (s.visibleEnemies > 0 || s.chargeTarget != battle.NoUnit) {
		if obj, ok := s.meleeAction(); ok {
			return obj, true
		}
	}
	if s.rifle && s.visibleEnemies > 0 && s.nearest != nil {
		if obj, ok := s.projectileAction(s.nearest); ok {
			return obj, true
		}
	}

	if s.rifle && s.knownEnemies > 0 && s.unit.Aggression >= s.env.Rand.IntN(3) {
		if obj, ok := s.findFirePoint(); ok {
			return obj, true
		}
	}
	return Objective{}, false
}

// projectileAction fires the held weapon at target from where the unit stands.
func (s *AlienState) projectileAction(target *battle.Unit) (Objective, bool) {
	w := s.weapon
	if w == nil {
		return Objective{}, false
	}
	if !s.env.Visibility.CanTarget(s.unit.Pos, target.Pos, s.unit, target) {
		return Objective{}, false
	}
	dist := geo.Distance(s.unit.Pos, target.Pos)
	if r := w.ExplosionRadius(); r > 0 && !s.explosiveEfficacy(target.Pos, r, false) {
		return Objective{}, false
	}

	t := s.selectFireMethod(dist)
	if t == battle.ActionNone {
		return Objective{}, false
	}

	a := battle.NewAction(s.unit.ID)
	a.Type = t
	a.Target = target.Pos
	a.TargetUnit = target.ID
	a.Weapon = w
	a.TU = s.unit.ActionTU(t, w)

	if IsDebugEnabled() {
		slog.Debug("shot selected",
			"unit", s.unit.ID,
			"target", target.ID,
			"type", t,
			"tu", a.TU)
	}
	return Objective{Mode: ModeCombat, Action: a, TU: a.TU}, true
}

// selectFireMethod chooses the shot type for a target dist tiles away:
// automatic up close, aimed at long range, snap otherwise, within the TU
// the unit has left.
func (s *AlienState) selectFireMethod(dist int) battle.ActionType {
	w := s.weapon
	if w == nil || !w.Loaded() || dist > w.Rule.MaxRange() {
		return battle.ActionNone
	}

	var order []battle.ActionType
	switch {
	case dist < closeRange:
		order = []battle.ActionType{battle.ActionAutoShot, battle.ActionSnapShot, battle.ActionAimedShot}
	case dist > longRange:
		order = []battle.ActionType{battle.ActionAimedShot}
		if dist < battle.MaxViewDistance {
			order = append(order, battle.ActionSnapShot)
		}
		order = append(order, battle.ActionAutoShot)
	default:
		order = []battle.ActionType{battle.ActionSnapShot, battle.ActionAimedShot, battle.ActionAutoShot}
	}

	for _, t := range order {
		if s.canFire(t) {
			return t
		}
	}
	return battle.ActionNone
}

func (s *AlienState) canFire(t battle.ActionType) bool {
	r := s.weapon.Rule
	var supported bool
	switch t {
	case battle.ActionAutoShot:
		supported = r.TUAuto > 0 && s.weapon.RoundsLeft() >= autoShotMinRounds
	case battle.ActionSnapShot:
		supported = r.TUSnap > 0
	case battle.ActionAimedShot:
		supported = r.TUAimed > 0
	}
	return supported && s.unit.ActionTU(t, s.weapon) <= s.unit.TU
}

// grenadeAction throws the belt grenade at target, or at the patrol node
// where it would do the most good.
func (s *AlienState) grenadeAction(target *battle.Unit) (Objective, bool) {
	g := s.grenade
	tu := battle.TUPickup +
		s.unit.ActionTU(battle.ActionPrime, g) +
		s.unit.ActionTU(battle.ActionThrow, g)
	if tu > s.unit.TU {
		return Objective{}, false
	}
	radius := g.Rule.ExplosionRadius()
	throwRange := s.unit.ThrowRange()

	dest := target.Pos
	ok := geo.Distance(s.unit.Pos, dest) <= throwRange &&
		s.env.Visibility.CanSee(s.unit, dest) &&
		s.explosiveEfficacy(dest, radius, true)
	if !ok {
		dest, ok = s.nodeOfBestEfficacy(radius, throwRange)
		if !ok || !s.explosiveEfficacy(dest, radius, true) {
			return Objective{}, false
		}
	}

	a := battle.NewAction(s.unit.ID)
	a.Type = battle.ActionThrow
	a.Target = dest
	a.Weapon = g
	a.TU = tu
	if dest == target.Pos {
		a.TargetUnit = target.ID
	}

	if IsDebugEnabled() {
		slog.Debug("grenade throw selected",
			"unit", s.unit.ID,
			"tile", dest,
			"radius", radius,
			"tu", tu)
	}
	return Objective{Mode: ModeCombat, Action: a, TU: tu}, true
}

// nodeOfBestEfficacy finds the patrol node within throwing range whose blast
// would catch the most known enemies, keeping clear of the thrower.
func (s *AlienState) nodeOfBestEfficacy(radius, throwRange int) (geo.Position, bool) {
	var best geo.Position
	bestScore := 0
	for _, n := range s.env.Nodes.Nodes() {
		d := geo.Distance(s.unit.Pos, n.Pos)
		if d > throwRange || d <= radius || !s.env.Visibility.CanSee(s.unit, n.Pos) {
			continue
		}
		score := 0
		for _, u := range s.env.World.Units() {
			if u.IsOut() || !inBlast(n.Pos, u.Pos, radius) {
				continue
			}
			if !s.env.Visibility.CanTarget(n.Pos, u.Pos, nil, u) {
				continue
			}
			switch {
			case s.profile.Targets(u.Faction, true) && s.knows(u):
				score++
			case u.Faction == s.unit.Faction:
				score -= 2
			}
		}
		if score > bestScore {
			best, bestScore = n.Pos, score
		}
	}
	return best, bestScore > nodeEfficacyMinimum
}

func inBlast(center, p geo.Position, radius int) bool {
	dz := p.Z - center.Z
	return dz >= -1 && dz <= 1 && geo.Distance(center, p) <= radius
}

// explosiveEfficacy estimates whether a blast of radius at center is worth
// it: enemies caught count for it, friends and the unit itself against.
// Desperate units accept worse odds.
func (s *AlienState) explosiveEfficacy(center geo.Position, radius int, grenade bool) bool {
	if radius <= 0 || s.env.World.Turn() <= s.env.Settings.ExplosiveGraceTurns {
		return false
	}
	u := s.unit

	desperation := (100 - u.Morale) / 10
	if injury := u.Stats.Health - u.Health; injury*3 > u.Stats.Health*2 {
		desperation += 3
	}
	efficacy := desperation
	enemies := 0

	if inBlast(center, u.Pos, radius) {
		efficacy -= 4
	}
	efficacy += s.env.World.Difficulty() / 2

	victim := s.unitAt(center)
	if victim != nil && victim != u {
		if s.profile.Targets(victim.Faction, true) {
			efficacy++
			enemies++
		} else {
			efficacy -= 2
		}
	}

	for _, v := range s.env.World.Units() {
		if v == u || v == victim || v.IsOut() || !inBlast(center, v.Pos, radius) {
			continue
		}
		if !s.env.Visibility.CanTarget(center, v.Pos, victim, v) {
			continue
		}
		switch {
		case s.profile.Targets(v.Faction, true):
			if s.knows(v) {
				efficacy++
				enemies++
			}
		case v.Faction == u.Faction:
			efficacy -= 2
		}
	}

	if IsDebugEnabled() {
		slog.Debug("explosive efficacy",
			"unit", u.ID,
			"tile", center,
			"radius", radius,
			"enemies", enemies,
			"score", efficacy)
	}

	if grenade && desperation < desperationThreshold && enemies < 2 {
		return false
	}
	if enemies >= overwhelmingEnemies {
		return true
	}
	return efficacy > 0
}

// meleeAction strikes an adjacent enemy, or charges toward the cheapest one
// to reach while leaving TU for the blow.
func (s *AlienState) meleeAction() (Objective, bool) {
	hitCost := s.unit.ActionTU(battle.ActionHit, s.weapon)
	chargeBudget := s.unit.TU - hitCost
	if chargeBudget < 0 {
		return Objective{}, false
	}

	var (
		best     *battle.Unit
		bestPos  geo.Position
		bestCost int
	)
	for _, u := range s.env.World.Units() {
		if !s.validTarget(u, true, true) || geo.Distance(s.unit.Pos, u.Pos) > meleeSearchRange {
			continue
		}
		if geo.Adjacent(s.unit.Pos, u.Pos) {
			s.chargeTarget = battle.NoUnit
			return s.meleeAttack(u)
		}
		p, cost, ok := s.selectPointNearTarget(u, chargeBudget)
		if !ok {
			continue
		}
		if s.unit.HealthPct() < chargeHealthPct && s.getSpottingUnits(p) > chargeMaxSpotters {
			continue
		}
		if best == nil || cost < bestCost {
			best, bestPos, bestCost = u, p, cost
		}
	}
	if best == nil {
		return Objective{}, false
	}

	s.chargeTarget = best.ID
	obj := s.walkTo(ModeCombat, bestPos, bestCost)
	obj.Action.TargetUnit = best.ID
	obj.Action.FinalFacing = geo.DirectionTo(bestPos, best.Pos)
	obj.Action.Reserve = hitCost

	if IsDebugEnabled() {
		slog.Debug("melee charge",
			"unit", s.unit.ID,
			"target", best.ID,
			"tile", bestPos,
			"tu", bestCost)
	}
	return obj, true
}

// meleeAttack strikes an adjacent target.
func (s *AlienState) meleeAttack(target *battle.Unit) (Objective, bool) {
	a := battle.NewAction(s.unit.ID)
	a.Type = battle.ActionHit
	a.Target = target.Pos
	a.TargetUnit = target.ID
	a.Weapon = s.weapon
	a.TU = s.unit.ActionTU(battle.ActionHit, s.weapon)
	if a.TU > s.unit.TU {
		return Objective{}, false
	}
	return Objective{Mode: ModeCombat, Action: a, TU: a.TU}, true
}

// wayPointAction guides a missile around obstacles to the closest target
// it can reach.
func (s *AlienState) wayPointAction() (Objective, bool) {
	w := s.weapon
	cost := s.unit.ActionTU(battle.ActionLaunch, w)
	if cost > s.unit.TU {
		return Objective{}, false
	}
	radius := w.ExplosionRadius()
	maxWaypoints := w.Rule.Waypoints
	if maxWaypoints < 0 {
		maxWaypoints = 6 + 2*s.env.World.Difficulty()
	}

	var targets []*battle.Unit
	for _, u := range s.env.World.Units() {
		if s.validTarget(u, true, true) {
			targets = append(targets, u)
		}
	}
	slices.SortStableFunc(targets, func(a, b *battle.Unit) int {
		return cmp.Compare(geo.Distance(s.unit.Pos, a.Pos), geo.Distance(s.unit.Pos, b.Pos))
	})

	for _, t := range targets {
		path, ok := s.env.Paths.MissilePath(s.unit.Pos, t.Pos)
		if !ok || len(path) == 0 || path[len(path)-1] != t.Pos {
			continue
		}
		if !s.explosiveEfficacy(t.Pos, radius, false) {
			continue
		}
		waypoints := s.compressWaypoints(path, t)
		if len(waypoints) > maxWaypoints {
			continue
		}

		a := battle.NewAction(s.unit.ID)
		a.Type = battle.ActionLaunch
		a.Target = waypoints[0]
		a.Waypoints = waypoints
		a.TargetUnit = t.ID
		a.Weapon = w
		a.TU = cost

		if IsDebugEnabled() {
			slog.Debug("missile launch selected",
				"unit", s.unit.ID,
				"target", t.ID,
				"waypoints", len(waypoints))
		}
		return Objective{Mode: ModeCombat, Action: a, TU: cost}, true
	}
	return Objective{}, false
}

// compressWaypoints keeps only the path tiles where the missile must turn:
// a waypoint is placed wherever the straight line from the previous one is
// blocked. The target tile is always the last waypoint.
func (s *AlienState) compressWaypoints(path []geo.Position, target *battle.Unit) []geo.Position {
	var waypoints []geo.Position
	last := s.unit.Pos
	prev := last
	for _, p := range path {
		if prev != last && !s.env.Visibility.CanTarget(last, p, s.unit, target) {
			waypoints = append(waypoints, prev)
			last = prev
		}
		prev = p
	}
	return append(waypoints, target.Pos)
}

// psiAction attacks the most vulnerable known soldier with psionics, once
// per turn, if the odds look good enough and the TU for a retreat are left.
func (s *AlienState) psiAction() (Objective, bool) {
	turn := s.env.World.Turn()
	if !s.profile.CanPsi || s.unit.Stats.PsiSkill <= 0 || s.psiTurn == turn {
		return Objective{}, false
	}
	psi := psiWeapon()
	cost := s.unit.ActionTU(battle.ActionMindControl, psi)

	if s.unit.TU < s.escapeTUs+cost {
		return Objective{}, false
	}

	strength := float64(s.unit.Stats.PsiStrength*s.unit.Stats.PsiSkill) / 50
	var (
		victim *battle.Unit
		best   int
	)
	for _, v := range s.env.World.Units() {
		if v.Size != 1 || v.OriginalFaction != battle.FactionPlayer || !s.validTarget(v, true, false) {
			continue
		}
		chance := int(strength-0.4*float64(v.Stats.PsiSkill)) -
			geo.Distance(s.unit.Pos, v.Pos) -
			v.Stats.PsiStrength +
			s.randRange(55, 105)
		if victim == nil || chance > best {
			victim, best = v, chance
		}
	}
	if victim == nil {
		return Objective{}, false
	}

	if s.visibleEnemies > 0 && s.weapon != nil && s.weapon.Loaded() {
		if s.weapon.Power() >= best {
			return Objective{}, false
		}
	} else if s.randRange(35, 155) >= best {
		return Objective{}, false
	}

	s.psiTurn = turn
	a := battle.NewAction(s.unit.ID)
	a.Type = s.psiAttackType(victim)
	a.Target = victim.Pos
	a.TargetUnit = victim.ID
	a.Weapon = psi
	a.TU = s.unit.ActionTU(a.Type, psi)

	if IsDebugEnabled() {
		slog.Debug("psi attack selected",
			"unit", s.unit.ID,
			"target", victim.ID,
			"type", a.Type,
			"score", best)
	}
	return Objective{Mode: ModeCombat, Action: a, TU: a.TU}, true
}

// psiAttackType chooses mind control over panic against brave, steady
// victims less often. A broken victim is always taken over.
func (s *AlienState) psiAttackType(v *battle.Unit) battle.ActionType {
	odds := 40
	bravery := (110 - v.Stats.Bravery) / 10
	switch {
	case bravery > 6:
		odds -= 15
	case bravery < 4:
		odds += 15
	}
	if v.Morale >= 40 {
		if v.Morale-10*bravery < 50 {
			odds -= 15
		}
	} else {
		odds += 15
	}
	if v.Morale == 0 {
		odds = 100
	}
	if s.env.Rand.IntN(100) < odds {
		return battle.ActionMindControl
	}
	return battle.ActionPanic
}

// findFirePoint moves the unit to a tile with a line of fire to a known
// enemy, keeping TU for a snap shot.
func (s *AlienState) findFirePoint() (Objective, bool) {
	var (
		target *battle.Unit
		ok     bool
	)
	if s.intelligence == 0 {
		target, ok = s.selectRandomTarget()
	} else {
		target, ok = s.selectClosestKnownEnemy()
	}
	if !ok || s.weapon == nil {
		return Objective{}, false
	}
	maxRange := s.weapon.Rule.MaxRange()

	var (
		best      geo.Position
		bestCost  int
		bestScore int
		found     bool
	)
	for _, off := range s.shuffled(s.env.Settings.TileSearchRadius) {
		p := s.unit.Pos.Add(off)
		if p == s.unit.Pos {
			continue
		}
		cost, ok := s.reachableWithAttack[p]
		if !ok {
			continue
		}
		if t, ok := s.env.Visibility.Tile(p); !ok || t.Dangerous {
			continue
		}
		if geo.Distance(p, target.Pos) > maxRange {
			continue
		}
		if !s.env.Visibility.CanTarget(p, target.Pos, s.unit, target) {
			continue
		}

		score := firePointBase - spotterPenalty*s.getSpottingUnits(p) + s.unit.TU - cost
		if !target.InViewSector(p) {
			score += flankBonus
		}
		if !found || score > bestScore {
			best, bestCost, bestScore, found = p, cost, score, true
		}
		if score > firePointFastPass {
			break
		}
	}
	if !found || bestScore <= s.env.Settings.FirePointThreshold {
		return Objective{}, false
	}

	if IsDebugEnabled() {
		slog.Debug("fire point selected",
			"unit", s.unit.ID,
			"target", target.ID,
			"tile", best,
			"score", bestScore)
	}
	obj := s.walkTo(ModeCombat, best, bestCost)
	obj.Action.TargetUnit = target.ID
	obj.Action.FinalFacing = geo.DirectionTo(best, target.Pos)
	obj.Action.Reserve = s.snapCost()
	obj.Score = bestScore
	return obj, true
}
