package ai

import (
	"log/slog"
	"sync/atomic"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// NoNode is the nil patrol node reference.
const NoNode = -1

// AlienState is the decision state of one AI unit.
// Persisted fields survive save and load; everything else is rebuilt by each
// Think cycle.
type AlienState struct {
	unit    *battle.Unit
	env     Env
	profile Profile

	// persisted
	mode         Mode
	intelligence int
	fromNode     int
	toNode       int
	aggroTarget  battle.UnitID

	// set by the damage resolution, consumed by the next cycle
	wasHit atomic.Bool

	// recomputed every cycle
	knownEnemies    int
	visibleEnemies  int
	spottingEnemies int
	escapeTUs       int
	ambushTUs       int
	reserveTUs      int
	rifle           bool
	melee           bool
	blaster         bool
	threatened      bool
	weapon          *battle.Item
	grenade         *battle.Item
	nearest         *battle.Unit
	closestDist     int

	reachable           map[geo.Position]int
	reachableWithAttack map[geo.Position]int

	// plan is the candidate action produced by whichever setup ran last.
	plan Objective

	// kept across cycles until Enter or Exit
	psiTurn      int
	chargeTarget battle.UnitID
	lastCover    geo.Position
	hasCover     bool
	prevNode     int
	visited      map[int]bool
}

var _ Controller = (*AlienState)(nil)

// NewAlienState creates the AI state of a unit. startNode is the patrol node
// the unit spawned on, or NoNode.
func NewAlienState(unit *battle.Unit, env Env, startNode int) *AlienState {
	s := &AlienState{
		unit:         unit,
		env:          env,
		mode:         ModePatrol,
		intelligence: unit.Intelligence,
		fromNode:     startNode,
		toNode:       NoNode,
		aggroTarget:  battle.NoUnit,
	}
	s.resetTransient()
	return s
}

// Unit returns the unit the state drives.
func (s *AlienState) Unit() *battle.Unit { return s.unit }

// Enter activates the AI for its unit.
func (s *AlienState) Enter() {
	s.resetTransient()
	s.profile = ProfileFor(s.unit)

	if IsDebugEnabled() {
		slog.Debug("AI entered",
			"unit", s.unit.ID,
			"profile", s.profile.Kind,
			"mode", s.mode)
	}
}

// Exit deactivates the AI for its unit.
func (s *AlienState) Exit() {
	s.resetTransient()
	s.wasHit.Store(false)

	if IsDebugEnabled() {
		slog.Debug("AI exited", "unit", s.unit.ID)
	}
}

// SetWasHit flags the unit as freshly hit. Safe to call from any goroutine.
func (s *AlienState) SetWasHit() {
	s.wasHit.Store(true)
}

// WasHit reports whether a hit is pending.
func (s *AlienState) WasHit() bool {
	return s.wasHit.Load()
}

// Mode returns the current mode.
func (s *AlienState) Mode() Mode { return s.mode }

// Intelligence returns the memory span in turns.
func (s *AlienState) Intelligence() int { return s.intelligence }

// Nodes returns the current and destination patrol nodes.
func (s *AlienState) Nodes() (from, to int) { return s.fromNode, s.toNode }

// AggroTarget returns the engaged unit, or battle.NoUnit.
func (s *AlienState) AggroTarget() battle.UnitID { return s.aggroTarget }

// Counts returns the known, visible and spotting enemy counts of the last cycle.
func (s *AlienState) Counts() (known, visible, spotting int) {
	return s.knownEnemies, s.visibleEnemies, s.spottingEnemies
}

// Budgets returns the escape, ambush and reserve TU budgets of the last cycle.
func (s *AlienState) Budgets() (escape, ambush, reserve int) {
	return s.escapeTUs, s.ambushTUs, s.reserveTUs
}

// Plan returns the candidate action of the last cycle.
func (s *AlienState) Plan() Objective { return s.plan }

func (s *AlienState) resetTransient() {
	s.knownEnemies, s.visibleEnemies, s.spottingEnemies = 0, 0, 0
	s.escapeTUs, s.ambushTUs, s.reserveTUs = 0, 0, 0
	s.rifle, s.melee, s.blaster = false, false, false
	s.threatened = false
	s.weapon, s.grenade, s.nearest = nil, nil, nil
	s.closestDist = 0
	s.reachable, s.reachableWithAttack = nil, nil
	s.plan = Objective{}
	s.psiTurn = 0
	s.chargeTarget = battle.NoUnit
	s.hasCover = false
	s.prevNode = NoNode
	s.visited = make(map[int]bool)
}

// beginCycle refreshes everything a decision depends on.
func (s *AlienState) beginCycle() {
	s.profile = ProfileFor(s.unit)
	s.plan = Objective{}
	s.escapeTUs, s.ambushTUs, s.reserveTUs = 0, 0, 0
	s.nearest, s.closestDist = nil, 0

	s.dropLostRefs()
	s.updateWeapons()

	s.knownEnemies = s.countKnownTargets()
	s.visibleEnemies = s.selectNearestTarget()
	s.spottingEnemies = s.getSpottingUnits(s.unit.Pos)

	s.reachable = s.env.Paths.Reachable(s.unit, s.unit.TU)
	s.reachableWithAttack = s.reachable
	if s.rifle {
		budget := s.unit.TU - s.snapCost()
		s.reachableWithAttack = make(map[geo.Position]int, len(s.reachable))
		for p, cost := range s.reachable {
			if cost <= budget {
				s.reachableWithAttack[p] = cost
			}
		}
		s.ambushTUs = max(0, budget)
	}
}

// dropLostRefs forgets a target that died or left the battle.
func (s *AlienState) dropLostRefs() {
	if s.aggroTarget != battle.NoUnit {
		if t, ok := s.env.World.Unit(s.aggroTarget); !ok || t.IsOut() {
			s.aggroTarget = battle.NoUnit
		}
	}
	if s.chargeTarget != battle.NoUnit {
		if t, ok := s.env.World.Unit(s.chargeTarget); !ok || t.IsOut() {
			s.chargeTarget = battle.NoUnit
		}
	}
}

// updateWeapons derives the weapon class flags from the inventory.
func (s *AlienState) updateWeapons() {
	s.rifle, s.melee, s.blaster = false, false, false
	s.weapon, s.grenade = nil, nil

	turn := s.env.World.Turn()
	if w := s.unit.MainHand; w != nil && w.Rule.AIUseDelay <= turn {
		switch w.Rule.Type {
		case battle.BTFirearm:
			if w.Loaded() {
				s.weapon = w
				if w.Rule.Guided() {
					s.blaster = true
				} else {
					s.rifle = true
				}
			}
		case battle.BTMelee:
			s.weapon = w
			s.melee = true
		}
	}
	if g := s.unit.GrenadeFromBelt(); g != nil && g.Rule.AIUseDelay <= turn {
		s.grenade = g
	}
}

func (s *AlienState) snapCost() int {
	if s.weapon == nil {
		return 0
	}
	return s.unit.ActionTU(battle.ActionSnapShot, s.weapon)
}

func (s *AlienState) randRange(lo, hi int) int {
	return lo + s.env.Rand.IntN(hi-lo+1)
}

// shuffled returns the search square of the given radius in random order.
func (s *AlienState) shuffled(radius int) []geo.Position {
	sq := geo.SearchSquare(radius)
	s.env.Rand.Shuffle(len(sq), func(i, j int) { sq[i], sq[j] = sq[j], sq[i] })
	return sq
}
