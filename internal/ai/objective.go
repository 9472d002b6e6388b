package ai

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// Objective is the candidate action produced by one setup step.
type Objective struct {
	Mode   Mode
	Action battle.Action
	// TU is the cost of reaching the objective.
	TU    int
	Score int
}

// Hold reports whether the objective keeps the unit where it is.
func (o Objective) Hold() bool {
	return o.Action.Type == battle.ActionNone
}

const (
	escapeTileBase     = 100
	escapeCurrentBonus = 15
	escapeRandomBase   = 110
	escapeRandomTiles  = 29
	escapeRandomSpread = 10
	escapeDistanceMul  = 10
	exposurePenalty    = 10
	firePenalty        = 40
	dangerPenalty      = 100
	escapeTUDivisor    = 2

	ambushBase        = 100
	ambushWindowBonus = 25
	ambushNodeBonus   = 10

	patrolTries          = 5
	patrolPriorityWeight = 10
	patrolUnvisitedBonus = 20
)

func (s *AlienState) hold(mode Mode) Objective {
	return Objective{Mode: mode, Action: battle.NewAction(s.unit.ID)}
}

func (s *AlienState) walkTo(mode Mode, p geo.Position, cost int) Objective {
	a := battle.NewAction(s.unit.ID)
	a.Type = battle.ActionWalk
	a.Target = p
	a.TU = cost
	return Objective{Mode: mode, Action: a, TU: cost}
}

// escapeTile is the best retreat found by one search.
type escapeTile struct {
	pos   geo.Position
	cost  int
	score int
}

// setupEscape looks for a reachable tile fewer enemies can fire on, farther
// from the threat. The unit holds when nothing beats its current tile.
func (s *AlienState) setupEscape() Objective {
	tile, ok := s.findEscapeTile()
	if !ok || tile.pos == s.unit.Pos {
		s.escapeTUs = 0
		return s.hold(ModeEscape)
	}

	if IsDebugEnabled() {
		slog.Debug("escape tile selected",
			"unit", s.unit.ID,
			"tile", tile.pos,
			"tu", tile.cost,
			"score", tile.score)
	}
	s.escapeTUs = tile.cost
	obj := s.walkTo(ModeEscape, tile.pos, tile.cost)
	obj.Score = tile.score
	return obj
}

// reserveEscapeTUs sets aside the TU a retreat would cost this cycle while
// the unit is under fire, without committing to it.
func (s *AlienState) reserveEscapeTUs() {
	s.escapeTUs = 0
	if s.spottingEnemies == 0 {
		return
	}
	if tile, ok := s.findEscapeTile(); ok && tile.pos != s.unit.Pos {
		s.escapeTUs = tile.cost
	}
}

// findEscapeTile scores the search square around the unit, the last cover
// tile and a few random tiles farther out. A tile never has more spotters
// than the current one; among equal tiles the cheaper walk wins.
func (s *AlienState) findEscapeTile() (escapeTile, bool) {
	threat := s.nearest
	if threat == nil && s.aggroTarget != battle.NoUnit {
		if t, ok := s.env.World.Unit(s.aggroTarget); ok && !t.IsOut() {
			threat = t
		}
	}
	if threat == nil {
		threat, _ = s.selectClosestKnownEnemy()
	}
	dist := 0
	if threat != nil {
		dist = geo.Distance(s.unit.Pos, threat.Pos)
	}

	type candidate struct {
		pos  geo.Position
		base int
	}
	cands := make([]candidate, 0, 128)
	if s.hasCover {
		cands = append(cands, candidate{s.lastCover, 0})
	}
	for _, off := range s.shuffled(s.env.Settings.TileSearchRadius) {
		base := escapeTileBase
		if off == (geo.Position{}) && s.spottingEnemies == 0 {
			base += escapeCurrentBonus
		}
		cands = append(cands, candidate{s.unit.Pos.Add(off), base})
	}
	for range escapeRandomTiles {
		off := geo.Pos(
			s.randRange(-escapeRandomSpread, escapeRandomSpread),
			s.randRange(-escapeRandomSpread, escapeRandomSpread),
			0)
		cands = append(cands, candidate{s.unit.Pos.Add(off), escapeRandomBase})
	}

	var (
		best  escapeTile
		found bool
	)
	for _, c := range cands {
		cost, ok := s.reachable[c.pos]
		if !ok {
			continue
		}
		spotters := s.getSpottingUnits(c.pos)
		if spotters > s.spottingEnemies {
			continue
		}

		score := c.base - cost/escapeTUDivisor
		if threat != nil {
			score += (geo.Distance(c.pos, threat.Pos) - dist) * escapeDistanceMul
		}
		if s.spottingEnemies <= spotters {
			score -= (1 + spotters - s.spottingEnemies) * exposurePenalty
		} else {
			score += (s.spottingEnemies - spotters) * exposurePenalty
		}
		if t, ok := s.env.Visibility.Tile(c.pos); ok {
			if t.Fire > 0 {
				score -= firePenalty
			}
			if t.Dangerous {
				score -= dangerPenalty
			}
		}

		if !found || score > best.score || (score == best.score && cost < best.cost) {
			best, found = escapeTile{pos: c.pos, cost: cost, score: score}, true
		}
	}
	return best, found
}

// setupAmbush looks for a concealed tile covering the path the closest known
// enemy would take to reach it.
func (s *AlienState) setupAmbush() (Objective, bool) {
	target, ok := s.selectClosestKnownEnemy()
	if !ok || !s.rifle {
		return Objective{}, false
	}
	budget := s.unit.TU - s.snapCost()

	type candidate struct {
		pos   geo.Position
		cost  int
		score int
	}
	var cands []candidate
	for _, off := range s.shuffled(s.env.Settings.AmbushSearchRadius) {
		p := s.unit.Pos.Add(off)
		if p.Z != s.unit.Pos.Z || p == target.Pos {
			continue
		}
		cost, ok := s.reachable[p]
		if !ok || cost > budget {
			continue
		}
		if t, ok := s.env.Visibility.Tile(p); !ok || t.Dangerous {
			continue
		}
		if s.env.Visibility.CanSee(target, p) || s.getSpottingUnits(p) > 0 {
			continue
		}

		score := ambushBase - cost
		if s.env.Visibility.FaceWindow(p) != geo.NoDirection {
			score += ambushWindowBonus
		}
		if s.onNode(p) {
			score += ambushNodeBonus
		}
		cands = append(cands, candidate{p, cost, score})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})

	for _, c := range cands {
		path, _, ok := s.env.Paths.Path(target, c.pos, -1)
		if !ok || len(path) < 2 {
			continue
		}
		facing := geo.NoDirection
		for _, p := range path[:len(path)-1] {
			if s.env.Visibility.CanTarget(c.pos, p, s.unit, nil) {
				facing = geo.DirectionTo(c.pos, p)
				break
			}
		}
		if facing == geo.NoDirection {
			continue
		}

		if IsDebugEnabled() {
			slog.Debug("ambush tile selected",
				"unit", s.unit.ID,
				"tile", c.pos,
				"target", target.ID,
				"facing", facing,
				"score", c.score)
		}
		s.aggroTarget = target.ID
		s.ambushTUs = max(1, c.cost)
		obj := s.walkTo(ModeAmbush, c.pos, c.cost)
		obj.Action.FinalFacing = facing
		obj.Score = c.score
		return obj, true
	}
	return Objective{}, false
}

func (s *AlienState) onNode(p geo.Position) bool {
	for _, n := range s.env.Nodes.Nodes() {
		if n.Pos == p {
			return true
		}
	}
	return false
}

// setupPatrol walks the node graph. It never fails: without a usable node
// the unit holds.
func (s *AlienState) setupPatrol() Objective {
	if s.toNode != NoNode {
		to, ok := s.env.Nodes.Node(s.toNode)
		switch {
		case !ok:
			s.toNode = NoNode
		case to.Pos == s.unit.Pos:
			s.prevNode = s.fromNode
			s.fromNode = s.toNode
			s.toNode = NoNode
		}
	}

	from, ok := s.env.Nodes.Node(s.fromNode)
	if !ok {
		from, ok = s.closestNode()
		if !ok {
			s.fromNode = NoNode
			return s.hold(ModePatrol)
		}
		s.fromNode = from.ID
	}
	s.visited[from.ID] = true

	if s.toNode != NoNode {
		if to, ok := s.env.Nodes.Node(s.toNode); ok {
			if _, cost, ok := s.env.Paths.Path(s.unit, to.Pos, -1); ok {
				return s.walkTo(ModePatrol, to.Pos, cost)
			}
		}
		s.toNode = NoNode
	}

	excluded := make(map[int]bool)
	for range patrolTries {
		next, ok := s.pickPatrolNode(from, excluded)
		if !ok {
			break
		}
		_, cost, ok := s.env.Paths.Path(s.unit, next.Pos, -1)
		if !ok {
			excluded[next.ID] = true
			continue
		}
		s.toNode = next.ID

		if IsDebugEnabled() {
			slog.Debug("patrol node selected",
				"unit", s.unit.ID,
				"from", from.ID,
				"to", next.ID,
				"tu", cost)
		}
		return s.walkTo(ModePatrol, next.Pos, cost)
	}
	return s.hold(ModePatrol)
}

// closestNode returns the nearest node on the unit's level that fits it.
func (s *AlienState) closestNode() (*battle.Node, bool) {
	var best *battle.Node
	bestDist := 0
	for _, n := range s.env.Nodes.Nodes() {
		if n.Pos.Z != s.unit.Pos.Z || !n.Fits(s.unit.Size) {
			continue
		}
		d := geo.DistanceSq(s.unit.Pos, n.Pos, false)
		if best == nil || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, best != nil
}

// pickPatrolNode chooses the next node after from. Smarter units pick the
// best scoring node more often and avoid walking straight back.
func (s *AlienState) pickPatrolNode(from *battle.Node, excluded map[int]bool) (*battle.Node, bool) {
	usable := func(n *battle.Node) bool {
		return n.ID != from.ID && n.Fits(s.unit.Size) && !excluded[n.ID]
	}

	scouting := s.env.World.Cheating()
	if t, ok := s.env.Visibility.Tile(s.unit.Pos); ok && t.Fire > 0 {
		scouting = true
	}

	var cands []*battle.Node
	if !scouting {
		for _, id := range from.Links {
			if n, ok := s.env.Nodes.Node(id); ok && usable(n) {
				cands = append(cands, n)
			}
		}
	}
	if len(cands) == 0 {
		for _, n := range s.env.Nodes.Nodes() {
			if usable(n) {
				cands = append(cands, n)
			}
		}
	}
	if s.intelligence >= 2 && len(cands) > 1 {
		cands = slices.DeleteFunc(cands, func(n *battle.Node) bool { return n.ID == s.prevNode })
	}
	if len(cands) == 0 {
		return nil, false
	}

	scores := make([]int, len(cands))
	total, best := 0, 0
	for i, n := range cands {
		score := n.Priority*patrolPriorityWeight + geo.Distance(from.Pos, n.Pos) + 1
		if !s.visited[n.ID] {
			score += patrolUnvisitedBonus
		}
		score = max(1, score)
		scores[i] = score
		total += score
		if score > scores[best] {
			best = i
		}
	}

	if s.env.Rand.IntN(100) < min(90, 20*s.intelligence) {
		return cands[best], true
	}
	r := s.env.Rand.IntN(total)
	for i, score := range scores {
		if r < score {
			return cands[i], true
		}
		r -= score
	}
	return cands[len(cands)-1], true
}
