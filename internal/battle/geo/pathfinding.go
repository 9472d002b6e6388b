package geo

import (
	"container/heap"
)

// PathOptions restricts a path search.
type PathOptions struct {
	// MaxTU caps the path cost. A negative value means no cap.
	MaxTU int
	// Blocked reports tiles occupied by other units. The destination is never
	// checked against it.
	Blocked func(Position) bool
	// Flying lets the mover change level anywhere sight could pass, used for
	// guided missiles.
	Flying bool
}

// Unlimited is a PathOptions value without a TU cap or blockers.
var Unlimited = PathOptions{MaxTU: -1}

// FindPath finds the cheapest path from start to end using A*.
// Returns the tiles to walk (start excluded), the total TU cost and whether a
// path within the options exists.
func (m *Map) FindPath(start, end Position, opts PathOptions) ([]Position, int, bool) {
	if !m.InBounds(start) || !m.InBounds(end) {
		return nil, Unreachable, false
	}
	if start == end {
		return nil, 0, true
	}
	if !opts.Flying && !m.Walkable(end) {
		return nil, Unreachable, false
	}
	if opts.Flying {
		if t := m.Tile(end); t == nil || t.Solid {
			return nil, Unreachable, false
		}
	}

	result := m.astar(start, end, opts)
	if result == nil {
		return nil, Unreachable, false
	}

	path := make([]Position, 0, 16)
	for n := result; n.parent != nil; n = n.parent {
		path = append(path, n.pos)
	}

	// Reverse (A* builds path backward)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, result.gCost, true
}

// Reachable returns the TU cost of every tile reachable from start within the
// options, the start tile included at cost zero. Dijkstra over the same moves
// FindPath uses.
func (m *Map) Reachable(start Position, opts PathOptions) map[Position]int {
	costs := map[Position]int{start: 0}
	if !m.InBounds(start) {
		return costs
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: start})

	done := make(map[Position]struct{}, 64)

	for i := 0; open.Len() > 0 && i < MaxPathfindIterations; i++ {
		current := heap.Pop(open).(*pathNode)
		if _, ok := done[current.pos]; ok {
			continue
		}
		done[current.pos] = struct{}{}

		m.neighbors(current.pos, opts, func(next Position, cost int) {
			if opts.Blocked != nil && opts.Blocked(next) {
				return
			}
			g := current.gCost + cost
			if opts.MaxTU >= 0 && g > opts.MaxTU {
				return
			}
			if old, ok := costs[next]; ok && old <= g {
				return
			}
			costs[next] = g
			heap.Push(open, &pathNode{pos: next, gCost: g, fCost: g})
		})
	}

	return costs
}

// pathNode represents a node in the A* search graph.
type pathNode struct {
	pos    Position
	parent *pathNode
	gCost  int // TU spent from start
	fCost  int // gCost + heuristic
	index  int // heap index
}

// astar implements the A* algorithm on map tiles.
func (m *Map) astar(start, end Position, opts PathOptions) *pathNode {
	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &pathNode{pos: start, fCost: heuristic(start, end)})

	best := map[Position]int{start: 0}
	closed := make(map[Position]struct{}, 256)

	for range MaxPathfindIterations {
		if open.Len() == 0 {
			return nil
		}

		current := heap.Pop(open).(*pathNode)
		if current.pos == end {
			return current
		}

		if _, exists := closed[current.pos]; exists {
			continue
		}
		closed[current.pos] = struct{}{}

		m.neighbors(current.pos, opts, func(next Position, cost int) {
			if _, exists := closed[next]; exists {
				return
			}
			if next != end && opts.Blocked != nil && opts.Blocked(next) {
				return
			}
			g := current.gCost + cost
			if opts.MaxTU >= 0 && g > opts.MaxTU {
				return
			}
			if old, ok := best[next]; ok && old <= g {
				return
			}
			best[next] = g
			heap.Push(open, &pathNode{
				pos:    next,
				parent: current,
				gCost:  g,
				fCost:  g + heuristic(next, end),
			})
		})
	}

	return nil // Max iterations exceeded
}

// neighbors calls visit for every tile a mover can step to from p, with the
// TU cost of that step.
func (m *Map) neighbors(p Position, opts PathOptions, visit func(Position, int)) {
	for dir := range 8 {
		next := p.Add(DirectionVector(dir))
		if !m.InBounds(next) {
			continue
		}
		if !m.canStep(p, next) {
			continue
		}
		cost := m.Tile(next).EnterCost()
		if dir%2 == 1 {
			cost += cost / 2
		}
		visit(next, cost)
	}

	for _, dz := range [2]int{1, -1} {
		next := Position{X: p.X, Y: p.Y, Z: p.Z + dz}
		to := m.Tile(next)
		if to == nil {
			continue
		}
		if opts.Flying {
			if !to.Solid {
				visit(next, TUClimb)
			}
			continue
		}
		if from := m.Tile(p); from != nil && from.Lift && to.Lift && to.Walkable() {
			visit(next, TUClimb)
		}
	}
}

// heuristic never overestimates: every horizontal step costs at least TUWalk
// and every level change TUClimb.
func heuristic(a, b Position) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	return max(dx, dy)*TUWalk + absInt(a.Z-b.Z)*TUClimb
}

// nodeHeap implements container/heap for the open list (min-heap by fCost).
type nodeHeap []*pathNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].fCost < h[j].fCost }
func (h nodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)        { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
