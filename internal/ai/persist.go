package ai

import (
	"log/slog"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"gopkg.in/yaml.v3"
)

// Record is the persisted part of an AI state. References are node and unit
// IDs, -1 meaning none.
type Record struct {
	Mode         string `yaml:"mode"`
	FromNode     int    `yaml:"fromNode"`
	ToNode       int    `yaml:"toNode"`
	Intelligence int    `yaml:"intelligence"`
	AggroTarget  int    `yaml:"aggroTarget"`
}

// UnmarshalYAML defaults missing references to none.
func (r *Record) UnmarshalYAML(value *yaml.Node) error {
	type plain Record
	p := plain{FromNode: NoNode, ToNode: NoNode, Intelligence: -1, AggroTarget: int(battle.NoUnit)}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Record(p)
	return nil
}

// Save returns the persisted part of the state.
func (s *AlienState) Save() Record {
	return Record{
		Mode:         s.mode.String(),
		FromNode:     s.fromNode,
		ToNode:       s.toNode,
		Intelligence: s.intelligence,
		AggroTarget:  int(s.aggroTarget),
	}
}

// Load restores a saved state. Unknown modes and dangling node references
// reset the unit to patrol with no target; a dangling target is dropped.
// Transient state is always reset.
func (s *AlienState) Load(r Record) {
	mode, ok := ParseMode(r.Mode)
	s.mode = mode
	s.fromNode = s.checkNode(r.FromNode, &ok)
	s.toNode = s.checkNode(r.ToNode, &ok)
	if r.Intelligence >= 0 {
		s.intelligence = r.Intelligence
	}

	s.aggroTarget = battle.UnitID(r.AggroTarget)
	if !ok {
		slog.Warn("malformed AI record, resetting to patrol",
			"unit", s.unit.ID,
			"mode", r.Mode,
			"fromNode", r.FromNode,
			"toNode", r.ToNode)
		s.mode = ModePatrol
		s.aggroTarget = battle.NoUnit
	}
	if s.aggroTarget != battle.NoUnit {
		if t, found := s.env.World.Unit(s.aggroTarget); !found || t.IsOut() {
			s.aggroTarget = battle.NoUnit
		}
	}

	s.resetTransient()
}

// checkNode returns id if it names a node, NoNode otherwise. A dangling
// reference clears ok.
func (s *AlienState) checkNode(id int, ok *bool) int {
	if id < 0 {
		return NoNode
	}
	if _, found := s.env.Nodes.Node(id); !found {
		*ok = false
		return NoNode
	}
	return id
}
