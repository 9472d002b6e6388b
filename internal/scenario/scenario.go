package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluffyfreak/OpenXcom/internal/battle"
	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for scenarios that parse but cannot be built.
var ErrInvalid = errors.New("invalid scenario")

// Map legend of the ASCII levels.
const (
	glyphFloor     = '.'
	glyphSolid     = '#'
	glyphWindow    = 'W'
	glyphFire      = 'F'
	glyphDangerous = 'D'
	glyphLift      = 'L'
)

// fireTurns is how long a tile drawn as burning keeps burning.
const fireTurns = 3

// File is the YAML form of a scenario.
type File struct {
	Name string `yaml:"name"`
	// Levels are ASCII drawings of each level, bottom level first, rows from
	// north to south.
	Levels []string  `yaml:"levels"`
	Walls  []Wall    `yaml:"walls"`
	Items  []ItemDef `yaml:"items"`
	Nodes  []NodeDef `yaml:"nodes"`
	Units  []UnitDef `yaml:"units"`
}

// Point is a tile position written as [x, y, z].
type Point [3]int

// Position converts the point to a map position.
func (p Point) Position() geo.Position {
	return geo.Pos(p[0], p[1], p[2])
}

// Wall puts walls on sides of a tile. Sides is any combination of N, S, W and E.
type Wall struct {
	Pos   Point  `yaml:"pos"`
	Sides string `yaml:"sides"`
}

// ItemDef defines an item rule.
type ItemDef struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	TUAuto        int    `yaml:"tu_auto"`
	TUSnap        int    `yaml:"tu_snap"`
	TUAimed       int    `yaml:"tu_aimed"`
	TUMelee       int    `yaml:"tu_melee"`
	TUPrime       int    `yaml:"tu_prime"`
	TUUse         int    `yaml:"tu_use"`
	AccuracyAuto  int    `yaml:"accuracy_auto"`
	AccuracySnap  int    `yaml:"accuracy_snap"`
	AccuracyAimed int    `yaml:"accuracy_aimed"`
	AccuracyMelee int    `yaml:"accuracy_melee"`
	AutoShots     int    `yaml:"auto_shots"`
	Range         int    `yaml:"range"`
	Power         int    `yaml:"power"`
	BlastRadius   int    `yaml:"blast_radius"`
	Waypoints     int    `yaml:"waypoints"`
	ClipSize      int    `yaml:"clip_size"`
	FlatRate      bool   `yaml:"flat_rate"`
	AIUseDelay    int    `yaml:"ai_use_delay"`
}

// NodeDef defines a patrol node.
type NodeDef struct {
	ID       int   `yaml:"id"`
	Pos      Point `yaml:"pos"`
	Rank     int   `yaml:"rank"`
	Priority int   `yaml:"priority"`
	Small    bool  `yaml:"small"`
	Flying   bool  `yaml:"flying"`
	Links    []int `yaml:"links"`
}

// StatsDef holds a unit's base stats.
type StatsDef struct {
	TU               int `yaml:"tu"`
	Health           int `yaml:"health"`
	Bravery          int `yaml:"bravery"`
	Reactions        int `yaml:"reactions"`
	FiringAccuracy   int `yaml:"firing"`
	ThrowingAccuracy int `yaml:"throwing"`
	MeleeAccuracy    int `yaml:"melee"`
	Strength         int `yaml:"strength"`
	PsiStrength      int `yaml:"psi_strength"`
	PsiSkill         int `yaml:"psi_skill"`
}

// UnitDef defines a unit and its inventory. Optional fields left out keep
// the unit defaults.
type UnitDef struct {
	ID                int      `yaml:"id"`
	Name              string   `yaml:"name"`
	Kind              string   `yaml:"kind"`
	Faction           string   `yaml:"faction"`
	Pos               Point    `yaml:"pos"`
	Direction         *int     `yaml:"direction"`
	Stats             StatsDef `yaml:"stats"`
	Armor             int      `yaml:"armor"`
	Aggression        int      `yaml:"aggression"`
	Intelligence      *int     `yaml:"intelligence"`
	Rank              int      `yaml:"rank"`
	TurnsSinceSpotted *int     `yaml:"turns_since_spotted"`
	MainHand          string   `yaml:"main_hand"`
	Ammo              string   `yaml:"ammo"`
	Belt              []string `yaml:"belt"`
	StartNode         *int     `yaml:"start_node"`
}

// Scenario is a built battle ready to run.
type Scenario struct {
	Name   string
	Battle *battle.Battle
	// StartNodes maps units to the patrol node they spawned on.
	StartNodes map[battle.UnitID]int
}

// StartNode returns the spawn node of a unit, or -1.
func (s *Scenario) StartNode(id battle.UnitID) int {
	if n, ok := s.StartNodes[id]; ok {
		return n
	}
	return -1
}

// Parse decodes a scenario document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &f, nil
}

// Load reads and decodes a scenario file. A missing name defaults to the
// file name.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return f, nil
}

// Build creates the battle described by the file.
func (f *File) Build(opts ...battle.Option) (*Scenario, error) {
	grid, err := f.buildMap()
	if err != nil {
		return nil, err
	}
	nodes, err := f.buildNodes(grid)
	if err != nil {
		return nil, err
	}
	rules, err := f.buildRules()
	if err != nil {
		return nil, err
	}

	b := battle.New(f.Name, grid, nodes, opts...)
	sc := &Scenario{
		Name:       f.Name,
		Battle:     b,
		StartNodes: make(map[battle.UnitID]int),
	}

	nextItemID := 1
	for i := range f.Units {
		def := &f.Units[i]
		u, err := def.build(rules, &nextItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: unit %d: %w", ErrInvalid, def.ID, err)
		}
		if err := b.AddUnit(u); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		if def.StartNode != nil {
			if _, ok := nodes.Node(*def.StartNode); !ok {
				return nil, fmt.Errorf("%w: unit %d: unknown start node %d", ErrInvalid, def.ID, *def.StartNode)
			}
			sc.StartNodes[u.ID] = *def.StartNode
		}
	}
	return sc, nil
}

func (f *File) buildMap() (*geo.Map, error) {
	if len(f.Levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalid)
	}

	levels := make([][]string, len(f.Levels))
	for z, level := range f.Levels {
		levels[z] = strings.Split(strings.Trim(level, "\n"), "\n")
	}
	sy := len(levels[0])
	sx := len(levels[0][0])
	if sx == 0 {
		return nil, fmt.Errorf("%w: empty level", ErrInvalid)
	}
	for z, rows := range levels {
		if len(rows) != sy {
			return nil, fmt.Errorf("%w: level %d has %d rows, want %d", ErrInvalid, z, len(rows), sy)
		}
		for y, row := range rows {
			if len(row) != sx {
				return nil, fmt.Errorf("%w: level %d row %d has width %d, want %d", ErrInvalid, z, y, len(row), sx)
			}
		}
	}

	grid := geo.NewMap(sx, sy, len(levels))
	for z, rows := range levels {
		for y, row := range rows {
			for x := range len(row) {
				t, err := tileFor(row[x])
				if err != nil {
					return nil, fmt.Errorf("%w: level %d (%d,%d): %w", ErrInvalid, z, x, y, err)
				}
				grid.SetTile(geo.Pos(x, y, z), t)
			}
		}
	}

	for _, w := range f.Walls {
		p := w.Pos.Position()
		if !grid.InBounds(p) {
			return nil, fmt.Errorf("%w: wall at %v off the map", ErrInvalid, p)
		}
		sides, err := parseSides(w.Sides)
		if err != nil {
			return nil, fmt.Errorf("%w: wall at %v: %w", ErrInvalid, p, err)
		}
		grid.AddWall(p, sides)
	}
	return grid, nil
}

func tileFor(c byte) (geo.Tile, error) {
	switch c {
	case glyphFloor:
		return geo.Tile{}, nil
	case glyphSolid:
		return geo.Tile{Solid: true}, nil
	case glyphWindow:
		return geo.Tile{Window: true}, nil
	case glyphFire:
		return geo.Tile{Fire: fireTurns}, nil
	case glyphDangerous:
		return geo.Tile{Dangerous: true}, nil
	case glyphLift:
		return geo.Tile{Lift: true}, nil
	}
	return geo.Tile{}, fmt.Errorf("unknown tile %q", c)
}

func parseSides(s string) (byte, error) {
	var sides byte
	for _, c := range strings.ToUpper(s) {
		switch c {
		case 'N':
			sides |= geo.NSWENorth
		case 'S':
			sides |= geo.NSWESouth
		case 'W':
			sides |= geo.NSWEWest
		case 'E':
			sides |= geo.NSWEEast
		default:
			return 0, fmt.Errorf("unknown wall side %q", c)
		}
	}
	if sides == 0 {
		return 0, errors.New("no wall sides")
	}
	return sides, nil
}

func (f *File) buildNodes(grid *geo.Map) (*battle.NodeGraph, error) {
	g := battle.NewNodeGraph()
	for _, def := range f.Nodes {
		if _, dup := g.Node(def.ID); dup {
			return nil, fmt.Errorf("%w: duplicate node %d", ErrInvalid, def.ID)
		}
		p := def.Pos.Position()
		if !grid.InBounds(p) {
			return nil, fmt.Errorf("%w: node %d at %v off the map", ErrInvalid, def.ID, p)
		}
		n := &battle.Node{ID: def.ID, Pos: p, Rank: def.Rank, Priority: def.Priority}
		if def.Small {
			n.Type |= battle.NodeSmall
		}
		if def.Flying {
			n.Type |= battle.NodeFlying
		}
		g.Add(n)
	}
	for _, def := range f.Nodes {
		for _, l := range def.Links {
			if _, ok := g.Node(l); !ok {
				return nil, fmt.Errorf("%w: node %d links to unknown node %d", ErrInvalid, def.ID, l)
			}
			g.Link(def.ID, l)
		}
	}
	return g, nil
}

func (f *File) buildRules() (map[string]*battle.ItemRule, error) {
	rules := make(map[string]*battle.ItemRule, len(f.Items))
	for _, def := range f.Items {
		if def.Name == "" {
			return nil, fmt.Errorf("%w: item without name", ErrInvalid)
		}
		if _, dup := rules[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", ErrInvalid, def.Name)
		}
		bt, err := battle.ParseBattleType(def.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", ErrInvalid, def.Name, err)
		}
		rules[def.Name] = &battle.ItemRule{
			Name:          def.Name,
			Type:          bt,
			TUAuto:        def.TUAuto,
			TUSnap:        def.TUSnap,
			TUAimed:       def.TUAimed,
			TUMelee:       def.TUMelee,
			TUPrime:       def.TUPrime,
			TUUse:         def.TUUse,
			AccuracyAuto:  def.AccuracyAuto,
			AccuracySnap:  def.AccuracySnap,
			AccuracyAimed: def.AccuracyAimed,
			AccuracyMelee: def.AccuracyMelee,
			AutoShots:     def.AutoShots,
			Range:         def.Range,
			Power:         def.Power,
			BlastRadius:   def.BlastRadius,
			Waypoints:     def.Waypoints,
			ClipSize:      def.ClipSize,
			FlatRate:      def.FlatRate,
			AIUseDelay:    def.AIUseDelay,
		}
	}
	return rules, nil
}

func (def *UnitDef) build(rules map[string]*battle.ItemRule, nextItemID *int) (*battle.Unit, error) {
	kind, err := battle.ParseUnitKind(def.Kind)
	if err != nil {
		return nil, err
	}
	faction, err := battle.ParseFaction(def.Faction)
	if err != nil {
		return nil, err
	}
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", kind, def.ID)
	}

	u := battle.NewUnit(battle.UnitID(def.ID), name, kind, faction, def.Pos.Position(), battle.Stats(def.Stats))
	u.Armor = def.Armor
	u.Aggression = def.Aggression
	u.Rank = def.Rank
	if def.Direction != nil {
		if *def.Direction < 0 || *def.Direction > geo.DirNorthWest {
			return nil, fmt.Errorf("direction %d out of range", *def.Direction)
		}
		u.Direction = *def.Direction
	}
	if def.Intelligence != nil {
		u.Intelligence = *def.Intelligence
	}
	if def.TurnsSinceSpotted != nil {
		u.TurnsSinceSpotted = min(*def.TurnsSinceSpotted, battle.MaxTurnsSinceSpotted)
	}

	newItem := func(name string) (*battle.Item, error) {
		rule, ok := rules[name]
		if !ok {
			return nil, fmt.Errorf("unknown item %s", name)
		}
		it := battle.NewItem(*nextItemID, rule)
		*nextItemID++
		return it, nil
	}

	if def.MainHand != "" {
		if u.MainHand, err = newItem(def.MainHand); err != nil {
			return nil, err
		}
	}
	if def.Ammo != "" {
		if u.MainHand == nil {
			return nil, fmt.Errorf("ammo %s without a weapon", def.Ammo)
		}
		clip, err := newItem(def.Ammo)
		if err != nil {
			return nil, err
		}
		if clip.Rule.Type != battle.BTAmmo {
			return nil, fmt.Errorf("%s is not ammo", def.Ammo)
		}
		u.MainHand.Load(clip)
	}
	for _, name := range def.Belt {
		it, err := newItem(name)
		if err != nil {
			return nil, err
		}
		u.Belt = append(u.Belt, it)
	}
	return u, nil
}
