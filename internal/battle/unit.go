package battle

import (
	"fmt"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// UnitID identifies a unit within one battle.
type UnitID int

// NoUnit is the nil unit reference.
const NoUnit UnitID = -1

// UnitKind distinguishes the kinds of unit the AI treats differently.
type UnitKind int

const (
	KindSoldier UnitKind = iota
	KindAlien
	KindCivilian
)

func (k UnitKind) String() string {
	switch k {
	case KindSoldier:
		return "soldier"
	case KindAlien:
		return "alien"
	case KindCivilian:
		return "civilian"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseUnitKind parses the lower-case unit kind name.
func ParseUnitKind(s string) (UnitKind, error) {
	switch s {
	case "soldier":
		return KindSoldier, nil
	case "alien":
		return KindAlien, nil
	case "civilian":
		return KindCivilian, nil
	}
	return KindSoldier, fmt.Errorf("unknown unit kind %q", s)
}

// Status is the physical state of a unit.
type Status int

const (
	StatusStanding Status = iota
	StatusUnconscious
	StatusDead
)

// Stats are the base attributes of a unit.
type Stats struct {
	TU               int
	Health           int
	Bravery          int
	Reactions        int
	FiringAccuracy   int
	ThrowingAccuracy int
	MeleeAccuracy    int
	Strength         int
	PsiStrength      int
	PsiSkill         int
}

// MaxTurnsSinceSpotted caps the spotting age counter.
const MaxTurnsSinceSpotted = 255

// Unit is a combatant or civilian on the battlefield.
type Unit struct {
	ID              UnitID
	Name            string
	Kind            UnitKind
	Faction         Faction
	OriginalFaction Faction
	Status          Status
	Pos             geo.Position
	Direction       int
	Size            int
	Stats           Stats
	Armor           int

	TU         int
	Health     int
	Morale     int
	Aggression int
	// Intelligence is how many turns the unit remembers an enemy position.
	Intelligence int
	Rank         int

	// TurnsSinceSpotted counts turns since an opposing unit last saw this one.
	TurnsSinceSpotted int

	MainHand *Item
	Belt     []*Item
}

// NewUnit creates a standing unit with full TU, health and morale.
func NewUnit(id UnitID, name string, kind UnitKind, faction Faction, pos geo.Position, stats Stats) *Unit {
	return &Unit{
		ID:                id,
		Name:              name,
		Kind:              kind,
		Faction:           faction,
		OriginalFaction:   faction,
		Pos:               pos,
		Direction:         geo.DirNorth,
		Size:              1,
		Stats:             stats,
		TU:                stats.TU,
		Health:            stats.Health,
		Morale:            100,
		Intelligence:      1,
		TurnsSinceSpotted: MaxTurnsSinceSpotted,
	}
}

// IsOut reports whether the unit is dead or unconscious.
func (u *Unit) IsOut() bool {
	return u.Status != StatusStanding
}

// MindControlled reports whether the unit fights against its original side.
func (u *Unit) MindControlled() bool {
	return u.Faction != u.OriginalFaction
}

// ActionTU returns the TU cost of performing an action with an item.
func (u *Unit) ActionTU(t ActionType, item *Item) int {
	if t == ActionThrow {
		return u.percentTU(25, false)
	}
	if item == nil {
		return 0
	}
	r := item.Rule
	var cost int
	switch t {
	case ActionPrime:
		cost = r.TUPrime
	case ActionAutoShot:
		cost = r.TUAuto
	case ActionSnapShot:
		cost = r.TUSnap
	case ActionAimedShot, ActionLaunch:
		cost = r.TUAimed
	case ActionHit:
		cost = r.TUMelee
	case ActionPanic, ActionMindControl:
		cost = r.TUUse
	default:
		return 0
	}
	if cost == 0 {
		return 0
	}
	return u.percentTU(cost, r.FlatRate)
}

func (u *Unit) percentTU(cost int, flat bool) int {
	if flat {
		return cost
	}
	return u.Stats.TU * cost / 100
}

// SpendTU deducts n TU. Returns false and spends nothing if the unit lacks them.
func (u *Unit) SpendTU(n int) bool {
	if n > u.TU {
		return false
	}
	u.TU -= n
	return true
}

// GrenadeFromBelt returns the first grenade on the belt, or nil.
func (u *Unit) GrenadeFromBelt() *Item {
	for _, it := range u.Belt {
		if it.Rule.Type == BTGrenade {
			return it
		}
	}
	return nil
}

// RemoveFromBelt drops the item from the belt.
func (u *Unit) RemoveFromBelt(item *Item) {
	for i, it := range u.Belt {
		if it == item {
			u.Belt = append(u.Belt[:i], u.Belt[i+1:]...)
			return
		}
	}
}

// ThrowRange returns how far the unit can throw, in tiles.
func (u *Unit) ThrowRange() int {
	return min(20, max(4, u.Stats.Strength/2))
}

// InViewSector reports whether p lies in the unit's forward 90 degree cone.
func (u *Unit) InViewSector(p geo.Position) bool {
	dir := geo.DirectionTo(u.Pos, p)
	if dir == geo.NoDirection {
		return true
	}
	diff := (dir - u.Direction + 8) % 8
	return diff <= 1 || diff == 7
}

// HealthPct returns current health as a percentage of base health.
func (u *Unit) HealthPct() int {
	if u.Stats.Health <= 0 {
		return 0
	}
	return u.Health * 100 / u.Stats.Health
}

// TakeDamage applies damage after armor. Returns the damage dealt.
func (u *Unit) TakeDamage(power int) int {
	dmg := power - u.Armor
	if dmg <= 0 || u.IsOut() {
		return 0
	}
	u.Health -= dmg
	u.Morale = max(0, u.Morale-dmg)
	if u.Health <= 0 {
		u.Health = 0
		u.Status = StatusDead
	}
	return dmg
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s#%d", u.Name, u.ID)
}
