package battle

import "fmt"

// BattleType classifies what an item does in combat.
type BattleType int

const (
	BTNone BattleType = iota
	BTFirearm
	BTAmmo
	BTMelee
	BTGrenade
	BTProximity
	BTPsiAmp
)

var battleTypeNames = map[BattleType]string{
	BTNone:      "none",
	BTFirearm:   "firearm",
	BTAmmo:      "ammo",
	BTMelee:     "melee",
	BTGrenade:   "grenade",
	BTProximity: "proximity",
	BTPsiAmp:    "psiamp",
}

func (t BattleType) String() string {
	if s, ok := battleTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("battletype(%d)", int(t))
}

// ParseBattleType parses the lower-case battle type name.
func ParseBattleType(s string) (BattleType, error) {
	for t, name := range battleTypeNames {
		if name == s {
			return t, nil
		}
	}
	return BTNone, fmt.Errorf("unknown battle type %q", s)
}

// DefaultRange is the reach of a firearm whose rule sets none.
const DefaultRange = 200

// ItemRule is the static definition of an item.
type ItemRule struct {
	Name string
	Type BattleType

	// Costs are percentages of the user's base TU unless FlatRate is set.
	TUAuto  int
	TUSnap  int
	TUAimed int
	TUMelee int
	TUPrime int
	TUUse   int

	AccuracyAuto  int
	AccuracySnap  int
	AccuracyAimed int
	AccuracyMelee int

	AutoShots int
	Range     int
	Power     int
	// BlastRadius overrides the radius derived from Power. Zero derives it.
	BlastRadius int
	// Waypoints is the number of guidance waypoints of a launcher.
	// Zero means unguided, -1 means limited by difficulty only.
	Waypoints int
	ClipSize  int
	FlatRate  bool
	// AIUseDelay is the first turn on which AI units may use the item.
	AIUseDelay int
}

// Guided reports whether the item fires a waypoint-guided missile.
func (r *ItemRule) Guided() bool {
	return r.Waypoints != 0
}

// MaxRange returns the firing range in tiles.
func (r *ItemRule) MaxRange() int {
	if r.Range > 0 {
		return r.Range
	}
	return DefaultRange
}

// ExplosionRadius returns the blast radius in tiles, or zero for non-explosives.
func (r *ItemRule) ExplosionRadius() int {
	if r.BlastRadius > 0 {
		return r.BlastRadius
	}
	switch r.Type {
	case BTGrenade, BTProximity:
		return r.Power/20 + 1
	}
	return 0
}

// AlienPsiWeapon is the built-in psionic attack of units with psi skill.
var AlienPsiWeapon = &ItemRule{
	Name:     "ALIEN_PSI_WEAPON",
	Type:     BTPsiAmp,
	TUUse:    25,
	FlatRate: true,
}

// Item is one physical item in the battle.
type Item struct {
	ID   int
	Rule *ItemRule
	// Ammo is the loaded clip. Weapons with their own ClipSize use Rounds directly.
	Ammo   *Item
	Rounds int
}

// NewItem creates an item with a full clip when the rule carries one.
func NewItem(id int, rule *ItemRule) *Item {
	return &Item{ID: id, Rule: rule, Rounds: rule.ClipSize}
}

// Load inserts a clip into a firearm.
func (it *Item) Load(clip *Item) {
	it.Ammo = clip
}

// AmmoItem returns the item carrying the rounds: the clip, or the weapon itself
// when it has an integral clip.
func (it *Item) AmmoItem() *Item {
	if it.Ammo != nil {
		return it.Ammo
	}
	if it.Rule.ClipSize > 0 {
		return it
	}
	return nil
}

// AmmoRule returns the rule of the loaded ammunition, or nil.
func (it *Item) AmmoRule() *ItemRule {
	if a := it.AmmoItem(); a != nil {
		return a.Rule
	}
	return nil
}

// RoundsLeft returns the rounds available. Melee weapons and grenades report one.
func (it *Item) RoundsLeft() int {
	switch it.Rule.Type {
	case BTFirearm:
		if a := it.AmmoItem(); a != nil {
			return a.Rounds
		}
		return 0
	case BTMelee, BTGrenade, BTProximity, BTPsiAmp:
		return 1
	}
	return 0
}

// Loaded reports whether the weapon can fire.
func (it *Item) Loaded() bool {
	return it.RoundsLeft() > 0
}

// SpendRound consumes one round. Returns false when empty.
func (it *Item) SpendRound() bool {
	a := it.AmmoItem()
	if a == nil || a.Rounds <= 0 {
		return false
	}
	a.Rounds--
	return true
}

// ExplosionRadius returns the blast radius of what the item delivers.
func (it *Item) ExplosionRadius() int {
	if r := it.Rule.ExplosionRadius(); r > 0 {
		return r
	}
	if ar := it.AmmoRule(); ar != nil && ar != it.Rule {
		if ar.BlastRadius > 0 {
			return ar.BlastRadius
		}
	}
	if it.Rule.Guided() {
		return it.Power()/20 + 1
	}
	return 0
}

// Power returns the damage of what the item delivers.
func (it *Item) Power() int {
	if ar := it.AmmoRule(); ar != nil && ar != it.Rule && ar.Power > 0 {
		return ar.Power
	}
	return it.Rule.Power
}
