package battle

import "fmt"

// Faction is the side a unit fights for.
type Faction int

const (
	FactionPlayer Faction = iota
	FactionHostile
	FactionNeutral
)

func (f Faction) String() string {
	switch f {
	case FactionPlayer:
		return "player"
	case FactionHostile:
		return "hostile"
	case FactionNeutral:
		return "neutral"
	default:
		return fmt.Sprintf("faction(%d)", int(f))
	}
}

// ParseFaction parses the lower-case faction name.
func ParseFaction(s string) (Faction, error) {
	switch s {
	case "player":
		return FactionPlayer, nil
	case "hostile":
		return FactionHostile, nil
	case "neutral":
		return FactionNeutral, nil
	}
	return FactionPlayer, fmt.Errorf("unknown faction %q", s)
}

// Hostile reports whether units of the two factions fight each other.
// Player and neutral units are allies of convenience; both fight the hostiles.
func Hostile(a, b Faction) bool {
	return a != b && (a == FactionHostile || b == FactionHostile)
}
