package ai

import "github.com/fluffyfreak/OpenXcom/internal/battle"

// ProfileKind tags the kind of unit an AI state drives.
type ProfileKind int

const (
	ProfileAlien ProfileKind = iota
	ProfileCivilian
	ProfileMindControlled
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileAlien:
		return "alien"
	case ProfileCivilian:
		return "civilian"
	default:
		return "mindcontrolled"
	}
}

// Profile is the capability set the shared AI core consults instead of
// branching on unit types.
type Profile struct {
	Kind      ProfileKind
	CanAttack bool
	CanPsi    bool
	// Enemy is the faction whose units are targets and threats.
	Enemy battle.Faction
	// HuntsCivilians adds neutral units to the targets. They are never threats.
	HuntsCivilians bool
}

// ProfileFor derives the profile of a unit from its faction and stats.
func ProfileFor(u *battle.Unit) Profile {
	switch {
	case u.Faction == battle.FactionHostile && u.MindControlled():
		return Profile{
			Kind:           ProfileMindControlled,
			CanAttack:      true,
			Enemy:          battle.FactionPlayer,
			HuntsCivilians: true,
		}
	case u.Faction == battle.FactionHostile:
		return Profile{
			Kind:           ProfileAlien,
			CanAttack:      true,
			CanPsi:         u.Stats.PsiSkill > 0,
			Enemy:          battle.FactionPlayer,
			HuntsCivilians: true,
		}
	default:
		// Civilians run from the hostiles. Player units only reach the AI
		// when they panic, and then behave the same way.
		return Profile{
			Kind:  ProfileCivilian,
			Enemy: battle.FactionHostile,
		}
	}
}

// Targets reports whether units of the faction are targets.
func (p Profile) Targets(f battle.Faction, includeCivilians bool) bool {
	if f == p.Enemy {
		return true
	}
	return includeCivilians && p.HuntsCivilians && f == battle.FactionNeutral
}
