package battle

import (
	"fmt"

	"github.com/fluffyfreak/OpenXcom/internal/battle/geo"
)

// ActionType is the kind of battle action a unit performs.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionRethink
	ActionWalk
	ActionPrime
	ActionThrow
	ActionAutoShot
	ActionSnapShot
	ActionAimedShot
	ActionHit
	ActionLaunch
	ActionPanic
	ActionMindControl
)

var actionNames = [...]string{
	ActionNone:        "none",
	ActionRethink:     "rethink",
	ActionWalk:        "walk",
	ActionPrime:       "prime",
	ActionThrow:       "throw",
	ActionAutoShot:    "autoshot",
	ActionSnapShot:    "snapshot",
	ActionAimedShot:   "aimedshot",
	ActionHit:         "hit",
	ActionLaunch:      "launch",
	ActionPanic:       "panic",
	ActionMindControl: "mindcontrol",
}

func (t ActionType) String() string {
	if t >= 0 && int(t) < len(actionNames) {
		return actionNames[t]
	}
	return fmt.Sprintf("action(%d)", int(t))
}

// IsShot reports whether the action fires a firearm.
func (t ActionType) IsShot() bool {
	return t == ActionAutoShot || t == ActionSnapShot || t == ActionAimedShot
}

// Action is a fully specified intended action awaiting execution.
type Action struct {
	Type       ActionType
	Actor      UnitID
	Target     geo.Position
	TargetUnit UnitID
	Weapon     *Item
	// TU is the cost of the action as computed when it was chosen.
	TU        int
	Waypoints []geo.Position
	// FinalFacing is the direction to turn to after a walk, or geo.NoDirection.
	FinalFacing int
	// FinalAction ends the unit's turn once executed.
	FinalAction bool
	// Desperate walks ignore newly spotted enemies.
	Desperate bool
	// Reserve is the TU a walk must leave unspent.
	Reserve int
	// Diff is the difficulty the action was chosen under.
	Diff int
}

// NewAction creates an empty action for the actor.
func NewAction(actor UnitID) Action {
	return Action{
		Type:        ActionNone,
		Actor:       actor,
		TargetUnit:  NoUnit,
		FinalFacing: geo.NoDirection,
	}
}

// Reset clears everything but the actor.
func (a *Action) Reset() {
	*a = NewAction(a.Actor)
}

func (a Action) String() string {
	if a.TargetUnit != NoUnit {
		return fmt.Sprintf("%s %v unit=%d tu=%d", a.Type, a.Target, a.TargetUnit, a.TU)
	}
	return fmt.Sprintf("%s %v tu=%d", a.Type, a.Target, a.TU)
}
