package ai

import "github.com/fluffyfreak/OpenXcom/internal/battle"

// Controller is the decision engine of one AI-controlled unit.
type Controller interface {
	// Enter activates the AI for its unit and resets transient state.
	Enter()

	// Exit deactivates the AI, e.g. when the unit changes sides.
	Exit()

	// Think runs one decision cycle and writes the chosen action.
	Think(action *battle.Action)

	// SetWasHit records that the unit took damage since the last cycle.
	SetWasHit()

	// WasHit reports whether a hit is pending for the next cycle.
	WasHit() bool

	// Mode returns the current behavioural mode.
	Mode() Mode

	// Save returns the persisted part of the state.
	Save() Record

	// Load restores the persisted part of the state.
	Load(r Record)
}
