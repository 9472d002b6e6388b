package ai

import "fmt"

// Mode is the behavioural mode of an AI unit.
type Mode int

const (
	ModePatrol Mode = iota
	ModeAmbush
	ModeCombat
	ModeEscape
)

var modeNames = [...]string{
	ModePatrol: "patrol",
	ModeAmbush: "ambush",
	ModeCombat: "combat",
	ModeEscape: "escape",
}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses the persisted mode tag.
func ParseMode(s string) (Mode, bool) {
	for m, name := range modeNames {
		if name == s {
			return Mode(m), true
		}
	}
	return ModePatrol, false
}
