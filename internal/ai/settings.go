package ai

import (
	"fmt"

	"github.com/fluffyfreak/OpenXcom/internal/config"
)

// Settings are the tunables of the AI.
type Settings struct {
	MaxActionsPerUnit   int
	SpottingRange       int
	TileSearchRadius    int
	AmbushSearchRadius  int
	FirePointThreshold  int
	ExplosiveGraceTurns int
	Threat              *ThreatRule
}

// DefaultSettings returns the settings of config.DefaultAI.
func DefaultSettings() Settings {
	s, err := NewSettings(config.DefaultAI())
	if err != nil {
		panic(err) // the default rule is a constant
	}
	return s
}

// NewSettings compiles the AI section of the config.
func NewSettings(cfg config.AI) (Settings, error) {
	rule, err := CompileThreatRule(cfg.ThreatRule)
	if err != nil {
		return Settings{}, fmt.Errorf("threat rule: %w", err)
	}
	return Settings{
		MaxActionsPerUnit:   cfg.MaxActionsPerUnit,
		SpottingRange:       cfg.SpottingRange,
		TileSearchRadius:    cfg.TileSearchRadius,
		AmbushSearchRadius:  cfg.AmbushSearchRadius,
		FirePointThreshold:  cfg.FirePointThreshold,
		ExplosiveGraceTurns: cfg.ExplosiveGraceTurns,
		Threat:              rule,
	}, nil
}
