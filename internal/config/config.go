package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultThreatRule decides when an AI unit feels its survival is threatened.
const DefaultThreatRule = `WasHit || Spotting >= 3 || (Spotting > 0 && (HealthPct < 34 || Morale < 30))`

// BattleSim holds all configuration for the battle simulator.
type BattleSim struct {
	LogLevel   string `yaml:"log_level"`
	Seed       int64  `yaml:"seed"`
	Difficulty int    `yaml:"difficulty"` // 0 beginner .. 4 superhuman
	Turns      int    `yaml:"turns"`
	SaveDir    string `yaml:"save_dir"`

	AI AI `yaml:"ai"`

	// Database
	Database DatabaseConfig `yaml:"database"`
}

// AI holds the tunables of the alien AI.
type AI struct {
	MaxActionsPerUnit   int    `yaml:"max_actions_per_unit"`
	ThreatRule          string `yaml:"threat_rule"`
	SpottingRange       int    `yaml:"spotting_range"`
	TileSearchRadius    int    `yaml:"tile_search_radius"`
	AmbushSearchRadius  int    `yaml:"ambush_search_radius"`
	FirePointThreshold  int    `yaml:"fire_point_threshold"`
	CheatTurn           int    `yaml:"cheat_turn"`
	ExplosiveGraceTurns int    `yaml:"explosive_grace_turns"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultAI returns the AI tunables matching the classic game balance.
func DefaultAI() AI {
	return AI{
		MaxActionsPerUnit:   3,
		ThreatRule:          DefaultThreatRule,
		SpottingRange:       20,
		TileSearchRadius:    5,
		AmbushSearchRadius:  10,
		FirePointThreshold:  70,
		CheatTurn:           20,
		ExplosiveGraceTurns: 3,
	}
}

// DefaultBattleSim returns BattleSim config with sensible defaults.
func DefaultBattleSim() BattleSim {
	return BattleSim{
		LogLevel:   "info",
		Seed:       1,
		Difficulty: 1,
		Turns:      10,
		SaveDir:    "saves",
		AI:         DefaultAI(),
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "openxcom",
			Password: "openxcom",
			DBName:   "openxcom",
			SSLMode:  "disable",
		},
	}
}

// LoadBattleSim loads battle simulator config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadBattleSim(path string) (BattleSim, error) {
	cfg := DefaultBattleSim()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges. Fields left at zero fall back to defaults.
func (c *BattleSim) Validate() error {
	if c.Difficulty < 0 || c.Difficulty > 4 {
		return fmt.Errorf("difficulty %d out of range 0..4", c.Difficulty)
	}
	if c.Turns < 0 {
		return fmt.Errorf("turns %d must not be negative", c.Turns)
	}

	def := DefaultAI()
	if c.AI.MaxActionsPerUnit <= 0 {
		c.AI.MaxActionsPerUnit = def.MaxActionsPerUnit
	}
	if c.AI.ThreatRule == "" {
		c.AI.ThreatRule = def.ThreatRule
	}
	if c.AI.SpottingRange <= 0 {
		c.AI.SpottingRange = def.SpottingRange
	}
	if c.AI.TileSearchRadius <= 0 {
		c.AI.TileSearchRadius = def.TileSearchRadius
	}
	if c.AI.AmbushSearchRadius <= 0 {
		c.AI.AmbushSearchRadius = def.AmbushSearchRadius
	}
	if c.AI.CheatTurn <= 0 {
		c.AI.CheatTurn = def.CheatTurn
	}
	if c.AI.ExplosiveGraceTurns < 0 {
		return fmt.Errorf("explosive_grace_turns %d must not be negative", c.AI.ExplosiveGraceTurns)
	}
	return nil
}
