package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the arena config file name looked up in every search location.
const FileName = "arena.yaml"

// Load loads the arena configuration. Fields missing from the file keep
// their default values.
// Search order: customPath -> ~/.arena/arena.yaml -> ./configs/arena.yaml -> embedded default
func Load(customPath string) (ArenaConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return ArenaConfig{}, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return ArenaConfig{}, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := UserConfigPath(); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", FileName)); err == nil {
		if cfg, err := Parse(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultArenaYAML)
	if err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (ArenaConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ArenaConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ArenaConfig{}, err
	}
	return cfg, nil
}

// Validate checks the values the simulation cannot recover from.
func (c ArenaConfig) Validate() error {
	if c.Physics.WinScore < 0 {
		return fmt.Errorf("physics.win_score must not be negative")
	}
	if c.Physics.SpeedUp != 0 && c.Physics.SpeedUp < 1 {
		return fmt.Errorf("physics.speed_up must be at least 1")
	}
	if c.Physics.MaxSpeed != 0 && c.Physics.MaxSpeed < c.Physics.InitialSpeed {
		return fmt.Errorf("physics.max_speed must not be below initial_speed")
	}
	if c.Server.TickRate < 0 || c.Server.TickRate > 1000 {
		return fmt.Errorf("server.tick_rate must be between 1 and 1000")
	}
	if c.Tournament.CountdownMs < 0 || c.Tournament.ForfeitGraceMs < 0 {
		return fmt.Errorf("tournament timers must not be negative")
	}
	return c.AI.Validate()
}

// Marshal encodes the configuration as YAML.
func Marshal(cfg ArenaConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// UserConfigPath returns the path to the user config file, or empty if home is unavailable.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".arena", FileName)
}
