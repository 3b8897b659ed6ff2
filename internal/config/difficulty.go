package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/pong-arena/internal/match"
)

// AIConfig lists the AI opponent presets selectable by name.
type AIConfig struct {
	Presets []AIPreset `yaml:"presets"`
}

// AIPreset defines one AI difficulty tier.
type AIPreset struct {
	Name        string  `yaml:"name"`
	ThinkMs     int     `yaml:"think_ms"`     // how often the AI re-plans
	ErrorMargin float64 `yaml:"error_margin"` // max random aim error in pixels
	DeadZone    float64 `yaml:"dead_zone"`
}

// Difficulty converts the preset.
func (p AIPreset) Difficulty() match.Difficulty {
	return match.Difficulty{
		Name:          strings.ToLower(strings.TrimSpace(p.Name)),
		ThinkInterval: time.Duration(p.ThinkMs) * time.Millisecond,
		ErrorMargin:   p.ErrorMargin,
		DeadZone:      p.DeadZone,
	}
}

// Difficulties converts every preset in file order.
func (c AIConfig) Difficulties() []match.Difficulty {
	out := make([]match.Difficulty, 0, len(c.Presets))
	for _, p := range c.Presets {
		out = append(out, p.Difficulty())
	}
	return out
}

// Validate rejects unnamed, duplicate or non-positive presets.
func (c AIConfig) Validate() error {
	seen := make(map[string]bool, len(c.Presets))
	for i, p := range c.Presets {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("ai preset %d: name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("ai preset %q: duplicate name", name)
		}
		seen[name] = true
		if p.ThinkMs <= 0 {
			return fmt.Errorf("ai preset %q: think_ms must be positive", name)
		}
		if p.ErrorMargin < 0 || p.DeadZone < 0 {
			return fmt.Errorf("ai preset %q: margins must not be negative", name)
		}
	}
	return nil
}
