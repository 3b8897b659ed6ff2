// Package config provides YAML-based arena configuration loading and the
// environment-driven server settings.
package config

import (
	"time"

	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/match"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/tournament"
)

// ArenaConfig contains the tunable game rules of the arena.
type ArenaConfig struct {
	Physics    PhysicsConfig    `yaml:"physics"`
	Server     GameServerConfig `yaml:"server"`
	Tournament TournamentConfig `yaml:"tournament"`
	AI         AIConfig         `yaml:"ai"`
}

// PhysicsConfig defines the pong physics constants.
type PhysicsConfig struct {
	PaddleWidth  float64 `yaml:"paddle_width"`
	PaddleHeight float64 `yaml:"paddle_height"`
	PaddleSpeed  float64 `yaml:"paddle_speed"`
	PaddleMargin float64 `yaml:"paddle_margin"`
	BallRadius   float64 `yaml:"ball_radius"`
	InitialSpeed float64 `yaml:"initial_speed"`
	MaxSpeed     float64 `yaml:"max_speed"`
	SpeedUp      float64 `yaml:"speed_up"`
	WinScore     int     `yaml:"win_score"`
	HitTolerance float64 `yaml:"hit_tolerance"`
}

// GameServerConfig defines the simulation loop settings.
type GameServerConfig struct {
	TickRate int `yaml:"tick_rate"`
}

// TournamentConfig defines tournament timers.
type TournamentConfig struct {
	CountdownMs    int `yaml:"countdown_ms"`
	ForfeitGraceMs int `yaml:"forfeit_grace_ms"`
}

// Params converts the physics section.
func (c ArenaConfig) Params() pong.Params {
	p := c.Physics
	return pong.Params{
		PaddleWidth:  p.PaddleWidth,
		PaddleHeight: p.PaddleHeight,
		PaddleSpeed:  p.PaddleSpeed,
		PaddleMargin: p.PaddleMargin,
		BallRadius:   p.BallRadius,
		InitialSpeed: p.InitialSpeed,
		MaxSpeed:     p.MaxSpeed,
		SpeedUp:      p.SpeedUp,
		WinScore:     p.WinScore,
		HitTolerance: p.HitTolerance,
	}
}

// Manager builds the room manager configuration.
// Zero values fall back to the built-in defaults.
func (c ArenaConfig) Manager() multiplayer.Config {
	cfg := multiplayer.DefaultConfig()
	if c.Server.TickRate > 0 {
		cfg.TickRate = c.Server.TickRate
	}
	cfg.Params = c.Params()

	t := tournament.DefaultConfig()
	if c.Tournament.CountdownMs > 0 {
		t.Countdown = time.Duration(c.Tournament.CountdownMs) * time.Millisecond
	}
	if c.Tournament.ForfeitGraceMs > 0 {
		t.ForfeitGrace = time.Duration(c.Tournament.ForfeitGraceMs) * time.Millisecond
	}
	t.Params = cfg.Params
	t.TickRate = cfg.TickRate
	cfg.Tournament = t

	if presets := c.AI.Difficulties(); len(presets) > 0 {
		cfg.Difficulties = presets
	} else {
		cfg.Difficulties = match.Difficulties()
	}
	return cfg
}
