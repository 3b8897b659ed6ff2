package config

import (
	_ "embed"

	"github.com/vovakirdan/pong-arena/internal/games/pong"
	"github.com/vovakirdan/pong-arena/internal/match"
)

//go:embed defaults/arena.yaml
var defaultArenaYAML []byte

// Default returns the built-in arena configuration.
func Default() ArenaConfig {
	p := pong.DefaultParams()
	cfg := ArenaConfig{
		Physics: PhysicsConfig{
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
		},
		Server: GameServerConfig{
			TickRate: match.DefaultTickRate,
		},
		Tournament: TournamentConfig{
			CountdownMs:    3000,
			ForfeitGraceMs: 5000,
		},
	}
	for _, d := range match.Difficulties() {
		cfg.AI.Presets = append(cfg.AI.Presets, AIPreset{
			Name:        d.Name,
			ThinkMs:     int(d.ThinkInterval.Milliseconds()),
			ErrorMargin: d.ErrorMargin,
			DeadZone:    d.DeadZone,
		})
	}
	return cfg
}

// DefaultYAML returns the embedded default arena.yaml.
func DefaultYAML() []byte {
	return defaultArenaYAML
}
