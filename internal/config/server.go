package config

import "github.com/caarlos0/env/v11"

// ServerConfig holds the process settings read from the environment.
type ServerConfig struct {
	HTTPAddr   string `env:"ARENA_HTTP_ADDR" envDefault:":8080"`
	SSHAddr    string `env:"ARENA_SSH_ADDR" envDefault:":2323"`
	HostKey    string `env:"ARENA_HOST_KEY" envDefault:".ssh/arena_ed25519"`
	DBPath     string `env:"ARENA_DB_PATH" envDefault:"~/.arena/arena.db"`
	ConfigPath string `env:"ARENA_CONFIG"`

	LogLevel string `env:"ARENA_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"ARENA_LOG_JSON" envDefault:"false"`

	DisableSSH bool `env:"ARENA_DISABLE_SSH" envDefault:"false"`
	SendBuffer int  `env:"ARENA_SEND_BUFFER" envDefault:"64"`

	// AllowedOrigins limits browser WebSocket origins (host[:port]). Empty
	// accepts any origin.
	AllowedOrigins []string `env:"ARENA_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadServer parses ServerConfig from the environment.
func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
