package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerSettings configures the HTTP environment server from the process
// environment.
type ServerSettings struct {
	Port           string        `env:"API_PORT" envDefault:"8080"`
	Env            string        `env:"API_ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	ConfigPath     string        `env:"CONFIG_PATH" envDefault:"examples/config.yaml"`
	BatteriesDir   string        `env:"BATTERIES_DIR" envDefault:"examples/batteries"`
	AllowedOrigins []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxSessions    int           `env:"MAX_SESSIONS" envDefault:"64"`
	// DatabasePath enables saving runs to sqlite when set.
	DatabasePath   string        `env:"DATABASE_PATH"`
}

func (s ServerSettings) Production() bool { return s.Env == "production" }

func LoadServerSettings() (ServerSettings, error) {
	return env.ParseAs[ServerSettings]()
}
