package app

import (
	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// Config is the server's environment configuration. Field names map to
// SNAKE_CASE environment variables (ListenAddr -> LISTEN_ADDR).
type Config struct {
	ListenAddr    string
	AllowedOrigin string
	LogLevel      string
}

func defaultConfig() Config {
	return Config{
		ListenAddr:    ":8080",
		AllowedOrigin: "*",
		LogLevel:      "info",
	}
}

// LoadConfig overlays environment variables on the defaults.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "loading config from environment")
	}
	return cfg, nil
}
