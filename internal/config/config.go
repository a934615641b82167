// Package config loads server configuration from a yaml file with
// environment-variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures the websocket gateway.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GameConfig configures room and turn timing.
type GameConfig struct {
	TurnTimeout     time.Duration `mapstructure:"turn_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	BroadcastBuffer int           `mapstructure:"broadcast_buffer"`
	LoopPoolSize    int           `mapstructure:"loop_pool_size"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from the given file, if any, applying
// defaults and FAITHDUEL_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.listen_addr", ":8617")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("game.turn_timeout", 30*time.Second)
	v.SetDefault("game.request_timeout", 21*time.Second)
	v.SetDefault("game.broadcast_buffer", 128)
	v.SetDefault("game.loop_pool_size", 64)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetEnvPrefix("FAITHDUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
