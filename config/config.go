// Package config loads the bot configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

//Command registration targets used on startup
const (
	RegisterNone   = "none"
	RegisterGlobal = "global"
	RegisterGuild  = "guild"
)

//Config contains everything read from the environment
type Config struct {
	DiscordToken  string `env:"KANADE_DISCORD_BOT_TOKEN,required,notEmpty"`
	ApplicationID string `env:"KANADE_DISCORD_APPLICATION_ID"`
	//GuildID limits administrative command registration to a single guild
	GuildID string `env:"KANADE_DISCORD_GUILD_ID"`
	//OwnerID is the discord user granted the reserved owner permission level
	OwnerID string `env:"KANADE_OWNER_ID"`

	DBAddr string `env:"KANADE_DB_ADDR"`
	DBName string `env:"KANADE_DB_NAME" envDefault:"kanade"`

	LogLevel         string `env:"KANADE_LOG_LEVEL" envDefault:"info"`
	RegisterCommands string `env:"KANADE_REGISTER_COMMANDS" envDefault:"none"`
}

//Load reads a .env file if present, then parses the environment
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		logrus.Warnf("Failed to load .env file due to error %v", err)
	}
	return Parse()
}

//Parse reads the configuration from the environment only
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

//Validate checks values that cannot be expressed as struct tags
func (c *Config) Validate() error {
	switch c.RegisterCommands {
	case RegisterNone, RegisterGlobal, RegisterGuild:
	default:
		return fmt.Errorf("invalid configuration: KANADE_REGISTER_COMMANDS must be one of none, global or guild, got %q", c.RegisterCommands)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

//ApplyLogLevel sets the global logrus level
func (c *Config) ApplyLogLevel() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %v, falling back to info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
