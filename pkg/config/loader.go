package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a file and environment variables.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	// 1. Set default values
	v.SetDefault("logLevel", "info")
	v.SetDefault("client.relayURL", "ws://localhost:8091/ws")
	v.SetDefault("client.dataDir", "./wwsnb-data")
	v.SetDefault("client.reconnectAttempts", 5)
	v.SetDefault("client.reconnectDelay", "3s")
	v.SetDefault("client.sendTimeout", "5s")
	v.SetDefault("client.scanInterval", "1s")
	v.SetDefault("client.mutationDebounce", "100ms")
	v.SetDefault("relay.address", ":8091")
	v.SetDefault("relay.enableMetrics", true)
	v.SetDefault("relay.amqp.url", "")
	v.SetDefault("relay.amqp.exchange", "wwsnb.reactions")

	// 2. Set config file details
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".") // look for config in the working directory

	// 3. Set up environment variable handling
	v.SetEnvPrefix("WWSNB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read the configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars")
	}

	// 5. Unmarshal the configuration into our struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
