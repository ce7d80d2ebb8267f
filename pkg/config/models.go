package config

import "time"

type Config struct {
	LogLevel string `mapstructure:"logLevel"`
	Client   ClientConfig
	Relay    RelayConfig
}

// ClientConfig drives the in-page reaction agent.
type ClientConfig struct {
	RelayURL string `mapstructure:"relayURL"`
	// DataDir holds the pebble store used for session snapshots.
	DataDir           string        `mapstructure:"dataDir"`
	ReconnectAttempts int           `mapstructure:"reconnectAttempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnectDelay"`
	SendTimeout       time.Duration `mapstructure:"sendTimeout"`
	ScanInterval      time.Duration `mapstructure:"scanInterval"`
	MutationDebounce  time.Duration `mapstructure:"mutationDebounce"`
}

type RelayConfig struct {
	Address       string
	EnableMetrics bool       `mapstructure:"enableMetrics"`
	AMQP          AMQPConfig `mapstructure:"amqp"`
}

// AMQPConfig enables the optional reaction event fan-out. An empty URL
// disables publishing entirely.
type AMQPConfig struct {
	URL      string
	Exchange string
}
