package epwcharts

import (
	"encoding/json"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the server settings, overridable via EPWCHARTS_* environment
// variables. Command line flags take precedence over the environment.
type Config struct {
	Host             string        `envconfig:"HOST"`
	Port             uint16        `envconfig:"PORT"`
	WebsocketBuffer  int           `envconfig:"WEBSOCKET_BUFFER"`
	ReplayBufferSize int           `envconfig:"REPLAY_BUFFER_SIZE"`
	FlushInterval    time.Duration `envconfig:"FLUSH_INTERVAL"`
	DefaultColorSet  string        `envconfig:"DEFAULT_COLORSET"`
}

var cfg *Config

// Get returns the configuration, initialised with default values and then
// overridden from the environment. The result is cached after the first call.
func Get() (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		Host:             "localhost",
		Port:             5272,
		WebsocketBuffer:  10000,
		ReplayBufferSize: HoursPerYear,
		FlushInterval:    250 * time.Millisecond,
		DefaultColorSet:  string(ColorSetOriginal),
	}

	return cfg, envconfig.Process("EPWCHARTS", cfg)
}

// String is implemented to prevent accidental logging of the raw struct.
func (config Config) String() string {
	b, _ := json.Marshal(config)
	return string(b)
}
