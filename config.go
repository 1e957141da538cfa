package stated

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-stated/pkg/activity"
)

// DefaultStateName is the conventional state enabled when a proxy starts
// without an explicit state and its class names no default of its own.
const DefaultStateName = "StateDefault"

// Config holds process level defaults for factories and proxies.
type Config struct {
	DefaultState string `env:"STATED_DEFAULT_STATE" envDefault:"StateDefault"`
	// RequireDefaultState makes startup fail with ErrStateNotFound when no
	// state was requested and the default state does not exist. When false
	// the proxy starts with no active state.
	RequireDefaultState bool   `env:"STATED_REQUIRE_DEFAULT_STATE" envDefault:"false"`
	ActivityEnabled     bool   `env:"STATED_ACTIVITY_ENABLED"      envDefault:"true"`
	ActivityChannel     string `env:"STATED_ACTIVITY_CHANNEL"      envDefault:"states"`
	LogLevel            string `env:"STATED_LOG_LEVEL"             envDefault:"info"`
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		DefaultState:    DefaultStateName,
		ActivityEnabled: true,
		ActivityChannel: DefaultActivityChannel,
		LogLevel:        "info",
	}
}

// LoadConfigFromEnv reads the STATED_* environment variables.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalized(), nil
}

func (c Config) normalized() Config {
	c.DefaultState = strings.TrimSpace(c.DefaultState)
	if c.DefaultState == "" {
		c.DefaultState = DefaultStateName
	}
	c.ActivityChannel = strings.TrimSpace(c.ActivityChannel)
	if c.ActivityChannel == "" {
		c.ActivityChannel = DefaultActivityChannel
	}
	return c
}

// ActivityConfig returns the activity emission settings of c.
func (c Config) ActivityConfig() activity.Config {
	return activity.Config{Enabled: c.ActivityEnabled, Channel: c.ActivityChannel}
}
