package manufacture

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rotisserie/eris"
)

// Config is the engine's construction-time configuration.
type Config struct {
	// TicksPerSecond is the fixed logic tick rate. Default 20 (~50ms).
	TicksPerSecond int `toml:"ticks_per_second"`
	// MaxSystemsPerStage caps how many systems share one dispatch stage.
	// Default 5.
	MaxSystemsPerStage int `toml:"max_systems_per_stage"`
}

// DefaultConfig returns the reference defaults.
func DefaultConfig() Config {
	return Config{
		TicksPerSecond:     20,
		MaxSystemsPerStage: 5,
	}
}

// Validate rejects configurations the scheduler cannot honor.
func (c Config) Validate() error {
	if c.TicksPerSecond <= 0 {
		return eris.Errorf("ticks_per_second must be positive, got %d", c.TicksPerSecond)
	}
	if c.MaxSystemsPerStage <= 0 {
		return eris.Errorf("max_systems_per_stage must be positive, got %d", c.MaxSystemsPerStage)
	}
	return nil
}

// tickInterval converts the tick rate to the gate's polling interval.
func (c Config) tickInterval() time.Duration {
	return time.Second / time.Duration(c.TicksPerSecond)
}

// LoadConfig reads a TOML config file over the defaults, so a partial file
// only overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, eris.Wrapf(err, "load config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
