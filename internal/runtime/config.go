package runtime

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/mech-lang/core/internal/operator"
)

// Config tunes a Core: the scheduler's cycle-detection cap, the value
// store's initial capacity, and the element-wise parallel-iteration
// threshold (§4.8, §5). None of these is exposed as a CLI flag — a
// parser/CLI front end is out of scope (spec §1) — only an optional
// mech.toml file loaded at construction.
type Config struct {
	MaxIter           int `toml:"max_iter"`
	StoreCapacity     int `toml:"store_capacity"`
	ParallelThreshold int `toml:"parallel_threshold"`
}

// DefaultConfig mirrors the spec's stated defaults (§4.8: "a
// compile-time cap MAX_ITER, e.g. 10,000").
func DefaultConfig() Config {
	return Config{
		MaxIter:           10000,
		StoreCapacity:     1024,
		ParallelThreshold: operator.ParallelThreshold,
	}
}

// LoadConfig reads path as TOML, overlaying onto DefaultConfig. A
// missing file is not an error — Core runs on defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) apply() {
	if c.ParallelThreshold > 0 {
		operator.ParallelThreshold = c.ParallelThreshold
	}
}
