package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Demo      DemoConfig      `toml:"demo"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	Capacity int           `toml:"capacity"` // fixed store size, never grows
	TickRate time.Duration `toml:"tick_rate"`
}

type DataConfig struct {
	CatTable  string `toml:"cat_table"`
	SpawnList string `toml:"spawn_list"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type DemoConfig struct {
	RunTicks      int `toml:"run_ticks"`      // 0 = run until interrupted
	SpawnInterval int `toml:"spawn_interval"` // ticks between spawner passes
	StatsInterval int `toml:"stats_interval"` // ticks between stat reports
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			Capacity: 64,
			TickRate: 200 * time.Millisecond,
		},
		Data: DataConfig{
			CatTable:  "data/yaml/cat_list.yaml",
			SpawnList: "data/yaml/spawn_list.yaml",
		},
		Scripting: ScriptingConfig{
			Dir: "scripts/behavior",
		},
		Demo: DemoConfig{
			RunTicks:      0,
			SpawnInterval: 5,
			StatsInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
