package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatTemplate holds static data for a cat kind loaded from YAML.
type CatTemplate struct {
	Kind          string   `yaml:"kind"`
	Moods         []string `yaml:"moods"`  // cycled by the behavior script
	Energy        int      `yaml:"energy"` // starting energy
	NapTicks      int      `yaml:"nap_ticks"`
	LifespanTicks int      `yaml:"lifespan_ticks"` // 0 = immortal
}

// SpawnEntry defines which cats the spawner brings in and how many.
type SpawnEntry struct {
	Kind   string `yaml:"kind"`
	Prefix string `yaml:"prefix"` // instance names become prefix-1, prefix-2, ...
	Count  int    `yaml:"count"`
}

type catListFile struct {
	Cats []CatTemplate `yaml:"cats"`
}

type spawnListFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

// CatTable holds all cat templates indexed by kind.
type CatTable struct {
	templates map[string]*CatTemplate
}

// LoadCatTable loads cat templates from a YAML file.
func LoadCatTable(path string) (*CatTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cat_list: %w", err)
	}
	var f catListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse cat_list: %w", err)
	}
	t := &CatTable{templates: make(map[string]*CatTemplate, len(f.Cats))}
	for i := range f.Cats {
		c := &f.Cats[i]
		t.templates[c.Kind] = c
	}
	return t, nil
}

// Get returns a cat template by kind, or nil if not found.
func (t *CatTable) Get(kind string) *CatTemplate {
	return t.templates[kind]
}

// Count returns the number of loaded templates.
func (t *CatTable) Count() int {
	return len(t.templates)
}

// LoadSpawnList loads spawn entries from a YAML file.
func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn_list: %w", err)
	}
	var f spawnListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn_list: %w", err)
	}
	return f.Spawns, nil
}
