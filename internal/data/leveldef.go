package data

import (
	"fmt"
	"os"

	"github.com/l1jgo/levelsave/internal/level"
	"gopkg.in/yaml.v3"
)

// ActorDef is one actor entry of a level fixture.
type ActorDef struct {
	Name      string `yaml:"name"`
	Class     string `yaml:"class"`
	Kind      string `yaml:"kind"` // ordinary (default), world_settings, subsystem
	Savable   bool   `yaml:"savable"`
	Transient bool   `yaml:"transient"`
	// Level names a streaming level; empty means the persistent level.
	Level string `yaml:"level"`
}

type levelFile struct {
	World  string     `yaml:"world"`
	Actors []ActorDef `yaml:"actors"`
}

// LevelDef holds a level fixture loaded from YAML.
type LevelDef struct {
	World  string
	Actors []ActorDef
}

func (d *LevelDef) Count() int { return len(d.Actors) }

// LoadLevelDef loads a level fixture from a YAML file.
func LoadLevelDef(path string) (*LevelDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level file: %w", err)
	}
	return ParseLevelDef(raw)
}

func ParseLevelDef(raw []byte) (*LevelDef, error) {
	var f levelFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse level file: %w", err)
	}
	for i, a := range f.Actors {
		if a.Name == "" {
			return nil, fmt.Errorf("parse level file: actor %d has no name", i)
		}
		if _, err := level.ParseKind(a.Kind); err != nil {
			return nil, fmt.Errorf("parse level file: actor %s: %w", a.Name, err)
		}
	}
	return &LevelDef{World: f.World, Actors: f.Actors}, nil
}

// Populate spawns every actor of the fixture into w and returns how many
// were spawned.
func (d *LevelDef) Populate(w *level.World) (int, error) {
	n := 0
	for _, a := range d.Actors {
		kind, err := level.ParseKind(a.Kind)
		if err != nil {
			return n, err
		}
		lvl := w.PersistentLevel()
		if a.Level != "" {
			lvl = w.AddLevel(a.Level)
		}
		if _, err := w.SpawnActor(lvl, level.Spec{
			Name:      a.Name,
			Class:     a.Class,
			Kind:      kind,
			Savable:   a.Savable,
			Transient: a.Transient,
		}); err != nil {
			return n, fmt.Errorf("populate %s: %w", a.Name, err)
		}
		n++
	}
	return n, nil
}
