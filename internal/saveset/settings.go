package saveset

import (
	"fmt"

	"github.com/l1jgo/levelsave/internal/archive"
	"github.com/l1jgo/levelsave/internal/core/event"
	"github.com/l1jgo/levelsave/internal/level"
	"go.uber.org/zap"
)

// Actor names and classes the settings object spawns or reacts to.
const (
	SettingsActorName = "WorldSettings"
	SettingsClass     = "FGWorldSettings"

	ClassExponentialHeightFog = "ExponentialHeightFog"
	ClassSkyAtmosphere        = "SkyAtmosphere"
	ClassSkySphere            = "FGSkySphere"
	ClassMinimapCapture       = "FGMinimapCaptureActor"

	DefaultStartTimeOfDay = 12.0
)

// subsystemSpec lists the per-world singletons created at PreInitialize.
type subsystemSpec struct {
	name       string
	class      string
	editorSafe bool // spawned in editor and editor-preview worlds too
}

var subsystems = []subsystemSpec{
	{name: "FoliageRemovalSubsystem", class: "FGFoliageRemovalSubsystem", editorSafe: true},
	{name: "AudioVolumeSubsystem", class: "FGAudioVolumeSubsystem", editorSafe: true},
	{name: "BuildableSubsystem", class: "FGBuildableSubsystem", editorSafe: true},
	{name: "ConveyorItemSubsystem", class: "FGConveyorItemSubsystem", editorSafe: false},
}

// Environment holds handles to scene singletons picked up from spawn
// notifications in authoring worlds.
type Environment struct {
	HeightFog      level.ActorRef
	SkyAtmosphere  level.ActorRef
	SkySphere      level.ActorRef
	MinimapCapture level.ActorRef
}

// Settings is the per-level settings object. It owns the save-set cache.
type Settings struct {
	actor *level.Actor
	cache *Cache
	log   *zap.Logger

	StartTimeOfDay  float64
	DefaultLoadSave string

	env        Environment
	subsystems map[string]level.ActorRef

	spawnToken event.Token
	mapToken   event.Token
}

// NewSettings adopts the settings actor of lvl, spawning one when the level
// has none yet.
func NewSettings(lvl *level.Level, log *zap.Logger) (*Settings, error) {
	if lvl == nil || lvl.World() == nil {
		return nil, fmt.Errorf("new settings: level is not part of a world")
	}
	if log == nil {
		log = zap.NewNop()
	}
	actor := lvl.Settings()
	if actor == nil {
		var err error
		actor, err = lvl.World().SpawnActor(lvl, level.Spec{
			Name:    SettingsActorName,
			Class:   SettingsClass,
			Kind:    level.KindWorldSettings,
			Savable: true,
		})
		if err != nil {
			return nil, fmt.Errorf("spawn settings actor: %w", err)
		}
	}
	log = log.With(zap.String("level", lvl.FullName()))
	return &Settings{
		actor:          actor,
		cache:          NewCache(lvl, log),
		log:            log,
		StartTimeOfDay: DefaultStartTimeOfDay,
		subsystems:     make(map[string]level.ActorRef, len(subsystems)),
	}, nil
}

func (s *Settings) Actor() *level.Actor { return s.actor }
func (s *Settings) Cache() *Cache       { return s.cache }
func (s *Settings) Level() *level.Level { return s.cache.Level() }
func (s *Settings) World() *level.World { return s.cache.Level().World() }

// PreInitialize wires editor notifications (authoring worlds only) and
// spawns the world's subsystems into the persistent level.
func (s *Settings) PreInitialize() error {
	w := s.World()
	if w.Type().IsEditor() && s.spawnToken == 0 {
		s.spawnToken = event.Subscribe(w.Bus(), s.onActorSpawned)
		s.mapToken = event.Subscribe(w.Bus(), s.handleMapChanged)
	}

	for _, spec := range subsystems {
		if !spec.editorSafe && w.Type().IsEditor() {
			continue
		}
		if err := s.spawnSubsystem(spec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Settings) spawnSubsystem(spec subsystemSpec) error {
	w := s.World()
	if existing := w.PersistentLevel().FindActor(spec.name); existing != nil {
		s.subsystems[spec.name] = existing.Ref()
		return nil
	}
	a, err := w.SpawnActor(w.PersistentLevel(), level.Spec{
		Name:    spec.name,
		Class:   spec.class,
		Kind:    level.KindSubsystem,
		Savable: true,
	})
	if err != nil {
		return fmt.Errorf("spawn %s: %w", spec.name, err)
	}
	s.subsystems[spec.name] = a.Ref()
	return nil
}

// Subsystem resolves a subsystem spawned by PreInitialize.
func (s *Settings) Subsystem(name string) *level.Actor {
	return s.World().Resolve(s.subsystems[name])
}

// PostLoad runs once the level blob has been read.
func (s *Settings) PostLoad() {
	s.cache.Prepare()
}

// Teardown releases every subscription the settings object holds.
func (s *Settings) Teardown() {
	bus := s.World().Bus()
	if s.spawnToken != 0 {
		bus.Unsubscribe(s.spawnToken)
		s.spawnToken = 0
	}
	if s.mapToken != 0 {
		bus.Unsubscribe(s.mapToken)
		s.mapToken = 0
	}
	s.cache.Release()
}

// Serialize moves the settings properties and the save-set through ar.
func (s *Settings) Serialize(ar *archive.Archive) {
	ar.UsingCustomVersion(archive.FactoryGameGUID)
	if ar.CustomVer(archive.FactoryGameGUID) >= archive.WorldSettingsEnvironment {
		ar.SerializeFloat64(&s.StartTimeOfDay)
		ar.SerializeString(&s.DefaultLoadSave)
	}
	s.cache.Serialize(ar)
}

func (s *Settings) HeightFog() *level.Actor      { return s.World().Resolve(s.env.HeightFog) }
func (s *Settings) SkyAtmosphere() *level.Actor  { return s.World().Resolve(s.env.SkyAtmosphere) }
func (s *Settings) SkySphere() *level.Actor      { return s.World().Resolve(s.env.SkySphere) }
func (s *Settings) MinimapCapture() *level.Actor { return s.World().Resolve(s.env.MinimapCapture) }

// onActorSpawned refreshes environment handles. Every spawn also dirties
// the save set.
func (s *Settings) onActorSpawned(ev event.ActorSpawned) {
	if a := s.World().Resolve(ev.ActorID); a != nil {
		switch a.Class() {
		case ClassExponentialHeightFog:
			s.env.HeightFog = a.Ref()
		case ClassSkyAtmosphere:
			s.env.SkyAtmosphere = a.Ref()
		case ClassSkySphere:
			s.env.SkySphere = a.Ref()
		case ClassMinimapCapture:
			s.env.MinimapCapture = a.Ref()
		}
	}
	s.cache.MarkDirty()
}

func (s *Settings) handleMapChanged(ev event.MapChanged) {
	s.log.Debug("map changed", zap.String("world", ev.World), zap.Uint8("change", uint8(ev.Change)))
}
