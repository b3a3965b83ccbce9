package level

import (
	"errors"
	"fmt"
	"strings"

	"github.com/l1jgo/levelsave/internal/core/ecs"
	"github.com/l1jgo/levelsave/internal/core/event"
)

// Type says what a world is used for.
type Type uint8

const (
	TypeNone Type = iota
	TypeGame
	TypeEditor
	TypePIE // play-in-editor
	TypeEditorPreview
	TypeGamePreview
	TypeInactive
)

// IsGameWorld reports whether the world runs live gameplay.
func (t Type) IsGameWorld() bool {
	return t == TypeGame || t == TypePIE || t == TypeGamePreview
}

// IsEditor reports whether the world is an authoring world, where editor
// notifications are wired up.
func (t Type) IsEditor() bool {
	return t == TypeEditor || t == TypeEditorPreview
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeGame:
		return "game"
	case TypeEditor:
		return "editor"
	case TypePIE:
		return "pie"
	case TypeEditorPreview:
		return "editor_preview"
	case TypeGamePreview:
		return "game_preview"
	case TypeInactive:
		return "inactive"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

func ParseType(s string) (Type, error) {
	for t := TypeNone; t <= TypeInactive; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("unknown world type %q", s)
}

var (
	ErrForeignLevel  = errors.New("level belongs to another world")
	ErrDuplicateName = errors.New("actor name already used in level")
	ErrEmptyName     = errors.New("actor name is empty")
)

// World owns levels and allocates actor handles from an ECS entity pool.
// Accessed only from the game loop goroutine.
type World struct {
	name       string
	typ        Type
	ecs        *ecs.World
	actors     *ecs.PtrComponentStore[Actor]
	bus        *event.Bus
	persistent *Level
	levels     []*Level
	pending    int
}

func NewWorld(name string, typ Type) *World {
	w := &World{
		name:   name,
		typ:    typ,
		ecs:    ecs.NewWorld(),
		actors: ecs.NewPtrComponentStore[Actor](),
		bus:    event.NewBus(),
	}
	w.ecs.Registry().Register(w.actors)
	w.persistent = &Level{name: PersistentLevelName, persistent: true, world: w}
	w.levels = append(w.levels, w.persistent)
	return w
}

func (w *World) Name() string            { return w.name }
func (w *World) Type() Type              { return w.typ }
func (w *World) IsGameWorld() bool       { return w.typ.IsGameWorld() }
func (w *World) Bus() *event.Bus         { return w.bus }
func (w *World) ECS() *ecs.World         { return w.ecs }
func (w *World) PersistentLevel() *Level { return w.persistent }

// Levels returns the persistent level followed by streaming levels.
func (w *World) Levels() []*Level {
	return append([]*Level(nil), w.levels...)
}

// AddLevel returns the streaming level called name, creating it if needed.
func (w *World) AddLevel(name string) *Level {
	if l := w.Level(name); l != nil {
		return l
	}
	l := &Level{name: name, world: w}
	w.levels = append(w.levels, l)
	return l
}

func (w *World) Level(name string) *Level {
	for _, l := range w.levels {
		if l.name == name {
			return l
		}
	}
	return nil
}

// SpawnActor adds a new actor to lvl and publishes ActorSpawned before
// returning.
func (w *World) SpawnActor(lvl *Level, spec Spec) (*Actor, error) {
	if lvl == nil || lvl.world != w {
		return nil, ErrForeignLevel
	}
	if spec.Name == "" {
		return nil, ErrEmptyName
	}
	if lvl.FindActor(spec.Name) != nil {
		return nil, fmt.Errorf("spawn %s in %s: %w", spec.Name, lvl.name, ErrDuplicateName)
	}
	a := NewActor(spec)
	a.ref = w.ecs.CreateEntity()
	a.level = lvl
	w.actors.Set(a.ref, a)
	lvl.actors = append(lvl.actors, a)
	event.Publish(w.bus, event.ActorSpawned{ActorID: a.ref, Level: lvl.name})
	return a, nil
}

// DestroyActor marks a pending kill and notifies OnDestroyed subscribers
// synchronously. The actor stays in its level, flagged, until Flush.
func (w *World) DestroyActor(a *Actor) bool {
	if a == nil || a.pendingKill || a.World() != w {
		return false
	}
	a.pendingKill = true
	w.pending++
	w.ecs.MarkForDestruction(a.ref)
	a.OnDestroyed.broadcast(a)
	return true
}

// Resolve turns a handle back into an actor. Stale, zero and foreign handles
// resolve to nil.
func (w *World) Resolve(ref ActorRef) *Actor {
	if !w.ecs.Alive(ref) {
		return nil
	}
	a, ok := w.actors.Get(ref)
	if !ok {
		return nil
	}
	return a
}

// Flush removes pending-kill actors from their levels and invalidates their
// handles. Returns the number of actors released.
func (w *World) Flush() int {
	if w.pending == 0 {
		return 0
	}
	for _, l := range w.levels {
		for _, a := range l.actors {
			if a.pendingKill {
				a.level = nil
			}
		}
		l.removePendingKill()
	}
	w.pending = 0
	return w.ecs.FlushDestroyQueue()
}

// ActorCount returns the number of live handles, pending kills included.
func (w *World) ActorCount() int { return w.actors.Len() }
