package level

import (
	"fmt"
	"strings"

	"github.com/l1jgo/levelsave/internal/core/ecs"
)

// ActorRef is a non-owning handle to an actor. A zero or stale ref resolves
// to nothing, which is how dangling references show up after destruction.
type ActorRef = ecs.EntityID

// Kind is fixed when the actor is spawned.
type Kind uint8

const (
	KindOrdinary      Kind = iota
	KindWorldSettings // the per-level settings object
	KindSubsystem     // per-world singleton recreated on load
)

func (k Kind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindWorldSettings:
		return "world_settings"
	case KindSubsystem:
		return "subsystem"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind accepts the names produced by Kind.String. An empty string is
// an ordinary actor.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ordinary":
		return KindOrdinary, nil
	case "world_settings", "settings":
		return KindWorldSettings, nil
	case "subsystem":
		return KindSubsystem, nil
	}
	return 0, fmt.Errorf("unknown actor kind %q", s)
}

// Spec describes an actor to spawn.
type Spec struct {
	Name      string
	Class     string
	Kind      Kind
	Savable   bool // declares the save interface
	Transient bool // never persisted even when savable
}

// Actor is a world object. Fields are owned by the game loop goroutine.
type Actor struct {
	ref         ActorRef
	name        string
	class       string
	kind        Kind
	savable     bool
	transient   bool
	pendingKill bool
	level       *Level

	// OnDestroyed fires synchronously from World.DestroyActor.
	OnDestroyed Delegate
}

// NewActor builds an actor that belongs to no level or world yet.
func NewActor(spec Spec) *Actor {
	return &Actor{
		name:      spec.Name,
		class:     spec.Class,
		kind:      spec.Kind,
		savable:   spec.Savable,
		transient: spec.Transient,
	}
}

func (a *Actor) Ref() ActorRef         { return a.ref }
func (a *Actor) Name() string          { return a.name }
func (a *Actor) Class() string         { return a.class }
func (a *Actor) Kind() Kind            { return a.kind }
func (a *Actor) Savable() bool         { return a.savable }
func (a *Actor) Transient() bool       { return a.transient }
func (a *Actor) IsPendingKill() bool   { return a.pendingKill }
func (a *Actor) SetTransient(v bool)   { a.transient = v }
func (a *Actor) Level() *Level         { return a.level }
func (a *Actor) IsWorldSettings() bool { return a.kind == KindWorldSettings }
func (a *Actor) IsSubsystem() bool     { return a.kind == KindSubsystem }

// World returns the owning world, or nil while the actor is detached.
func (a *Actor) World() *World {
	if a.level == nil {
		return nil
	}
	return a.level.world
}

// IsInPersistentLevel reports whether the actor lives in its world's
// persistent level.
func (a *Actor) IsInPersistentLevel() bool {
	return a.level != nil && a.level.persistent
}

func (a *Actor) String() string {
	if a == nil {
		return "<nil>"
	}
	if a.level == nil {
		return a.name
	}
	return a.level.name + "." + a.name
}
