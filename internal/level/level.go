package level

// PersistentLevelName is the name of the level every world is created with.
const PersistentLevelName = "PersistentLevel"

// Level owns an ordered actor collection. Order carries no meaning.
type Level struct {
	name       string
	persistent bool
	world      *World
	actors     []*Actor
}

func (l *Level) Name() string       { return l.name }
func (l *Level) IsPersistent() bool { return l.persistent }
func (l *Level) World() *World      { return l.world }
func (l *Level) Len() int           { return len(l.actors) }

// FullName is "<world>:<level>", the name persisted in level blobs and
// matched against the LOD naming convention.
func (l *Level) FullName() string {
	if l.world == nil {
		return l.name
	}
	return l.world.name + ":" + l.name
}

// Actors returns a copy of the actor list, pending-kill actors included.
func (l *Level) Actors() []*Actor {
	out := make([]*Actor, len(l.actors))
	copy(out, l.actors)
	return out
}

// FindActor returns the first live actor named name.
func (l *Level) FindActor(name string) *Actor {
	for _, a := range l.actors {
		if a.name == name && !a.pendingKill {
			return a
		}
	}
	return nil
}

// Settings returns the level's world-settings actor, if spawned.
func (l *Level) Settings() *Actor {
	for _, a := range l.actors {
		if a.kind == KindWorldSettings && !a.pendingKill {
			return a
		}
	}
	return nil
}

func (l *Level) removePendingKill() int {
	kept := l.actors[:0]
	removed := 0
	for _, a := range l.actors {
		if a.pendingKill {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(l.actors); i++ {
		l.actors[i] = nil
	}
	l.actors = kept
	return removed
}
