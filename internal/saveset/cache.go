package saveset

import (
	"errors"
	"slices"

	"github.com/l1jgo/levelsave/internal/archive"
	"github.com/l1jgo/levelsave/internal/level"
	"go.uber.org/zap"
)

// ErrReentrantRebuild is the panic value raised when Prepare is entered while
// a rebuild of the same cache is still running.
var ErrReentrantRebuild = errors.New("saveset: reentrant rebuild")

// Cache is the save-relevant actor set of one level. It is owned by the
// level's settings object and touched only from the game loop goroutine.
type Cache struct {
	lvl           *level.Level
	log           *zap.Logger
	members       map[level.ActorRef]struct{}
	dirty         bool
	formatVersion int
	rebuilding    bool
}

// NewCache returns a cache that has never been built, so the first Prepare
// scans the level.
func NewCache(lvl *level.Level, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		lvl:           lvl,
		log:           log,
		members:       make(map[level.ActorRef]struct{}),
		dirty:         true,
		formatVersion: archive.LatestVersion,
	}
}

func (c *Cache) Level() *level.Level { return c.lvl }
func (c *Cache) IsDirty() bool       { return c.dirty }
func (c *Cache) Len() int            { return len(c.members) }

// FormatVersion is the custom version the cache was loaded with, or the
// latest version once it has been rebuilt.
func (c *Cache) FormatVersion() int { return c.formatVersion }

func (c *Cache) Contains(ref level.ActorRef) bool {
	_, ok := c.members[ref]
	return ok
}

// Members returns the cached refs in ascending handle order.
func (c *Cache) Members() []level.ActorRef {
	out := make([]level.ActorRef, 0, len(c.members))
	for ref := range c.members {
		out = append(out, ref)
	}
	slices.Sort(out)
	return out
}

// MarkDirty forces the next Prepare to rescan the level.
func (c *Cache) MarkDirty() {
	c.dirty = true
}

// OnTrackedActorDestroyed drops actor from the set. Outside gameplay the
// level layout itself may have changed, so the set is also marked dirty.
func (c *Cache) OnTrackedActorDestroyed(actor *level.Actor) {
	if actor == nil {
		return
	}
	actor.OnDestroyed.RemoveAll(c)
	delete(c.members, actor.Ref())

	if w := c.world(); w != nil && !w.IsGameWorld() {
		c.MarkDirty()
	}
}

// Prepare brings the set up to date. It rescans the level when dirty or when
// the set was loaded from a blob older than archive.CachedSaveActors, then
// drops unresolvable refs and makes sure every member is subscribed once.
// Prepare is not reentrant.
func (c *Cache) Prepare() {
	if c.rebuilding {
		panic(ErrReentrantRebuild)
	}
	c.rebuilding = true
	defer func() { c.rebuilding = false }()

	if c.dirty || c.formatVersion < archive.CachedSaveActors {
		next := make(map[level.ActorRef]struct{}, len(c.members))
		for _, a := range c.lvl.Actors() {
			if !ShouldConsiderForSave(a, c.lvl) {
				continue
			}
			if a.IsPendingKill() {
				continue
			}
			next[a.Ref()] = struct{}{}
		}
		c.replace(next)
		c.dirty = false
		c.formatVersion = archive.LatestVersion
	}

	w := c.world()
	for ref := range c.members {
		if w == nil || w.Resolve(ref) == nil {
			delete(c.members, ref)
		}
	}
	for ref := range c.members {
		c.track(w.Resolve(ref))
	}
}

// Release unsubscribes from every member. The set itself is kept.
func (c *Cache) Release() {
	w := c.world()
	if w == nil {
		return
	}
	for ref := range c.members {
		if a := w.Resolve(ref); a != nil {
			a.OnDestroyed.RemoveAll(c)
		}
	}
}

// Serialize moves the set through ar. Save-game snapshots, archives that
// neither load nor save, blobs older than archive.CachedSaveActors and LOD
// proxy levels carry no set.
func (c *Cache) Serialize(ar *archive.Archive) {
	ar.UsingCustomVersion(archive.FactoryGameGUID)
	if ar.IsLoading() {
		c.formatVersion = ar.CustomVer(archive.FactoryGameGUID)
	}

	if ar.IsSaveGame() {
		return
	}
	if !ar.IsSaving() && !ar.IsLoading() || ar.CustomVer(archive.FactoryGameGUID) < archive.CachedSaveActors {
		return
	}

	levelName := c.lvl.FullName()
	if IsLODLevelName(levelName) {
		return
	}

	if ar.IsCooking() && c.hasNull() {
		c.log.Warn("save actor set contains null references during cook, resave the level",
			zap.String("level", levelName))
	}
	if ar.IsSaving() && c.dirty {
		c.Prepare()
		c.dirty = false
	}

	refs := c.Members()
	ar.SerializeRefs(&refs)
	if !ar.IsLoading() || ar.Err() != nil {
		return
	}
	loaded := make(map[level.ActorRef]struct{}, len(refs))
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		loaded[ref] = struct{}{}
	}
	c.replace(loaded)
	// A set read from a current blob is authoritative until the level changes.
	c.dirty = false
}

// replace swaps in next, unsubscribing actors that left and subscribing
// actors that joined.
func (c *Cache) replace(next map[level.ActorRef]struct{}) {
	w := c.world()
	for ref := range c.members {
		if _, keep := next[ref]; keep {
			continue
		}
		if w == nil {
			continue
		}
		if a := w.Resolve(ref); a != nil {
			a.OnDestroyed.RemoveAll(c)
		}
	}
	c.members = next
	if w == nil {
		return
	}
	for ref := range next {
		c.track(w.Resolve(ref))
	}
}

func (c *Cache) track(a *level.Actor) {
	if a == nil || a.OnDestroyed.IsBound(c) {
		return
	}
	a.OnDestroyed.Bind(c, c.OnTrackedActorDestroyed)
}

func (c *Cache) hasNull() bool {
	w := c.world()
	for ref := range c.members {
		if ref.IsZero() || w == nil || w.Resolve(ref) == nil {
			return true
		}
	}
	return false
}

func (c *Cache) world() *level.World {
	if c.lvl == nil {
		return nil
	}
	return c.lvl.World()
}
