// Package levelfile reads and writes a level, its actors and its settings
// object as one archive blob.
package levelfile

import (
	"errors"
	"fmt"

	"github.com/l1jgo/levelsave/internal/archive"
	"github.com/l1jgo/levelsave/internal/level"
	"github.com/l1jgo/levelsave/internal/saveset"
	"go.uber.org/zap"
)

var ErrUnknownActorKind = errors.New("levelfile: unknown actor kind")

// Options are passed through to the archive.
type Options struct {
	SaveGame      bool
	Cooking       bool
	WriteVersions archive.Versions
}

func (o Options) archiveOptions() archive.Options {
	return archive.Options{SaveGame: o.SaveGame, Cooking: o.Cooking, WriteVersions: o.WriteVersions}
}

// linker names actors by their level-unique name.
type linker struct {
	world *level.World
	lvl   *level.Level
}

func (l *linker) ExportName(ref level.ActorRef) string {
	a := l.world.Resolve(ref)
	if a == nil || a.IsPendingKill() {
		return ""
	}
	return a.Name()
}

func (l *linker) ImportRef(name string) level.ActorRef {
	if l.lvl == nil {
		return 0
	}
	if a := l.lvl.FindActor(name); a != nil {
		return a.Ref()
	}
	return 0
}

type actorRecord struct {
	name      string
	class     string
	kind      int32
	savable   bool
	transient bool
}

// Encode writes the settings' level. Transient and pending-kill actors are
// left out of the actor table.
func Encode(s *saveset.Settings, opts Options) ([]byte, error) {
	lvl := s.Level()
	ar := archive.NewSaver(&linker{world: lvl.World(), lvl: lvl}, opts.archiveOptions())

	name := lvl.Name()
	persistent := lvl.IsPersistent()
	ar.SerializeString(&name)
	ar.SerializeBool(&persistent)

	records := make([]actorRecord, 0, lvl.Len())
	for _, a := range lvl.Actors() {
		if a.IsPendingKill() || a.Transient() {
			continue
		}
		records = append(records, actorRecord{
			name:      a.Name(),
			class:     a.Class(),
			kind:      int32(a.Kind()),
			savable:   a.Savable(),
			transient: a.Transient(),
		})
	}
	count := int32(len(records))
	ar.SerializeInt32(&count)
	for i := range records {
		serializeRecord(ar, &records[i])
	}

	s.Serialize(ar)
	return ar.Bytes()
}

// Decode rebuilds the level inside w, then reads and post-loads its
// settings object.
func Decode(blob []byte, w *level.World, opts Options, log *zap.Logger) (*saveset.Settings, error) {
	lk := &linker{world: w}
	ar, err := archive.NewLoader(blob, lk, opts.archiveOptions())
	if err != nil {
		return nil, fmt.Errorf("open level blob: %w", err)
	}

	var name string
	var persistent bool
	ar.SerializeString(&name)
	ar.SerializeBool(&persistent)
	var count int32
	ar.SerializeInt32(&count)
	if err := ar.Err(); err != nil {
		return nil, fmt.Errorf("read level header: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("read level header: negative actor count %d", count)
	}

	lvl := w.PersistentLevel()
	if !persistent {
		lvl = w.AddLevel(name)
	}
	lk.lvl = lvl

	for i := int32(0); i < count; i++ {
		var rec actorRecord
		serializeRecord(ar, &rec)
		if err := ar.Err(); err != nil {
			return nil, fmt.Errorf("read actor %d: %w", i, err)
		}
		kind := level.Kind(rec.kind)
		if rec.kind < 0 || kind > level.KindSubsystem {
			return nil, fmt.Errorf("actor %s: %w (%d)", rec.name, ErrUnknownActorKind, rec.kind)
		}
		if _, err := w.SpawnActor(lvl, level.Spec{
			Name:      rec.name,
			Class:     rec.class,
			Kind:      kind,
			Savable:   rec.savable,
			Transient: rec.transient,
		}); err != nil {
			return nil, fmt.Errorf("restore actor %s: %w", rec.name, err)
		}
	}

	settings, err := saveset.NewSettings(lvl, log)
	if err != nil {
		return nil, err
	}
	settings.Serialize(ar)
	if err := ar.Err(); err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	settings.PostLoad()
	return settings, nil
}

func serializeRecord(ar *archive.Archive, rec *actorRecord) {
	ar.SerializeString(&rec.name)
	ar.SerializeString(&rec.class)
	ar.SerializeInt32(&rec.kind)
	ar.SerializeBool(&rec.savable)
	ar.SerializeBool(&rec.transient)
}
