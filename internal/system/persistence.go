package system

import (
	"context"
	"time"

	"github.com/l1jgo/levelsave/internal/archive"
	"github.com/l1jgo/levelsave/internal/core/event"
	coresys "github.com/l1jgo/levelsave/internal/core/system"
	"github.com/l1jgo/levelsave/internal/levelfile"
	"github.com/l1jgo/levelsave/internal/persist"
	"github.com/l1jgo/levelsave/internal/saveset"
	"go.uber.org/zap"
)

// LevelStore is where encoded level blobs go. persist.LevelRepo implements it.
type LevelStore interface {
	SaveLevel(ctx context.Context, row *persist.LevelRow) error
}

// AutosaveSystem periodically prepares every level's save set and stores
// the encoded level. Phase 4 (Persist).
type AutosaveSystem struct {
	settings  []*saveset.Settings
	store     LevelStore
	opts      levelfile.Options
	log       *zap.Logger
	tickCount int
	interval  int // autosave every N ticks
}

func NewAutosaveSystem(settings []*saveset.Settings, store LevelStore, opts levelfile.Options, log *zap.Logger, intervalTicks int) *AutosaveSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &AutosaveSystem{
		settings: settings,
		store:    store,
		opts:     opts,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.SaveAll()
}

// SaveAll stores every level immediately and returns how many were saved.
// Called for graceful shutdown as well.
func (s *AutosaveSystem) SaveAll() int {
	count := 0
	for _, st := range s.settings {
		if s.save(st) {
			count++
		}
	}
	if count > 0 {
		s.log.Info("levels saved", zap.Int("levels", count))
	}
	return count
}

func (s *AutosaveSystem) save(st *saveset.Settings) bool {
	lvl := st.Level()
	st.Cache().Prepare()

	blob, err := levelfile.Encode(st, s.opts)
	if err != nil {
		s.log.Error("encode level failed", zap.String("level", lvl.FullName()), zap.Error(err))
		return false
	}

	version := archive.LatestVersion
	if v, ok := s.opts.WriteVersions[archive.FactoryGameGUID]; ok {
		version = v
	}
	row := &persist.LevelRow{
		WorldName:     lvl.World().Name(),
		LevelName:     lvl.Name(),
		CustomVersion: int32(version),
		MemberCount:   int32(st.Cache().Len()),
		Payload:       blob,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveLevel(ctx, row); err != nil {
		s.log.Error("store level failed", zap.String("level", lvl.FullName()), zap.Error(err))
		return false
	}
	event.Emit(lvl.World().Bus(), event.LevelSaved{
		Level:   lvl.FullName(),
		Members: st.Cache().Len(),
		Bytes:   len(blob),
	})
	return true
}
