package system

import (
	"time"

	coresys "github.com/l1jgo/levelsave/internal/core/system"
	"github.com/l1jgo/levelsave/internal/level"
)

// CleanupSystem releases actors destroyed during the tick.
// Phase 5 (Cleanup).
type CleanupSystem struct {
	world *level.World
}

func NewCleanupSystem(world *level.World) *CleanupSystem {
	return &CleanupSystem{world: world}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.Flush()
}
