package saveset

import (
	"strings"

	"github.com/l1jgo/levelsave/internal/level"
	"golang.org/x/text/cases"
)

// LODSuffix marks proxy levels generated for level-of-detail rendering.
const LODSuffix = "_LOD"

var fold = cases.Fold()

// ShouldConsiderForSave decides whether actor belongs in the save set of
// settingsLevel. It has no side effects.
func ShouldConsiderForSave(actor *level.Actor, settingsLevel *level.Level) bool {
	if actor == nil {
		return false
	}
	if w := actor.World(); w == nil || w.IsGameWorld() {
		if actor.IsWorldSettings() {
			return actor.IsInPersistentLevel()
		}
		if actor.IsSubsystem() {
			return false
		}
		return actor.Savable() && !actor.Transient()
	}
	if actor.IsSubsystem() {
		return false
	}
	if actor.Level() != settingsLevel {
		return false
	}
	return actor.Savable() && !actor.Transient()
}

// IsLODLevelName reports whether name contains the LOD marker, ignoring case.
func IsLODLevelName(name string) bool {
	return strings.Contains(fold.String(name), fold.String(LODSuffix))
}
