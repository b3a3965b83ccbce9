package event

import "github.com/l1jgo/levelsave/internal/core/ecs"

// ActorSpawned is published synchronously by a world whenever an actor is
// added to one of its levels.
type ActorSpawned struct {
	ActorID ecs.EntityID
	Level   string
}

// MapChangeType mirrors the editor's reasons for swapping the open map.
type MapChangeType uint8

const (
	MapLoaded MapChangeType = iota
	MapSaveAs
	MapNewMap
	MapTearDownWorld
)

// MapChanged is published by authoring tools when the open map changes.
type MapChanged struct {
	World  string
	Change MapChangeType
}

// LevelSaved is emitted after a level blob has been stored.
type LevelSaved struct {
	Level   string
	Members int
	Bytes   int
}
