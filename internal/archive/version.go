package archive

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// FactoryGameGUID keys the game's custom version in every level blob.
var FactoryGameGUID = uuid.MustParse("8a8e5c3b-6f7d-4c1e-9d52-3b1f0e7a4c21")

// Game custom versions. Append only; persisted blobs carry these numbers.
const (
	BeforeCustomVersion = iota
	WorldSettingsEnvironment
	FoliageRemovalSaved
	// CachedSaveActors introduced the persisted save-actor set. Blobs older
	// than this carry no set and must be rebuilt after load.
	CachedSaveActors

	versionPlusOne
	LatestVersion = versionPlusOne - 1
)

// Versions maps a custom version GUID to a version number.
type Versions map[uuid.UUID]int

// Latest returns the versions this build writes by default.
func Latest() Versions {
	return Versions{FactoryGameGUID: LatestVersion}
}

// Get returns the version for key, or BeforeCustomVersion when the blob was
// written before key was registered.
func (v Versions) Get(key uuid.UUID) int {
	if n, ok := v[key]; ok {
		return n
	}
	return BeforeCustomVersion
}

func (v Versions) clone() Versions {
	out := make(Versions, len(v))
	for k, n := range v {
		out[k] = n
	}
	return out
}

// keys returns the version keys in byte order, the order they are written in.
func (v Versions) keys() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}
