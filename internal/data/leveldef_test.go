package data

import (
	"testing"

	"github.com/l1jgo/levelsave/internal/level"
)

const fixture = `
world: Test_Map
actors:
  - name: Crate_1
    class: FGItemPickup
    savable: true
  - name: Fog
    class: ExponentialHeightFog
  - name: Debris
    class: FGItemPickup
    savable: true
    transient: true
  - name: Miner_7
    class: FGBuildableMiner
    savable: true
    level: Sublevel_North
`

func TestParseLevelDefAndPopulate(t *testing.T) {
	def, err := ParseLevelDef([]byte(fixture))
	if err != nil {
		t.Fatalf("ParseLevelDef: %v", err)
	}
	if def.World != "Test_Map" || def.Count() != 4 {
		t.Fatalf("unexpected def: world=%q count=%d", def.World, def.Count())
	}

	w := level.NewWorld(def.World, level.TypeGame)
	n, err := def.Populate(w)
	if err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if n != 4 {
		t.Fatalf("spawned %d actors, want 4", n)
	}
	north := w.Level("Sublevel_North")
	if north == nil || north.FindActor("Miner_7") == nil {
		t.Fatalf("Miner_7 not spawned into Sublevel_North")
	}
	if !w.PersistentLevel().FindActor("Debris").Transient() {
		t.Fatalf("transient flag lost")
	}
}

func TestParseLevelDefRejectsBadKind(t *testing.T) {
	_, err := ParseLevelDef([]byte("actors:\n  - name: X\n    kind: gizmo\n"))
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestParseLevelDefRejectsMissingName(t *testing.T) {
	_, err := ParseLevelDef([]byte("actors:\n  - class: X\n"))
	if err == nil {
		t.Fatalf("expected error for unnamed actor")
	}
}
