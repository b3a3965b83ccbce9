package level

import (
	"errors"
	"testing"

	"github.com/l1jgo/levelsave/internal/core/event"
)

func mustSpawn(t *testing.T, w *World, lvl *Level, name string) *Actor {
	t.Helper()
	a, err := w.SpawnActor(lvl, Spec{Name: name, Class: "Crate", Savable: true})
	if err != nil {
		t.Fatalf("spawn %s: %v", name, err)
	}
	return a
}

func TestSpawnPublishesSynchronously(t *testing.T) {
	w := NewWorld("Map", TypeEditor)
	var seen []ActorRef
	event.Subscribe(w.Bus(), func(ev event.ActorSpawned) {
		if w.Resolve(ev.ActorID) == nil {
			t.Errorf("spawned actor not resolvable inside the notification")
		}
		seen = append(seen, ev.ActorID)
	})

	a := mustSpawn(t, w, w.PersistentLevel(), "Crate_1")
	if len(seen) != 1 || seen[0] != a.Ref() {
		t.Fatalf("notifications = %v, want [%v]", seen, a.Ref())
	}
	if a.World() != w || a.Level() != w.PersistentLevel() || !a.IsInPersistentLevel() {
		t.Fatalf("back references not set")
	}
}

func TestSpawnErrors(t *testing.T) {
	w := NewWorld("Map", TypeGame)
	other := NewWorld("Other", TypeGame)
	mustSpawn(t, w, w.PersistentLevel(), "Crate_1")

	if _, err := w.SpawnActor(other.PersistentLevel(), Spec{Name: "X"}); !errors.Is(err, ErrForeignLevel) {
		t.Fatalf("foreign level: %v", err)
	}
	if _, err := w.SpawnActor(w.PersistentLevel(), Spec{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := w.SpawnActor(w.PersistentLevel(), Spec{Name: "Crate_1"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("duplicate: %v", err)
	}
	// Same name in another level is fine.
	mustSpawn(t, w, w.AddLevel("Sub"), "Crate_1")
}

func TestDestroyAndFlush(t *testing.T) {
	w := NewWorld("Map", TypeGame)
	lvl := w.PersistentLevel()
	a := mustSpawn(t, w, lvl, "Crate_1")
	b := mustSpawn(t, w, lvl, "Crate_2")

	var got []*Actor
	owner := new(int)
	a.OnDestroyed.Bind(owner, func(x *Actor) { got = append(got, x) })

	if !w.DestroyActor(a) {
		t.Fatalf("DestroyActor returned false")
	}
	if w.DestroyActor(a) {
		t.Fatalf("second DestroyActor should be a no-op")
	}
	if len(got) != 1 || got[0] != a {
		t.Fatalf("destroy notifications = %v", got)
	}
	if !a.IsPendingKill() || lvl.Len() != 2 {
		t.Fatalf("pending kill must stay in the level until Flush")
	}
	if lvl.FindActor("Crate_1") != nil {
		t.Fatalf("FindActor returned a pending-kill actor")
	}

	if n := w.Flush(); n != 1 {
		t.Fatalf("Flush released %d, want 1", n)
	}
	if lvl.Len() != 1 || lvl.Actors()[0] != b {
		t.Fatalf("level after flush = %v", lvl.Actors())
	}
	if w.Resolve(a.Ref()) != nil {
		t.Fatalf("stale handle resolved")
	}
	if a.World() != nil {
		t.Fatalf("flushed actor still attached")
	}
	if w.Flush() != 0 {
		t.Fatalf("empty flush released actors")
	}
}

func TestResolveRecycledHandle(t *testing.T) {
	w := NewWorld("Map", TypeGame)
	a := mustSpawn(t, w, w.PersistentLevel(), "Crate_1")
	old := a.Ref()
	w.DestroyActor(a)
	w.Flush()

	b := mustSpawn(t, w, w.PersistentLevel(), "Crate_2")
	if b.Ref().Index() != old.Index() {
		t.Skip("pool did not recycle the slot")
	}
	if w.Resolve(old) != nil {
		t.Fatalf("old generation resolved to %v", w.Resolve(old))
	}
	if w.Resolve(b.Ref()) != b {
		t.Fatalf("new handle did not resolve")
	}
	if w.Resolve(0) != nil {
		t.Fatalf("zero handle resolved")
	}
}

func TestDestroyForeignActor(t *testing.T) {
	w := NewWorld("Map", TypeGame)
	other := NewWorld("Other", TypeGame)
	a := mustSpawn(t, other, other.PersistentLevel(), "Crate_1")
	if w.DestroyActor(a) || w.DestroyActor(nil) || w.DestroyActor(NewActor(Spec{Name: "x"})) {
		t.Fatalf("DestroyActor accepted an actor it does not own")
	}
}

func TestLevelNames(t *testing.T) {
	w := NewWorld("Map", TypeEditor)
	sub := w.AddLevel("Sublevel_A")
	if w.AddLevel("Sublevel_A") != sub {
		t.Fatalf("AddLevel created a duplicate")
	}
	if got := w.PersistentLevel().FullName(); got != "Map:PersistentLevel" {
		t.Fatalf("FullName = %q", got)
	}
	if sub.IsPersistent() || len(w.Levels()) != 2 || w.Levels()[0] != w.PersistentLevel() {
		t.Fatalf("unexpected level layout")
	}
	if w.Level("missing") != nil {
		t.Fatalf("Level returned a level that was never added")
	}
}

func TestWorldTypes(t *testing.T) {
	game := map[Type]bool{TypeGame: true, TypePIE: true, TypeGamePreview: true}
	editor := map[Type]bool{TypeEditor: true, TypeEditorPreview: true}
	for typ := TypeNone; typ <= TypeInactive; typ++ {
		if typ.IsGameWorld() != game[typ] {
			t.Errorf("%v.IsGameWorld() = %v", typ, typ.IsGameWorld())
		}
		if typ.IsEditor() != editor[typ] {
			t.Errorf("%v.IsEditor() = %v", typ, typ.IsEditor())
		}
		parsed, err := ParseType(typ.String())
		if err != nil || parsed != typ {
			t.Errorf("ParseType(%q) = %v, %v", typ.String(), parsed, err)
		}
	}
	if _, err := ParseType("arcade"); err == nil {
		t.Fatalf("ParseType accepted an unknown type")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"":               KindOrdinary,
		"Ordinary":       KindOrdinary,
		"world_settings": KindWorldSettings,
		"settings":       KindWorldSettings,
		" subsystem ":    KindSubsystem,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("pawn"); err == nil {
		t.Fatalf("ParseKind accepted an unknown kind")
	}
}
