package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/l1jgo/levelsave/internal/core/event"
	"github.com/l1jgo/levelsave/internal/level"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM that runs authoring scripts against a
// world. Single-goroutine access only (game loop).
type Engine struct {
	vm    *lua.LState
	world *level.World
	log   *zap.Logger
}

// NewEngine creates a Lua VM with the level API installed.
func NewEngine(w *level.World, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, world: w, log: log}
	vm.SetGlobal("spawn_actor", vm.NewFunction(e.luaSpawnActor))
	vm.SetGlobal("destroy_actor", vm.NewFunction(e.luaDestroyActor))
	vm.SetGlobal("actor_count", vm.NewFunction(e.luaActorCount))
	vm.SetGlobal("change_map", vm.NewFunction(e.luaChangeMap))
	return e
}

// RunDir runs every .lua file in dir in name order. A missing directory is
// not an error. Returns the number of scripts run.
func (e *Engine) RunDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil // skip missing dirs
		}
		return 0, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	n := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return n, fmt.Errorf("run %s: %w", path, err)
		}
		e.log.Debug("ran lua script", zap.String("file", path))
		n++
	}
	return n, nil
}

// RunString runs a chunk of Lua source.
func (e *Engine) RunString(src string) error {
	return e.vm.DoString(src)
}

// CallHook calls the global Lua function name with a table built from
// fields. A missing hook is skipped; script errors are logged, not returned.
func (e *Engine) CallHook(name string, fields map[string]any) bool {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return false
	}
	t := e.vm.NewTable()
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			t.RawSetString(k, lua.LString(val))
		case int:
			t.RawSetString(k, lua.LNumber(val))
		case bool:
			t.RawSetString(k, lua.LBool(val))
		case float64:
			t.RawSetString(k, lua.LNumber(val))
		}
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua hook error", zap.String("hook", name), zap.Error(err))
		return false
	}
	return true
}

// spawn_actor{name=, class=, kind=, savable=, transient=, level=} -> name
func (e *Engine) luaSpawnActor(L *lua.LState) int {
	t := L.CheckTable(1)
	kind, err := level.ParseKind(lua.LVAsString(t.RawGetString("kind")))
	if err != nil {
		L.RaiseError("spawn_actor: %v", err)
		return 0
	}
	lvl := e.world.PersistentLevel()
	if name := lua.LVAsString(t.RawGetString("level")); name != "" {
		lvl = e.world.AddLevel(name)
	}
	a, err := e.world.SpawnActor(lvl, level.Spec{
		Name:      lua.LVAsString(t.RawGetString("name")),
		Class:     lua.LVAsString(t.RawGetString("class")),
		Kind:      kind,
		Savable:   lua.LVAsBool(t.RawGetString("savable")),
		Transient: lua.LVAsBool(t.RawGetString("transient")),
	})
	if err != nil {
		L.RaiseError("spawn_actor: %v", err)
		return 0
	}
	L.Push(lua.LString(a.Name()))
	return 1
}

// destroy_actor(name [, level]) -> bool
func (e *Engine) luaDestroyActor(L *lua.LState) int {
	name := L.CheckString(1)
	lvl := e.world.PersistentLevel()
	if L.GetTop() >= 2 {
		if lvl = e.world.Level(L.CheckString(2)); lvl == nil {
			L.Push(lua.LFalse)
			return 1
		}
	}
	L.Push(lua.LBool(e.world.DestroyActor(lvl.FindActor(name))))
	return 1
}

// actor_count() -> number of live actor handles in the world
func (e *Engine) luaActorCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.ActorCount()))
	return 1
}

// change_map([change]) publishes a MapChanged notification.
func (e *Engine) luaChangeMap(L *lua.LState) int {
	change := event.MapChangeType(L.OptInt(1, int(event.MapLoaded)))
	event.Publish(e.world.Bus(), event.MapChanged{World: e.world.Name(), Change: change})
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
