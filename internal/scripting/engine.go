package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for behavior decisions.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load behavior scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Action is what a behavior script tells a cat to do.
type Action string

const (
	ActionProwl  Action = "prowl"  // keep roaming
	ActionGrin   Action = "grin"   // shift mood
	ActionNap    Action = "nap"    // leave the active partition
	ActionVanish Action = "vanish" // despawn entirely
)

// BehaviorContext holds pre-packed cat state for a behavior decision.
type BehaviorContext struct {
	Kind     string
	Name     string
	Mood     string
	Moods    []string // the kind's full mood cycle, template order
	Energy   int
	Age      int // ticks since spawn
	Naps     int // completed naps
	Lifespan int // 0 = immortal
}

// Decision is returned by the Lua decide function. Energy is the cat's
// energy after the decision; scripts may omit it to leave it unchanged.
type Decision struct {
	Action Action
	Say    string
	Mood   string
	Energy int
}

// Decide calls the Lua decide function. Any scripting failure degrades to a
// plain prowl so the simulation keeps moving.
func (e *Engine) Decide(ctx BehaviorContext) Decision {
	fallback := Decision{Action: ActionProwl, Mood: ctx.Mood, Energy: ctx.Energy}

	fn := e.vm.GetGlobal("decide")
	if fn == lua.LNil {
		e.log.Error("lua function decide not found")
		return fallback
	}

	// Build context table
	t := e.vm.NewTable()
	t.RawSetString("kind", lua.LString(ctx.Kind))
	t.RawSetString("name", lua.LString(ctx.Name))
	t.RawSetString("mood", lua.LString(ctx.Mood))
	t.RawSetString("energy", lua.LNumber(ctx.Energy))
	t.RawSetString("age", lua.LNumber(ctx.Age))
	t.RawSetString("naps", lua.LNumber(ctx.Naps))
	t.RawSetString("lifespan", lua.LNumber(ctx.Lifespan))

	moods := e.vm.NewTable()
	for i, m := range ctx.Moods {
		moods.RawSetInt(i+1, lua.LString(m))
	}
	t.RawSetString("moods", moods)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua decide error", zap.Error(err))
		return fallback
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua decide returned non-table")
		return fallback
	}

	d := Decision{
		Action: Action(lStr(rt, "action")),
		Say:    lStr(rt, "say"),
		Mood:   ctx.Mood,
		Energy: ctx.Energy,
	}
	if v := rt.RawGetString("mood"); v != lua.LNil {
		d.Mood = lStr(rt, "mood")
	}
	if v := rt.RawGetString("energy"); v != lua.LNil {
		d.Energy = lInt(rt, "energy")
	}

	switch d.Action {
	case ActionProwl, ActionGrin, ActionNap, ActionVanish:
	default:
		e.log.Warn("lua decide returned unknown action", zap.String("action", string(d.Action)))
		d.Action = ActionProwl
	}
	return d
}

// --- Lua helpers ---

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
