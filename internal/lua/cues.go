// Package lua evaluates operator-supplied cue scripts. A script decides what
// the display announces, and how many bells ring, when a slot moves to its
// next exercise, completes, or enters its last seconds.
//
// Scripts run in a sandbox with only the base, table, string and math
// libraries, without file loading, printing or randomness.
package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// CueEvent describes the moment a cue is requested for.
type CueEvent struct {
	Kind      string // advance, complete or warning
	Slot      int    // zero-based
	Patient   string
	Exercise  string
	Next      string
	Remaining int
}

// Cue is what the display should announce. A silent cue shows nothing and
// rings nothing.
type Cue struct {
	Message string
	Bells   int
	Silent  bool
}

// DefaultCue is used when no script is loaded.
func DefaultCue(ev CueEvent) Cue {
	switch ev.Kind {
	case "advance":
		return Cue{Message: fmt.Sprintf("%s: %s", ev.Patient, ev.Exercise), Bells: 1}
	case "complete":
		return Cue{Message: fmt.Sprintf("%s: séance terminée", ev.Patient), Bells: 2}
	case "warning":
		return Cue{Message: fmt.Sprintf("%s: %d s", ev.Patient, ev.Remaining), Bells: 1}
	}
	return Cue{Silent: true}
}

// CueScript holds a loaded script. Gopher-lua states are not goroutine-safe,
// so calls are serialized.
type CueScript struct {
	mu   sync.Mutex
	L    *lua.LState
	path string
}

// LoadCueScript reads and runs the script at path, which must define a
// global cue(event) function.
func LoadCueScript(path string) (*CueScript, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cue script: %w", err)
	}
	cs, err := NewCueScript(string(script))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cs.path = path
	return cs, nil
}

// NewCueScript runs source in a fresh sandbox.
func NewCueScript(source string) (*CueScript, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	openSafeLibs(L)

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	if fn, ok := L.GetGlobal("cue").(*lua.LFunction); !ok || fn == nil {
		L.Close()
		return nil, fmt.Errorf("script must define a 'cue' function")
	}

	return &CueScript{L: L}, nil
}

func (c *CueScript) Path() string { return c.path }

func (c *CueScript) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.L.Close()
}

// Evaluate calls cue(event). The script returns a message (nil or false to
// stay silent) and an optional bell count, defaulting to one.
func (c *CueScript) Evaluate(ev CueEvent) (Cue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	L := c.L
	tbl := L.NewTable()
	L.SetField(tbl, "kind", lua.LString(ev.Kind))
	L.SetField(tbl, "slot", lua.LNumber(ev.Slot+1))
	L.SetField(tbl, "patient", lua.LString(ev.Patient))
	L.SetField(tbl, "exercise", lua.LString(ev.Exercise))
	L.SetField(tbl, "next", lua.LString(ev.Next))
	L.SetField(tbl, "remaining", lua.LNumber(ev.Remaining))

	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("cue"),
		NRet:    2,
		Protect: true,
	}, tbl); err != nil {
		return Cue{}, fmt.Errorf("cue script failed: %w", err)
	}

	msg := L.Get(-2)
	bells := L.Get(-1)
	L.Pop(2)

	if msg == lua.LNil || msg == lua.LFalse {
		return Cue{Silent: true}, nil
	}

	cue := Cue{Message: msg.String(), Bells: 1}
	if n, ok := bells.(lua.LNumber); ok {
		cue.Bells = int(n)
		if cue.Bells < 0 {
			cue.Bells = 0
		}
	}
	return cue, nil
}

// openSafeLibs loads only the safe standard libraries
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("print", lua.LNil)

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Cues must be reproducible.
	math := L.GetGlobal("math")
	if tbl, ok := math.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}
