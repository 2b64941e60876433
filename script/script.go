// Package script runs kernel task bodies written in Lua.
//
// A script is compiled once and may back several tasks; every task gets its
// own Lua state, created on the task's fiber. Scripts see these globals:
//
//	arg          the task argument (number, string, boolean or nil)
//	led(color)   set the LED, by name ("red") or by index (0 = red)
//	delay(n)     give up the processor for n ticks
//	preempt()    honour a pending switch
//	clock()      the kernel tick counter
//	task()       the handle of the running task
//	trace(msg)   write msg on the kernel debug channel
//
// Like any task body, a script is expected to loop forever.
package script

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/Swind/go-minirtos/core"
	"github.com/Swind/go-minirtos/led"
)

// Program is a compiled script.
type Program struct {
	name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles a script read from r.
func Compile(name string, r io.Reader) (*Program, error) {
	chunk, err := parse.Parse(r, name)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return &Program{name: name, proto: proto}, nil
}

// CompileString compiles a script held in memory.
func CompileString(name, src string) (*Program, error) {
	return Compile(name, strings.NewReader(src))
}

// CompileFile compiles the script at path.
func CompileFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Compile(path, f)
}

// Name returns the name the program was compiled under.
func (p *Program) Name() string {
	return p.name
}

// Env is what a script can reach.
type Env struct {
	LED    led.Output
	Logger core.Logger
}

// Task returns a task body running the program. An error raised by the
// script panics the task, which halts the kernel through its panic handler.
func (p *Program) Task(env Env) core.TaskFunc {
	if env.Logger == nil {
		env.Logger = core.NewNoOpLogger()
	}
	return func(ctx context.Context, arg any) {
		L := newState()
		defer L.Close()

		L.SetGlobal("arg", toLua(arg))
		register(L, ctx, p.name, env)

		L.Push(L.NewFunctionFromProto(p.proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			panic(fmt.Errorf("script %s: %w", p.name, err))
		}
	}
}

// newState opens only the libraries a task body needs.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	return L
}

func register(L *lua.LState, ctx context.Context, name string, env Env) {
	L.SetGlobal("led", L.NewFunction(func(L *lua.LState) int {
		c, err := toColor(L.CheckAny(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		if env.LED != nil {
			env.LED.Set(c)
		}
		return 0
	}))

	L.SetGlobal("delay", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n < 0 {
			L.ArgError(1, "delay must not be negative")
			return 0
		}
		core.Delay(ctx, uint32(n))
		return 0
	}))

	L.SetGlobal("preempt", L.NewFunction(func(L *lua.LState) int {
		core.Preempt(ctx)
		return 0
	}))

	L.SetGlobal("clock", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(core.CurrentKernel(ctx).Clock()))
		return 1
	}))

	L.SetGlobal("task", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(core.CurrentTask(ctx)))
		return 1
	}))

	L.SetGlobal("trace", L.NewFunction(func(L *lua.LState) int {
		env.Logger.Debug("script", core.F("script", name), core.F("task", core.CurrentTask(ctx)), core.F("msg", L.CheckString(1)))
		return 0
	}))
}

func toColor(v lua.LValue) (led.Color, error) {
	switch v := v.(type) {
	case lua.LNumber:
		c := led.Color(int(v))
		if !c.Valid() {
			return led.Off, fmt.Errorf("no color with index %d", int(v))
		}
		return c, nil
	case lua.LString:
		return led.ParseColor(string(v))
	default:
		return led.Off, fmt.Errorf("color must be a name or an index, got %s", v.Type())
	}
}

func toLua(arg any) lua.LValue {
	switch v := arg.(type) {
	case nil:
		return lua.LNil
	case led.Color:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case uint32:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case bool:
		return lua.LBool(v)
	case fmt.Stringer:
		return lua.LString(v.String())
	default:
		return lua.LString(fmt.Sprint(v))
	}
}
