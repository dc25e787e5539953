package luagen

import (
	"context"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// instructionBudget is a context.Context whose Done method counts down a
// fixed opcode allowance. The interpreter polls Done once per opcode, so
// cancellation lands on the first opcode past the allowance.
type instructionBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newInstructionBudget(limit int) *instructionBudget {
	base, cancel := context.WithCancel(context.Background())
	b := &instructionBudget{Context: base, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

func (b *instructionBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// CheckChunk compiles and executes src in a sandboxed interpreter. Only
// the safe standard libraries are open, the loader globals are stripped,
// and the engine entry points generated scripts call at load time are
// stubbed out. instLimit bounds execution to that many opcodes; zero or
// negative disables the bound.
//
// Postcondition: Returns nil iff src parses and its top level runs to
// completion inside the budget.
func CheckChunk(src string, instLimit int) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Strip the escape hatches left by OpenBase.
	for _, unsafe := range []string{"collectgarbage", "dofile", "load", "loadfile", "require"} {
		L.SetGlobal(unsafe, lua.LNil)
	}

	// Load-time entry points of the script host. Handlers registered here
	// are never invoked; the check only proves the chunk loads cleanly.
	L.SetGlobal("RegisterCreatureEvent", L.NewFunction(func(*lua.LState) int { return 0 }))

	if instLimit > 0 {
		L.SetContext(newInstructionBudget(instLimit))
	}

	if err := L.DoString(src); err != nil {
		return fmt.Errorf("luagen: CheckChunk: %w", err)
	}
	return nil
}
