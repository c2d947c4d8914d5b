package cplscheme

// HookPos marks a position in the coupling lifecycle where hooks are invoked.
type HookPos struct {
	Name string
}

// HookPosDataSent is invoked after the send data has been written. The item is
// the list of sent data ids.
var HookPosDataSent = &HookPos{Name: "Data Sent"}

// HookPosDataReceived is invoked after the receive data has been read. The
// item is the list of received data ids.
var HookPosDataReceived = &HookPos{Name: "Data Received"}

// HookPosTimestepComplete is invoked when a coupling timestep is completed.
// The item is the number of completed timesteps.
var HookPosTimestepComplete = &HookPos{Name: "Timestep Complete"}

// HookPosIterationComplete is invoked after each implicit iteration. The item
// is an IterationInfo.
var HookPosIterationComplete = &HookPos{Name: "Iteration Complete"}

// IterationInfo describes a finished implicit iteration.
type IterationInfo struct {
	Timestep  int
	Iteration int
	Converged bool
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase provides the hook bookkeeping for hookable types.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
