package commands

import "strings"

// Result represents the result of a command execution
type Result struct {
	// Reply is written to the terminal peer verbatim, without pacing or
	// transliteration.
	Reply string
	Error error
}

// Handler is the interface for command handlers
type Handler interface {
	Execute(ctx *Context) *Result
	Name() string
	Description() string
}

// Dispatcher routes whole-line commands to their handlers. Names match
// case-insensitively.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates a dispatcher with the reset command registered
// under resetName.
func NewDispatcher(resetName string) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
	}
	d.Register(&ResetHandler{Token: resetName})
	return d
}

// Register adds a handler to the dispatcher
func (d *Dispatcher) Register(h Handler) {
	d.handlers[normalize(h.Name())] = h
}

// Lookup returns the handler whose name equals the whole line.
func (d *Dispatcher) Lookup(line string) (Handler, bool) {
	h, ok := d.handlers[normalize(line)]
	return h, ok
}

// Dispatch runs the command named by ctx.Line. ok is false when the line
// is not a command and should go to the model instead.
func (d *Dispatcher) Dispatch(ctx *Context) (result *Result, ok bool) {
	h, ok := d.Lookup(ctx.Line)
	if !ok {
		return nil, false
	}
	return h.Execute(ctx), true
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
