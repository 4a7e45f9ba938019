package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

// CommandPrefix marks a chat line as a command invocation.
const CommandPrefix = "!"

// Dispatcher maps command names to their registered specs. The table is
// built at startup and read-only afterwards.
type Dispatcher struct {
	byName map[string]core.CommandSpec
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{byName: make(map[string]core.CommandSpec)}
}

// Register validates and installs a plugin's command table: lowercase
// single-word names, no duplicates, a handler for every row.
func (d *Dispatcher) Register(specs []core.CommandSpec) error {
	for _, spec := range specs {
		name := spec.Name
		if name == "" || name != strings.ToLower(name) || strings.ContainsAny(name, " \t") {
			return fmt.Errorf("invalid command name %q", name)
		}
		if spec.Handler == nil {
			return fmt.Errorf("command %q has no handler", name)
		}
		if _, dup := d.byName[name]; dup {
			return fmt.Errorf("duplicate command %q", name)
		}
		d.byName[name] = spec
	}
	return nil
}

// Dispatch parses a prefixed line into (name, ordered args) and invokes
// the handler. The returned reply, when non-empty, is a user-facing
// error the room whispers back to the actor.
func (d *Dispatcher) Dispatch(actor *domain.Player, line string) (reply string) {
	fields := strings.Fields(strings.TrimPrefix(line, CommandPrefix))
	if len(fields) == 0 {
		return ""
	}
	name := strings.ToLower(fields[0])
	spec, ok := d.byName[name]
	if !ok {
		return fmt.Sprintf("Unknown command: %s", name)
	}
	args := fields[1:]
	if len(args) != spec.Arity {
		if spec.Permit != nil && !spec.Permit(actor) {
			return ""
		}
		return fmt.Sprintf("Usage: %s", spec.Usage)
	}
	spec.Handler(actor, args)
	return ""
}
