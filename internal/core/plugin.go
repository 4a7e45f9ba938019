package core

import "github.com/dkeye/Warden/internal/domain"

// ChatVerdict is the named result of a chat hook. The room's chat
// pipeline consumes it: Allow broadcasts the message, Suppress drops it.
// Transports only see the resulting frames.
type ChatVerdict int

const (
	VerdictAllow ChatVerdict = iota
	VerdictSuppress
)

// CommandHandler runs one invocation. Handlers never return errors:
// user-facing failures are announced, authorization failures are silent.
type CommandHandler func(actor *domain.Player, args []string)

// CommandSpec is one row of the command registration table. Arity is the
// exact argument count the dispatcher enforces before invoking. Permit,
// when set, runs before any dispatcher reply so a malformed invocation
// does not reveal the command to actors who could not run it anyway.
type CommandSpec struct {
	Name    string
	Arity   int
	Usage   string
	Permit  func(actor *domain.Player) bool
	Handler CommandHandler
}

// Plugin is a room add-on. The room dispatches every event on a single
// serialized pipeline, so hooks observe exactly the state left by the
// previous event.
type Plugin interface {
	Name() string
	Commands() []CommandSpec

	OnChat(sender *domain.Player, msg string) ChatVerdict

	// OnPersist captures the plugin's state as an opaque blob.
	// OnRestore receives that blob at startup; nil means nothing stored.
	OnPersist() (string, error)
	OnRestore(blob *string) error

	OnPlayerJoin(p *domain.Player)
	OnPlayerLeave(p *domain.Player)
	OnAdminChange(p *domain.Player)
}

// NopHooks provides no-op hook implementations for plugins that only
// care about a subset of events.
type NopHooks struct{}

func (NopHooks) Commands() []CommandSpec { return nil }

func (NopHooks) OnChat(*domain.Player, string) ChatVerdict { return VerdictAllow }

func (NopHooks) OnPersist() (string, error) { return "", nil }

func (NopHooks) OnRestore(*string) error { return nil }

func (NopHooks) OnPlayerJoin(*domain.Player) {}

func (NopHooks) OnPlayerLeave(*domain.Player) {}

func (NopHooks) OnAdminChange(*domain.Player) {}
