package mutes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

const DefaultMuteMessage = "You are muted and cannot chat."

// Config is the plugin's recognized option surface.
type Config struct {
	MuteMessage             string
	AllowedRoles            []string
	ProtectedRoles          []string
	AllowTalkingWhenCaptain bool
}

// Plugin wires the store, gate, and policy behind the room's command and
// chat hooks. All collaborators are injected; a nil RoleService degrades
// to authorization denial, a nil directory to target-not-found.
type Plugin struct {
	cfg    Config
	store  *Store
	gate   *Gate
	policy *Policy
	dir    core.PlayerDirectory
	out    core.Announcer
}

func New(cfg Config, dir core.PlayerDirectory, roles core.RoleService, out core.Announcer, sink Sink) *Plugin {
	if cfg.MuteMessage == "" {
		cfg.MuteMessage = DefaultMuteMessage
	}
	store := NewStore(sink)
	return &Plugin{
		cfg:    cfg,
		store:  store,
		gate:   NewGate(roles, cfg.AllowedRoles, cfg.ProtectedRoles),
		policy: NewPolicy(store, dir, cfg.AllowTalkingWhenCaptain),
		dir:    dir,
		out:    out,
	}
}

func (p *Plugin) Name() string { return "mutes" }

func (p *Plugin) Commands() []core.CommandSpec {
	permit := p.gate.CanRunCommand
	return []core.CommandSpec{
		{Name: "mute", Arity: 1, Usage: "!mute <player id>", Permit: permit, Handler: p.cmdMute},
		{Name: "unmute", Arity: 1, Usage: "!unmute <index|#id>", Permit: permit, Handler: p.cmdUnmute},
		{Name: "clearmutes", Arity: 0, Usage: "!clearmutes", Permit: permit, Handler: p.cmdClearMutes},
		{Name: "mutelist", Arity: 0, Usage: "!mutelist", Permit: permit, Handler: p.cmdMuteList},
	}
}

// IsMuted reports whether the player's identity is on the mute list.
// Exported for other plugins that need mute status without a chat event.
func (p *Plugin) IsMuted(player *domain.Player) bool {
	return player != nil && p.store.Has(player.Auth)
}

// OnChat suppresses messages from muted identities and tells the sender
// why, privately. Non-muted senders pass through untouched.
func (p *Plugin) OnChat(sender *domain.Player, _ string) core.ChatVerdict {
	verdict := p.policy.Verdict(sender)
	if verdict == core.VerdictSuppress {
		p.out.Whisper(sender.ID, p.cfg.MuteMessage)
	}
	return verdict
}

func (p *Plugin) OnPersist() (string, error) { return p.store.Serialize() }

func (p *Plugin) OnRestore(blob *string) error { return p.store.Restore(blob) }

func (p *Plugin) OnPlayerJoin(*domain.Player) {}

func (p *Plugin) OnPlayerLeave(*domain.Player) {}

func (p *Plugin) OnAdminChange(*domain.Player) {}

func (p *Plugin) cmdMute(actor *domain.Player, args []string) {
	if !p.gate.CanRunCommand(actor) {
		return
	}
	raw := args[0]
	target := p.lookup(raw)
	if target == nil {
		p.out.Whisper(actor.ID, fmt.Sprintf("No player with id %s", raw))
		return
	}
	if p.gate.IsProtected(target) {
		p.out.Whisper(actor.ID, "This player has immunity for mutes.")
		return
	}
	p.store.Add(target.Auth, domain.Snapshot{Name: target.Name, ID: target.ID})
	log.Info().Str("module", "mutes").Str("target", target.Name).Int("id", int(target.ID)).Msg("player muted")
	p.out.Whisper(actor.ID, fmt.Sprintf("Muted %s.", target.Name))
	p.out.Whisper(target.ID, "You have been muted.")
}

func (p *Plugin) cmdUnmute(actor *domain.Player, args []string) {
	if !p.gate.CanRunCommand(actor) {
		return
	}
	raw := args[0]
	entry, removed := p.remove(raw)
	if !removed {
		p.out.Whisper(actor.ID, fmt.Sprintf("Could not unmute %s! Use an index from !mutelist or #<player id>.", raw))
		return
	}
	log.Info().Str("module", "mutes").Str("target", entry.Snapshot.Name).Msg("player unmuted")
	p.out.Whisper(actor.ID, fmt.Sprintf("Unmuted %s.", entry.Snapshot.Name))
	if current, ok := p.resolveCurrent(entry.Auth); ok {
		p.out.Whisper(current.ID, "You have been unmuted.")
	}
}

func (p *Plugin) cmdClearMutes(actor *domain.Player, _ []string) {
	if !p.gate.CanRunCommand(actor) {
		return
	}
	p.store.Clear()
	log.Info().Str("module", "mutes").Msg("mute list cleared")
	p.out.Announce("All mutes have been cleared.")
}

func (p *Plugin) cmdMuteList(actor *domain.Player, _ []string) {
	if !p.gate.CanRunCommand(actor) {
		return
	}
	entries := p.store.ListOrdered()
	if len(entries) == 0 {
		p.out.Whisper(actor.ID, "No muted players.")
		return
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d — %s", i, e.Snapshot.Name))
	}
	p.out.WhisperLong(actor.ID, lines)
}

// lookup resolves a mute target currently in the room from a raw
// identifier ("12" or "#12").
func (p *Plugin) lookup(raw string) *domain.Player {
	id, ok := ParseIdentifier(raw)
	if !ok || p.dir == nil {
		return nil
	}
	target, ok := p.dir.PlayerByID(id)
	if !ok {
		return nil
	}
	return target
}

// remove interprets the unmute argument: "#id" targets the identity of an
// in-room player, a bare number is an index into the current list.
func (p *Plugin) remove(raw string) (Entry, bool) {
	if strings.HasPrefix(raw, "#") {
		target := p.lookup(raw)
		if target == nil {
			return Entry{}, false
		}
		return p.store.RemoveByIdentity(target.Auth)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return Entry{}, false
	}
	return p.store.RemoveByIndex(idx)
}

// resolveCurrent scans the room for a live player carrying the identity,
// so an unmuted player who is still around gets told.
func (p *Plugin) resolveCurrent(auth domain.Auth) (*domain.Player, bool) {
	if p.dir == nil {
		return nil, false
	}
	return p.dir.PlayerByAuth(auth)
}
