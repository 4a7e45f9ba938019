// Package failover auto-promotes a player to room admin whenever the
// room would otherwise be left without one.
package failover

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

// Plugin re-applies one idempotent rule on player leave and on admin
// change: if nobody in a non-empty room is admin, the earliest-joined
// player becomes one.
type Plugin struct {
	core.NopHooks
	dir core.PlayerDirectory
	adm core.AdminGranter
	out core.Announcer
}

func New(dir core.PlayerDirectory, adm core.AdminGranter, out core.Announcer) *Plugin {
	return &Plugin{dir: dir, adm: adm, out: out}
}

func (p *Plugin) Name() string { return "failover" }

func (p *Plugin) OnPlayerLeave(*domain.Player) { p.ensureAdmin() }

func (p *Plugin) OnAdminChange(*domain.Player) { p.ensureAdmin() }

func (p *Plugin) ensureAdmin() {
	players := p.dir.Players()
	if len(players) == 0 {
		return
	}
	for _, pl := range players {
		if pl.Admin {
			return
		}
	}
	first := players[0]
	// SetAdmin re-enters via OnAdminChange; the admin it just created
	// makes that pass a no-op.
	if p.adm.SetAdmin(first.ID, true) {
		log.Info().Str("module", "failover").Str("player", first.Name).Msg("promoted to admin")
		p.out.Announce(fmt.Sprintf("%s is now a room admin.", first.Name))
	}
}
