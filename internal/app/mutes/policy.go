package mutes

import (
	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

// Policy is the per-message chat decision. It is state-free: every call
// reads the store and the current rosters.
type Policy struct {
	store         *Store
	dir           core.PlayerDirectory
	captainExempt bool
}

func NewPolicy(store *Store, dir core.PlayerDirectory, captainExempt bool) *Policy {
	return &Policy{store: store, dir: dir, captainExempt: captainExempt}
}

// Verdict allows chat from anyone not in the store, and from a muted
// captain when the exception is enabled. Everyone else is suppressed.
func (p *Policy) Verdict(sender *domain.Player) core.ChatVerdict {
	if !p.store.Has(sender.Auth) {
		return core.VerdictAllow
	}
	if p.captainExempt && p.isCaptain(sender) {
		return core.VerdictAllow
	}
	return core.VerdictSuppress
}

// isCaptain treats the first-listed player of either team as captain.
// Positional, not a stored role: it shifts as players join, leave, or
// switch teams.
func (p *Policy) isCaptain(sender *domain.Player) bool {
	if p.dir == nil {
		return false
	}
	for _, team := range []domain.Team{domain.TeamRed, domain.TeamBlue} {
		roster := p.dir.TeamRoster(team)
		if len(roster) > 0 && roster[0].Auth == sender.Auth {
			return true
		}
	}
	return false
}
