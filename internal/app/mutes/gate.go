package mutes

import (
	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

// Gate decides who may run mute commands and who is immune to them.
type Gate struct {
	roles     core.RoleService
	allowed   []string
	protected []string
}

func NewGate(roles core.RoleService, allowed, protected []string) *Gate {
	return &Gate{roles: roles, allowed: allowed, protected: protected}
}

// CanRunCommand fails closed: a missing role service or an empty
// allowed-roles list means nobody runs anything.
func (g *Gate) CanRunCommand(actor *domain.Player) bool {
	if actor == nil || g.roles == nil || len(g.allowed) == 0 {
		return false
	}
	return g.roles.HasAnyRole(actor.Auth, g.allowed)
}

// IsProtected defaults open: with no protected roles configured (or no
// role service) nobody is immune. Hosts wanting default immunity must
// configure it explicitly.
func (g *Gate) IsProtected(target *domain.Player) bool {
	if target == nil || g.roles == nil || len(g.protected) == 0 {
		return false
	}
	return g.roles.HasAnyRole(target.Auth, g.protected)
}
