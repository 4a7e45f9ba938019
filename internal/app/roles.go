package app

import (
	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// RoomRoles answers role queries from live player state plus static
// per-identity grants: everyone in the room holds "player", admins hold
// "admin", and configuration may grant extra roles to known identities.
// It reads through a loop-context directory handle, so queries belong on
// the room's event loop (command gates, the host permit).
type RoomRoles struct {
	dir    core.PlayerDirectory
	grants map[domain.Auth][]string
}

func NewRoomRoles(dir core.PlayerDirectory, grants map[domain.Auth][]string) *RoomRoles {
	return &RoomRoles{dir: dir, grants: grants}
}

func (r *RoomRoles) HasRole(auth domain.Auth, role string) bool {
	if p, in := r.dir.PlayerByAuth(auth); in {
		if role == RolePlayer {
			return true
		}
		if role == RoleAdmin && p.Admin {
			return true
		}
	}
	for _, g := range r.grants[auth] {
		if g == role {
			return true
		}
	}
	return false
}

func (r *RoomRoles) HasAnyRole(auth domain.Auth, roles []string) bool {
	for _, role := range roles {
		if r.HasRole(auth, role) {
			return true
		}
	}
	return false
}
