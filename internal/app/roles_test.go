package app

import (
	"testing"

	"github.com/dkeye/Warden/internal/domain"
)

func TestRoomRolesFromPlayerState(t *testing.T) {
	r := newTestRoom(t)
	roles := NewRoomRoles(r.Directory(), nil)

	a, _ := join(t, r, "Alice", "a")
	if !roles.HasRole("a", RolePlayer) {
		t.Fatal("in-room identity should hold player")
	}
	if roles.HasRole("a", RoleAdmin) {
		t.Fatal("non-admin should not hold admin")
	}

	r.SetAdmin(a.ID, true)
	if !roles.HasRole("a", RoleAdmin) {
		t.Fatal("admin flag should grant admin role")
	}

	r.Leave(a.ID)
	if roles.HasRole("a", RolePlayer) {
		t.Fatal("departed identity should hold nothing")
	}
}

func TestRoomRolesStaticGrants(t *testing.T) {
	r := newTestRoom(t)
	roles := NewRoomRoles(r.Directory(), map[domain.Auth][]string{"h": {"host"}})

	if !roles.HasRole("h", "host") {
		t.Fatal("granted role should hold even out of room")
	}
	if !roles.HasAnyRole("h", []string{"admin", "host"}) {
		t.Fatal("HasAnyRole should find the grant")
	}
	if roles.HasAnyRole("h", []string{"admin"}) {
		t.Fatal("grant should not imply other roles")
	}
}
