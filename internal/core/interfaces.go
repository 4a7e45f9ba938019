package core

import "github.com/dkeye/Warden/internal/domain"

// Frame is a raw outbound payload (a rendered chat line or notice).
type Frame []byte

// Conn abstracts a player's messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// PlayerDirectory is the read side of the room's membership set.
// All slices are in join order.
type PlayerDirectory interface {
	PlayerByID(id domain.PlayerID) (*domain.Player, bool)
	PlayerByAuth(auth domain.Auth) (*domain.Player, bool)
	Players() []*domain.Player
	TeamRoster(team domain.Team) []*domain.Player
}

// RoleService answers role-membership queries. Only the query contract
// lives here; how roles are granted is the host's business.
type RoleService interface {
	HasRole(auth domain.Auth, role string) bool
	HasAnyRole(auth domain.Auth, roles []string) bool
}

// Announcer delivers room text to players. WhisperLong is the
// long-message path: it chunks many lines into bounded sends.
type Announcer interface {
	Announce(msg string)
	Whisper(to domain.PlayerID, msg string)
	WhisperLong(to domain.PlayerID, lines []string)
}

// AdminGranter lets a plugin flip a player's admin flag through the room.
type AdminGranter interface {
	SetAdmin(id domain.PlayerID, admin bool) bool
}

// BlobStore persists one opaque blob per plugin name.
// LoadBlob returns nil when nothing was ever stored under that name.
type BlobStore interface {
	SaveBlob(name, blob string) error
	LoadBlob(name string) (*string, error)
}
