// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 36

var (
	ErrNameTooLong = errors.New("player name too long")
	ErrNameEmpty   = errors.New("player name empty")
)

// PlayerID is the transient in-room numeric id. It is assigned on join and
// never reused within a room lifetime.
type PlayerID int

// Auth is the stable per-connection identity token. It outlives the
// PlayerID: the same client reconnecting, or the room restarting, keeps
// its Auth.
type Auth string

type Player struct {
	ID    PlayerID `json:"id"`
	Name  string   `json:"name"`
	Team  Team     `json:"team"`
	Admin bool     `json:"admin"`
	Auth  Auth     `json:"-"`
}

// NewPlayer is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewPlayer(id PlayerID, name string, auth Auth) (*Player, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Player{ID: id, Name: name, Team: TeamSpectators, Auth: auth}, nil
}

func (p *Player) SetName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	p.Name = name
	return nil
}

// Snapshot freezes the public attributes of a player at the moment an
// action was taken against them, so they can still be displayed after
// the player leaves.
type Snapshot struct {
	Name string   `json:"name"`
	ID   PlayerID `json:"id"`
}
