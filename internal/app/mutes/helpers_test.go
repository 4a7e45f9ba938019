package mutes

import (
	"github.com/dkeye/Warden/internal/domain"
)

type fakeRoles struct {
	roles map[domain.Auth][]string
}

func (f *fakeRoles) HasRole(auth domain.Auth, role string) bool {
	for _, r := range f.roles[auth] {
		if r == role {
			return true
		}
	}
	return false
}

func (f *fakeRoles) HasAnyRole(auth domain.Auth, roles []string) bool {
	for _, r := range roles {
		if f.HasRole(auth, r) {
			return true
		}
	}
	return false
}

type fakeDirectory struct {
	players []*domain.Player
}

func (f *fakeDirectory) PlayerByID(id domain.PlayerID) (*domain.Player, bool) {
	for _, p := range f.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (f *fakeDirectory) PlayerByAuth(auth domain.Auth) (*domain.Player, bool) {
	for _, p := range f.players {
		if p.Auth == auth {
			return p, true
		}
	}
	return nil, false
}

func (f *fakeDirectory) Players() []*domain.Player { return f.players }

func (f *fakeDirectory) TeamRoster(team domain.Team) []*domain.Player {
	var out []*domain.Player
	for _, p := range f.players {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

type fakeAnnouncer struct {
	public   []string
	whispers map[domain.PlayerID][]string
	longs    map[domain.PlayerID][][]string
}

func newFakeAnnouncer() *fakeAnnouncer {
	return &fakeAnnouncer{
		whispers: make(map[domain.PlayerID][]string),
		longs:    make(map[domain.PlayerID][][]string),
	}
}

func (f *fakeAnnouncer) Announce(msg string) { f.public = append(f.public, msg) }

func (f *fakeAnnouncer) Whisper(to domain.PlayerID, msg string) {
	f.whispers[to] = append(f.whispers[to], msg)
}

func (f *fakeAnnouncer) WhisperLong(to domain.PlayerID, lines []string) {
	f.longs[to] = append(f.longs[to], lines)
}

// recordingSink counts write-throughs and keeps the latest blob.
type recordingSink struct {
	calls int
	last  string
}

func (r *recordingSink) sink(blob string) error {
	r.calls++
	r.last = blob
	return nil
}

func player(id int, name string, auth string) *domain.Player {
	return &domain.Player{ID: domain.PlayerID(id), Name: name, Team: domain.TeamSpectators, Auth: domain.Auth(auth)}
}
