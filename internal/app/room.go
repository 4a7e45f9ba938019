// Package app owns the room: its membership set, team rosters, the chat
// pipeline, and plugin dispatch.
package app

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

var (
	ErrAlreadyConnected = errors.New("identity already connected")
	ErrNotInRoom        = errors.New("player not in room")
	ErrRoomClosed       = errors.New("room closed")
)

// whisperChunk bounds how many lines one long-message send carries.
const whisperChunk = 10

type session struct {
	player *domain.Player
	conn   core.Conn
}

// Room serializes every event through one owned loop goroutine: each
// mutation and the plugin hooks it triggers run to completion before the
// next event starts, so hooks observe exactly the state left by the
// previous event. It never closes adapter-owned connections.
type Room struct {
	events    chan func()
	quit      chan struct{}
	closeOnce sync.Once
	state     *state
}

// state is the loop-owned room data. Its methods assume loop context:
// they are called by the loop itself and by plugin hooks running on it.
type state struct {
	name     string
	commands *Dispatcher
	permit   func(actor *domain.Player) bool

	nextID  domain.PlayerID
	order   []domain.PlayerID
	byID    map[domain.PlayerID]*session
	byAuth  map[domain.Auth]domain.PlayerID
	rosters map[domain.Team][]domain.PlayerID
	plugins []core.Plugin
}

func NewRoom(name string) *Room {
	r := &Room{
		events: make(chan func()),
		quit:   make(chan struct{}),
		state: &state{
			name:     name,
			commands: NewDispatcher(),
			byID:     make(map[domain.PlayerID]*session),
			byAuth:   make(map[domain.Auth]domain.PlayerID),
			rosters:  make(map[domain.Team][]domain.PlayerID),
		},
	}
	go r.loop()
	return r
}

func (r *Room) loop() {
	for {
		select {
		case job := <-r.events:
			job()
		case <-r.quit:
			return
		}
	}
}

// do runs fn on the event loop and waits for it. After Close it becomes
// a no-op so late transport callbacks cannot hang.
func (r *Room) do(fn func()) {
	done := make(chan struct{})
	select {
	case r.events <- func() { fn(); close(done) }:
		select {
		case <-done:
		case <-r.quit:
		}
	case <-r.quit:
	}
}

// Close stops the event loop. Pending callers unblock without effect.
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.quit) })
}

// Directory, Announcer, and Granter are the loop-context handles plugins
// and the role service are wired with. They bypass the event queue and
// are only safe inside plugin hooks or anything else already running on
// the loop.
func (r *Room) Directory() core.PlayerDirectory { return r.state }

func (r *Room) Announcer() core.Announcer { return r.state }

func (r *Room) Granter() core.AdminGranter { return r.state }

// SetHostPermit installs an extra grant path for the transport's host
// controls (team and admin envelopes). Room admins are always permitted.
// The permit runs on the event loop and may use loop-context handles.
func (r *Room) SetHostPermit(permit func(actor *domain.Player) bool) {
	r.do(func() { r.state.permit = permit })
}

// RegisterPlugin adds a plugin and its command table. Registration
// happens at startup, before any connection, and fails fast on a bad
// table.
func (r *Room) RegisterPlugin(p core.Plugin) error {
	err := ErrRoomClosed
	r.do(func() { err = r.state.registerPlugin(p) })
	return err
}

// Join admits a player and returns a value snapshot of them; the room
// keeps the live record.
func (r *Room) Join(name string, auth domain.Auth, conn core.Conn) (domain.Player, error) {
	var joined domain.Player
	err := ErrRoomClosed
	r.do(func() { joined, err = r.state.join(name, auth, conn) })
	return joined, err
}

// Leave removes the player. The adapter owns the connection and closes it.
func (r *Room) Leave(id domain.PlayerID) {
	r.do(func() { r.state.leave(id) })
}

// Chat is the single entry point for player input.
func (r *Room) Chat(id domain.PlayerID, msg string) core.ChatVerdict {
	verdict := core.VerdictSuppress
	r.do(func() { verdict = r.state.chat(id, msg) })
	return verdict
}

// Rename changes a player's display name and announces it.
func (r *Room) Rename(id domain.PlayerID, name string) error {
	err := ErrRoomClosed
	r.do(func() { err = r.state.rename(id, name) })
	return err
}

func (r *Room) SetTeam(id domain.PlayerID, team domain.Team) bool {
	var moved bool
	r.do(func() { moved = r.state.setTeam(id, team) })
	return moved
}

func (r *Room) SetAdmin(id domain.PlayerID, admin bool) bool {
	var changed bool
	r.do(func() { changed = r.state.SetAdmin(id, admin) })
	return changed
}

// SetTeamBy and SetAdminBy are the transport-facing host controls: the
// acting player must be a room admin or pass the installed host permit.
func (r *Room) SetTeamBy(actor, target domain.PlayerID, team domain.Team) bool {
	var moved bool
	r.do(func() {
		if r.state.hostPermitted(actor) {
			moved = r.state.setTeam(target, team)
		}
	})
	return moved
}

func (r *Room) SetAdminBy(actor, target domain.PlayerID, admin bool) bool {
	var changed bool
	r.do(func() {
		if r.state.hostPermitted(actor) {
			changed = r.state.SetAdmin(target, admin)
		}
	})
	return changed
}

func (r *Room) Announce(msg string) {
	r.do(func() { r.state.Announce(msg) })
}

func (r *Room) Whisper(to domain.PlayerID, msg string) {
	r.do(func() { r.state.Whisper(to, msg) })
}

func (r *Room) WhisperLong(to domain.PlayerID, lines []string) {
	r.do(func() { r.state.WhisperLong(to, lines) })
}

// Players returns a value snapshot in join order, safe to use off the
// loop.
func (r *Room) Players() []domain.Player {
	var out []domain.Player
	r.do(func() {
		for _, p := range r.state.Players() {
			out = append(out, *p)
		}
	})
	return out
}

// TeamRoster returns a value snapshot of the team in roster order.
func (r *Room) TeamRoster(team domain.Team) []domain.Player {
	var out []domain.Player
	r.do(func() {
		for _, p := range r.state.TeamRoster(team) {
			out = append(out, *p)
		}
	})
	return out
}

func (r *Room) PlayerByID(id domain.PlayerID) (domain.Player, bool) {
	var p domain.Player
	var ok bool
	r.do(func() {
		if live, found := r.state.PlayerByID(id); found {
			p, ok = *live, true
		}
	})
	return p, ok
}

// RestoreAll replays persisted state into every plugin. A corrupt blob is
// logged and the plugin starts clean; the room always comes up.
func (r *Room) RestoreAll(store core.BlobStore) {
	r.do(func() { r.state.restoreAll(store) })
}

// PersistAll captures every plugin's state, typically at shutdown. The
// plugins also write through on each mutation, so this is a backstop.
func (r *Room) PersistAll(store core.BlobStore) {
	r.do(func() { r.state.persistAll(store) })
}

func (s *state) registerPlugin(p core.Plugin) error {
	if err := s.commands.Register(p.Commands()); err != nil {
		return fmt.Errorf("register plugin %q: %w", p.Name(), err)
	}
	s.plugins = append(s.plugins, p)
	log.Info().Str("module", "app.room").Str("plugin", p.Name()).Msg("plugin registered")
	return nil
}

func (s *state) join(name string, auth domain.Auth, conn core.Conn) (domain.Player, error) {
	if _, ok := s.byAuth[auth]; ok {
		return domain.Player{}, ErrAlreadyConnected
	}
	player, err := domain.NewPlayer(s.nextID, name, auth)
	if err != nil {
		return domain.Player{}, err
	}
	s.nextID++
	s.byID[player.ID] = &session{player: player, conn: conn}
	s.byAuth[auth] = player.ID
	s.order = append(s.order, player.ID)
	s.rosters[domain.TeamSpectators] = append(s.rosters[domain.TeamSpectators], player.ID)

	log.Info().Str("module", "app.room").Str("player", player.Name).Int("id", int(player.ID)).Msg("player joined")
	for _, pl := range s.plugins {
		pl.OnPlayerJoin(player)
	}
	s.Announce(fmt.Sprintf("%s joined the room.", player.Name))
	return *player, nil
}

func (s *state) leave(id domain.PlayerID) {
	sess, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	delete(s.byAuth, sess.player.Auth)
	s.order = removeID(s.order, id)
	s.rosters[sess.player.Team] = removeID(s.rosters[sess.player.Team], id)

	log.Info().Str("module", "app.room").Str("player", sess.player.Name).Int("id", int(id)).Msg("player left")
	s.Announce(fmt.Sprintf("%s left the room.", sess.player.Name))
	for _, pl := range s.plugins {
		pl.OnPlayerLeave(sess.player)
	}
}

// chat routes command lines to the dispatcher (never broadcast) and runs
// everything else through the plugins' chat hooks; one Suppress verdict
// drops the message.
func (s *state) chat(id domain.PlayerID, msg string) core.ChatVerdict {
	sess, ok := s.byID[id]
	if !ok {
		return core.VerdictSuppress
	}
	if strings.HasPrefix(msg, CommandPrefix) {
		if reply := s.commands.Dispatch(sess.player, msg); reply != "" {
			s.Whisper(id, reply)
		}
		return core.VerdictSuppress
	}
	for _, pl := range s.plugins {
		if pl.OnChat(sess.player, msg) == core.VerdictSuppress {
			log.Debug().Str("module", "app.room").Str("player", sess.player.Name).Msg("chat suppressed")
			return core.VerdictSuppress
		}
	}
	s.broadcast(fmt.Sprintf("%s: %s", sess.player.Name, msg))
	return core.VerdictAllow
}

func (s *state) rename(id domain.PlayerID, name string) error {
	sess, ok := s.byID[id]
	if !ok {
		return ErrNotInRoom
	}
	old := sess.player.Name
	if err := sess.player.SetName(name); err != nil {
		return err
	}
	log.Info().Str("module", "app.room").Str("from", old).Str("to", name).Msg("player renamed")
	s.Announce(fmt.Sprintf("%s is now known as %s.", old, name))
	return nil
}

// setTeam moves a player to the end of the target team's roster.
func (s *state) setTeam(id domain.PlayerID, team domain.Team) bool {
	sess, ok := s.byID[id]
	if !ok || sess.player.Team == team {
		return false
	}
	s.rosters[sess.player.Team] = removeID(s.rosters[sess.player.Team], id)
	s.rosters[team] = append(s.rosters[team], id)
	sess.player.Team = team
	s.Announce(fmt.Sprintf("%s moved to %s.", sess.player.Name, team))
	return true
}

// SetAdmin flips the admin flag and notifies plugins. Hooks run inline;
// re-entry from a hook is plain recursion on the loop.
func (s *state) SetAdmin(id domain.PlayerID, admin bool) bool {
	sess, ok := s.byID[id]
	if !ok || sess.player.Admin == admin {
		return false
	}
	sess.player.Admin = admin
	for _, pl := range s.plugins {
		pl.OnAdminChange(sess.player)
	}
	return true
}

func (s *state) hostPermitted(actor domain.PlayerID) bool {
	sess, ok := s.byID[actor]
	if !ok {
		return false
	}
	if sess.player.Admin {
		return true
	}
	return s.permit != nil && s.permit(sess.player)
}

func (s *state) Announce(msg string) {
	s.broadcast(msg)
}

func (s *state) Whisper(to domain.PlayerID, msg string) {
	sess, ok := s.byID[to]
	if !ok {
		return
	}
	if err := sess.conn.TrySend(core.Frame(msg)); err != nil {
		log.Warn().Err(err).Str("module", "app.room").Int("id", int(to)).Msg("whisper dropped")
	}
}

// WhisperLong chunks lines into bounded messages so long renderings
// (like the mute list) fit the transport's frame limits.
func (s *state) WhisperLong(to domain.PlayerID, lines []string) {
	for start := 0; start < len(lines); start += whisperChunk {
		end := min(start+whisperChunk, len(lines))
		s.Whisper(to, strings.Join(lines[start:end], "\n"))
	}
}

func (s *state) PlayerByID(id domain.PlayerID) (*domain.Player, bool) {
	sess, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return sess.player, true
}

func (s *state) PlayerByAuth(auth domain.Auth) (*domain.Player, bool) {
	id, ok := s.byAuth[auth]
	if !ok {
		return nil, false
	}
	return s.byID[id].player, true
}

func (s *state) Players() []*domain.Player {
	out := make([]*domain.Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].player)
	}
	return out
}

func (s *state) TeamRoster(team domain.Team) []*domain.Player {
	ids := s.rosters[team]
	out := make([]*domain.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].player)
	}
	return out
}

func (s *state) restoreAll(store core.BlobStore) {
	for _, pl := range s.plugins {
		blob, err := store.LoadBlob(pl.Name())
		if err != nil {
			log.Error().Err(err).Str("module", "app.room").Str("plugin", pl.Name()).Msg("load persisted state")
			continue
		}
		if err := pl.OnRestore(blob); err != nil {
			log.Error().Err(err).Str("module", "app.room").Str("plugin", pl.Name()).Msg("restore persisted state")
		}
	}
}

func (s *state) persistAll(store core.BlobStore) {
	for _, pl := range s.plugins {
		blob, err := pl.OnPersist()
		if err != nil {
			log.Error().Err(err).Str("module", "app.room").Str("plugin", pl.Name()).Msg("capture state")
			continue
		}
		if err := store.SaveBlob(pl.Name(), blob); err != nil {
			log.Error().Err(err).Str("module", "app.room").Str("plugin", pl.Name()).Msg("save state")
		}
	}
}

func (s *state) broadcast(msg string) {
	for _, id := range s.order {
		if err := s.byID[id].conn.TrySend(core.Frame(msg)); err != nil {
			log.Warn().Err(err).Str("module", "app.room").Int("id", int(id)).Msg("broadcast send dropped")
		}
	}
}

func removeID(ids []domain.PlayerID, id domain.PlayerID) []domain.PlayerID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
