package app

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dkeye/Warden/internal/app/mutes"
	"github.com/dkeye/Warden/internal/core"
	"github.com/dkeye/Warden/internal/domain"
)

type fakeConn struct {
	frames []string
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.frames = append(c.frames, string(f))
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) contains(sub string) bool {
	for _, f := range c.frames {
		if strings.Contains(f, sub) {
			return true
		}
	}
	return false
}

type recorderPlugin struct {
	core.NopHooks
	verdict core.ChatVerdict
	chats   []string
	left    []domain.PlayerID
}

func (r *recorderPlugin) Name() string { return "recorder" }

func (r *recorderPlugin) OnChat(_ *domain.Player, msg string) core.ChatVerdict {
	r.chats = append(r.chats, msg)
	return r.verdict
}

func (r *recorderPlugin) OnPlayerLeave(p *domain.Player) {
	r.left = append(r.left, p.ID)
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom("test")
	t.Cleanup(r.Close)
	return r
}

func join(t *testing.T, r *Room, name, auth string) (domain.Player, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	p, err := r.Join(name, domain.Auth(auth), conn)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p, conn
}

func TestRoomJoinAssignsSequentialIDs(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	b, _ := join(t, r, "Bob", "b")

	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}
	players := r.Players()
	if len(players) != 2 || players[0].ID != a.ID || players[1].ID != b.ID {
		t.Fatalf("join order broken: %v", players)
	}
}

func TestRoomRejectsDuplicateIdentity(t *testing.T) {
	r := newTestRoom(t)
	join(t, r, "Alice", "a")
	if _, err := r.Join("Alias", "a", &fakeConn{}); err == nil {
		t.Fatal("expected duplicate identity rejection")
	}
}

func TestRoomIDsAreNotReused(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	r.Leave(a.ID)
	b, _ := join(t, r, "Bob", "b")
	if b.ID != 1 {
		t.Fatalf("id reused: %d", b.ID)
	}
}

func TestRoomTeamRosterOrder(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	b, _ := join(t, r, "Bob", "b")
	c, _ := join(t, r, "Cleo", "c")

	r.SetTeam(b.ID, domain.TeamRed)
	r.SetTeam(a.ID, domain.TeamRed)
	r.SetTeam(c.ID, domain.TeamRed)

	roster := r.TeamRoster(domain.TeamRed)
	if len(roster) != 3 || roster[0].ID != b.ID || roster[1].ID != a.ID || roster[2].ID != c.ID {
		t.Fatalf("roster order should follow placement, got %v", roster)
	}

	// Leaving and rejoining a team moves a player to the roster's end.
	r.SetTeam(b.ID, domain.TeamBlue)
	r.SetTeam(b.ID, domain.TeamRed)
	roster = r.TeamRoster(domain.TeamRed)
	if roster[len(roster)-1].ID != b.ID {
		t.Fatalf("rejoined player should be last, got %v", roster)
	}
}

func TestRoomChatBroadcastsWhenAllowed(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	_, bobConn := join(t, r, "Bob", "b")

	if r.Chat(a.ID, "hello") != core.VerdictAllow {
		t.Fatal("chat should be allowed")
	}
	if !bobConn.contains("Alice: hello") {
		t.Fatalf("broadcast missing, bob saw %v", bobConn.frames)
	}
}

func TestRoomChatSuppressedByPlugin(t *testing.T) {
	r := newTestRoom(t)
	rec := &recorderPlugin{verdict: core.VerdictSuppress}
	if err := r.RegisterPlugin(rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	a, _ := join(t, r, "Alice", "a")
	_, bobConn := join(t, r, "Bob", "b")

	if r.Chat(a.ID, "spam") != core.VerdictSuppress {
		t.Fatal("expected suppression")
	}
	if bobConn.contains("Alice: spam") {
		t.Fatal("suppressed chat leaked to the room")
	}
	if len(rec.chats) != 1 || rec.chats[0] != "spam" {
		t.Fatalf("hook saw %v", rec.chats)
	}
}

func TestRoomCommandsAreNeverBroadcast(t *testing.T) {
	r := newTestRoom(t)
	rec := &recorderPlugin{verdict: core.VerdictAllow}
	if err := r.RegisterPlugin(rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	a, _ := join(t, r, "Alice", "a")
	_, bobConn := join(t, r, "Bob", "b")

	if r.Chat(a.ID, "!whatever") != core.VerdictSuppress {
		t.Fatal("command lines must not be broadcast")
	}
	if bobConn.contains("!whatever") {
		t.Fatal("command leaked to the room")
	}
	if len(rec.chats) != 0 {
		t.Fatal("command lines must not hit chat hooks")
	}
}

func TestRoomUnknownCommandWhispersActorOnly(t *testing.T) {
	r := newTestRoom(t)
	a, aliceConn := join(t, r, "Alice", "a")
	_, bobConn := join(t, r, "Bob", "b")

	r.Chat(a.ID, "!nothere")

	if !aliceConn.contains("Unknown command: nothere") {
		t.Fatalf("actor reply missing, saw %v", aliceConn.frames)
	}
	if bobConn.contains("Unknown command") {
		t.Fatal("command error leaked to the room")
	}
}

func TestRoomLeaveNotifiesPlugins(t *testing.T) {
	r := newTestRoom(t)
	rec := &recorderPlugin{verdict: core.VerdictAllow}
	if err := r.RegisterPlugin(rec); err != nil {
		t.Fatalf("register: %v", err)
	}
	a, _ := join(t, r, "Alice", "a")
	r.Leave(a.ID)

	if len(rec.left) != 1 || rec.left[0] != a.ID {
		t.Fatalf("leave hook saw %v", rec.left)
	}
	if _, ok := r.PlayerByID(a.ID); ok {
		t.Fatal("player still present after leave")
	}
}

func TestRoomRenameAnnouncesAndValidates(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	_, bobConn := join(t, r, "Bob", "b")

	if err := r.Rename(a.ID, "Alicia"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, ok := r.PlayerByID(a.ID)
	if !ok || got.Name != "Alicia" {
		t.Fatalf("name not updated: %+v", got)
	}
	if !bobConn.contains("Alice is now known as Alicia.") {
		t.Fatalf("rename announcement missing, bob saw %v", bobConn.frames)
	}

	if err := r.Rename(a.ID, ""); err == nil {
		t.Fatal("empty name accepted")
	}
	if err := r.Rename(99, "Ghost"); err == nil {
		t.Fatal("rename of absent player accepted")
	}
}

func TestRoomHostControlsNeedAdminOrPermit(t *testing.T) {
	r := newTestRoom(t)
	a, _ := join(t, r, "Alice", "a")
	b, _ := join(t, r, "Bob", "b")

	if r.SetTeamBy(a.ID, b.ID, domain.TeamRed) {
		t.Fatal("plain player moved someone")
	}
	if r.SetAdminBy(a.ID, b.ID, true) {
		t.Fatal("plain player granted admin")
	}

	r.SetAdmin(a.ID, true)
	if !r.SetTeamBy(a.ID, b.ID, domain.TeamRed) {
		t.Fatal("admin could not move a player")
	}
	r.SetAdmin(a.ID, false)

	r.SetHostPermit(func(actor *domain.Player) bool { return actor.Auth == "a" })
	if !r.SetAdminBy(a.ID, b.ID, true) {
		t.Fatal("permitted host could not grant admin")
	}
	got, _ := r.PlayerByID(b.ID)
	if !got.Admin {
		t.Fatal("admin flag not set")
	}
}

func TestRoomWhisperLongChunks(t *testing.T) {
	r := newTestRoom(t)
	a, conn := join(t, r, "Alice", "a")
	conn.frames = nil

	lines := make([]string, 25)
	for i := range lines {
		lines[i] = "line"
	}
	r.WhisperLong(a.ID, lines)

	if len(conn.frames) != 3 {
		t.Fatalf("expected 3 chunks for 25 lines, got %d", len(conn.frames))
	}
	if got := strings.Count(conn.frames[0], "line"); got != 10 {
		t.Fatalf("first chunk has %d lines", got)
	}
	if got := strings.Count(conn.frames[2], "line"); got != 5 {
		t.Fatalf("last chunk has %d lines", got)
	}
}

func TestRoomClosedIsInert(t *testing.T) {
	r := NewRoom("test")
	r.Close()
	r.Close()

	if _, err := r.Join("Late", "late", &fakeConn{}); err != ErrRoomClosed {
		t.Fatalf("join after close: %v", err)
	}
	if r.Chat(0, "hello") != core.VerdictSuppress {
		t.Fatal("closed room forwarded chat")
	}
}

// End-to-end through the real wiring: room + roles + mutes plugin.
func TestRoomMutePipeline(t *testing.T) {
	r := newTestRoom(t)
	roles := NewRoomRoles(r.Directory(), nil)
	muter := mutes.New(mutes.Config{AllowedRoles: []string{RoleAdmin}}, r.Directory(), roles, r.Announcer(), nil)
	if err := r.RegisterPlugin(muter); err != nil {
		t.Fatalf("register: %v", err)
	}

	admin, _ := join(t, r, "Admin", "adm")
	troll, trollConn := join(t, r, "Troll", "trl")
	_, bobConn := join(t, r, "Bob", "b")
	r.SetAdmin(admin.ID, true)

	r.Chat(admin.ID, "!mute 1")
	if !muter.IsMuted(&troll) {
		t.Fatal("troll not muted")
	}

	if r.Chat(troll.ID, "free speech") != core.VerdictSuppress {
		t.Fatal("muted chat not suppressed")
	}
	if bobConn.contains("free speech") {
		t.Fatal("muted chat leaked")
	}
	if !trollConn.contains(mutes.DefaultMuteMessage) {
		t.Fatalf("mute notice missing, troll saw %v", trollConn.frames)
	}

	// A non-admin cannot run commands and hears nothing back.
	bobFramesBefore := len(bobConn.frames)
	r.Chat(troll.ID, "!clearmutes")
	if muter.IsMuted(&troll) == false {
		t.Fatal("unauthorized clearmutes took effect")
	}
	if len(bobConn.frames) != bobFramesBefore {
		t.Fatal("unauthorized command produced announcements")
	}

	r.Chat(admin.ID, "!unmute #1")
	if muter.IsMuted(&troll) {
		t.Fatal("troll still muted after unmute")
	}
	if r.Chat(troll.ID, "back again") != core.VerdictAllow {
		t.Fatal("unmuted chat suppressed")
	}
}

// Moderation and chat arrive from separate connection goroutines; the
// event loop must serialize them so the mute list and player records
// stay consistent under the race detector.
func TestRoomSerializesConcurrentModeration(t *testing.T) {
	r := newTestRoom(t)
	roles := NewRoomRoles(r.Directory(), nil)
	muter := mutes.New(mutes.Config{AllowedRoles: []string{RoleAdmin}}, r.Directory(), roles, r.Announcer(), nil)
	if err := r.RegisterPlugin(muter); err != nil {
		t.Fatalf("register: %v", err)
	}

	admin, _ := join(t, r, "Admin", "adm")
	troll, _ := join(t, r, "Troll", "trl")
	r.SetAdmin(admin.ID, true)

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			r.Chat(troll.ID, "spam")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			r.Chat(admin.ID, fmt.Sprintf("!mute %d", troll.ID))
			r.Chat(admin.ID, "!unmute #1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			r.Chat(admin.ID, "!mutelist")
			r.Players()
		}
	}()
	wg.Wait()

	if muter.IsMuted(&troll) {
		t.Fatal("final unmute lost")
	}
	if r.Chat(troll.ID, "still here") != core.VerdictAllow {
		t.Fatal("room inconsistent after concurrent moderation")
	}
}
