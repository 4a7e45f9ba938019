package chatws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/app"
	"github.com/dkeye/Warden/internal/config"
	"github.com/dkeye/Warden/internal/domain"
)

const sendBuffer = 32

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller bridges websocket sessions and the room. Permission checks
// for host controls live in the room, not here.
type Controller struct {
	Room *app.Room
	Cfg  *config.Config
}

func NewController(room *app.Room, cfg *config.Config) *Controller {
	return &Controller{Room: room, Cfg: cfg}
}

// HandleChat upgrades the request and runs the connection's pumps. The
// player is admitted on their join envelope and removed when the socket
// goes away.
func (ctl *Controller) HandleChat(ctx context.Context, c *gin.Context) {
	auth := domain.Auth(c.GetString(identityKey))
	log.Info().Str("module", "chatws").Str("auth", string(auth)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chatws").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := newWSConn(ws, sendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go ctl.writePump(ctx, conn)
	ctl.readPump(ctx, auth, conn)
}

// handleEnvelope routes one decoded client payload. It returns the
// player admitted by a join envelope so readPump can track the session.
func (ctl *Controller) handleEnvelope(auth domain.Auth, conn *wsConn, player *domain.Player, data []byte) *domain.Player {
	var env inEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "chatws").Msg("bad json")
		ctl.sendError(conn, "bad_payload")
		return player
	}

	switch env.Type {
	case "join":
		if player != nil {
			ctl.sendError(conn, "already_joined")
			return player
		}
		joined, err := ctl.Room.Join(env.Name, auth, conn)
		if err != nil {
			log.Warn().Err(err).Str("module", "chatws").Str("auth", string(auth)).Msg("join rejected")
			ctl.sendError(conn, err.Error())
			return nil
		}
		ctl.sendJSON(conn, outEnvelope{Type: "joined", Player: &joined})
		return &joined
	case "chat":
		if player == nil {
			ctl.sendError(conn, "join first")
			return nil
		}
		// The room consumes the verdict: Allow broadcast, Suppress drop
		// plus the mute notice. Nothing is forwarded from here.
		ctl.Room.Chat(player.ID, env.Text)
	case "name":
		if player == nil {
			ctl.sendError(conn, "join first")
			return nil
		}
		if err := ctl.Room.Rename(player.ID, env.Name); err != nil {
			ctl.sendError(conn, err.Error())
		}
	case "team":
		if player == nil {
			ctl.sendError(conn, "join first")
			return nil
		}
		ctl.Room.SetTeamBy(player.ID, env.ID, env.Team)
	case "admin":
		if player == nil {
			ctl.sendError(conn, "join first")
			return nil
		}
		ctl.Room.SetAdminBy(player.ID, env.ID, env.Admin)
	case "ping":
		ctl.sendJSON(conn, outEnvelope{Type: "pong"})
	default:
		ctl.sendError(conn, "unknown_type")
	}
	return player
}

func (ctl *Controller) sendJSON(conn *wsConn, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "chatws").Msg("marshal outbound")
		return
	}
	if err := conn.trySendRaw(payload); err != nil {
		log.Warn().Err(err).Str("module", "chatws").Msg("outbound dropped")
	}
}

func (ctl *Controller) sendError(conn *wsConn, msg string) {
	ctl.sendJSON(conn, outEnvelope{Type: "error", Error: msg})
}
