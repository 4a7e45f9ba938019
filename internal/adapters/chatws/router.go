package chatws

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/config"
)

const identityKey = "identity_token"

// IdentityTokenMiddleware pins a stable identity token to the client via
// cookie. The token is what the mute list is keyed by, so it must
// survive reconnects and room restarts.
func IdentityTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("wid")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("wid", token, 3600*24*365, "/", "", false, true)
		}
		c.Set(identityKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("WardenSessions", store))
	r.Use(IdentityTokenMiddleware())

	api := r.Group("/api")

	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "chatws").Str("auth", c.GetString(identityKey)).Msg("ws chat endpoint hit")
		ctl.HandleChat(ctx, c)
	})

	api.GET("/room", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    cfg.RoomName,
			"players": ctl.Room.Players(),
		})
	})

	log.Info().Str("module", "chatws").Str("room", cfg.RoomName).Msg("router setup")
	return r
}
