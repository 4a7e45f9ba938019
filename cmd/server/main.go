package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/adapters/chatws"
	"github.com/dkeye/Warden/internal/adapters/storage"
	"github.com/dkeye/Warden/internal/app"
	"github.com/dkeye/Warden/internal/app/failover"
	"github.com/dkeye/Warden/internal/app/mutes"
	"github.com/dkeye/Warden/internal/config"
	"github.com/dkeye/Warden/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	blobs, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open state store")
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			log.Error().Err(err).Msg("close state store")
		}
	}()

	room := app.NewRoom(cfg.RoomName)
	defer room.Close()

	grants := make(map[domain.Auth][]string, len(cfg.RoleGrants))
	for auth, roles := range cfg.RoleGrants {
		grants[domain.Auth(auth)] = roles
	}
	// The directory, announcer, and granter handles run on the room's
	// event loop; the role service and plugins are only ever called there.
	dir := room.Directory()
	roles := app.NewRoomRoles(dir, grants)
	room.SetHostPermit(func(actor *domain.Player) bool {
		return roles.HasRole(actor.Auth, "host")
	})

	muter := mutes.New(mutes.Config{
		MuteMessage:             cfg.MuteMessage,
		AllowedRoles:            cfg.AllowedRoles,
		ProtectedRoles:          cfg.ProtectedRoles,
		AllowTalkingWhenCaptain: cfg.AllowTalkingWhenCaptain,
	}, dir, roles, room.Announcer(), func(blob string) error {
		return blobs.SaveBlob("mutes", blob)
	})

	if err := room.RegisterPlugin(muter); err != nil {
		log.Fatal().Err(err).Msg("register mutes plugin")
	}
	if err := room.RegisterPlugin(failover.New(dir, room.Granter(), room.Announcer())); err != nil {
		log.Fatal().Err(err).Msg("register failover plugin")
	}
	room.RestoreAll(blobs)

	ctl := chatws.NewController(room, cfg)
	r := chatws.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("room", cfg.RoomName).Msg("Warden server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	room.PersistAll(blobs)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
