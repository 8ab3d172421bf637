// Package http wires the request/response surface and the WebSocket
// upgrade endpoint into a gin engine.
package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/adapters/signal"
	"github.com/peercall/peercall/internal/auth"
	"github.com/peercall/peercall/internal/config"
	"github.com/peercall/peercall/internal/service"
)

func SetupRouter(ctx context.Context, cfg *config.Config, rooms *service.RoomService, sigCtl *signal.Controller, verifier auth.Verifier) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	h := NewRoomHandler(rooms)
	api := r.Group("/api")

	// Public lookups: anyone with a link or code can inspect a room.
	api.GET("/rooms/:id", h.GetRoom)
	api.GET("/rooms/code/:code", h.GetRoomByCode)

	authed := api.Group("", Auth(verifier))
	authed.POST("/rooms", h.CreateRoom)
	authed.POST("/rooms/join", h.JoinRoom)
	authed.GET("/my-rooms", h.MyRooms)
	authed.PUT("/rooms/:id/leave", h.LeaveRoom)
	authed.DELETE("/rooms/:id", h.EndRoom)

	authed.GET("/ws/signal", func(c *gin.Context) {
		sigCtl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
