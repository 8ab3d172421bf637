// Package worker runs the asynq consumer for background room tasks.
package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/service"
	"github.com/peercall/peercall/internal/tasks"
)

type Server struct {
	server *asynq.Server
	rooms  *service.RoomService
	reg    *registry.Registry
}

func NewServer(redisOpt asynq.RedisClientOpt, rooms *service.RoomService, reg *registry.Registry) *Server {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			log.Error().Err(err).Str("module", "worker").Str("task_type", task.Type()).Int("retries", retried).Msg("task failed")
		}),
	})
	return &Server{server: server, rooms: rooms, reg: reg}
}

// Start launches the consumer; call from its own goroutine.
func (w *Server) Start() {
	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRoomReap, NewReapHandler(w.rooms, w.reg))

	log.Info().Str("module", "worker").Msg("worker server starting")
	if err := w.server.Run(mux); err != nil {
		log.Error().Err(err).Str("module", "worker").Msg("worker server stopped")
	}
}

func (w *Server) Shutdown() {
	w.server.Shutdown()
}
