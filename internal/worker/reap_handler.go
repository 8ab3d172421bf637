package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/service"
	"github.com/peercall/peercall/internal/tasks"
)

// ReapHandler ends rooms whose grace period expired while nobody was
// connected. A room with any live socket is left alone; the task is
// not re-armed because every later leave schedules a fresh one.
type ReapHandler struct {
	rooms *service.RoomService
	reg   *registry.Registry
}

func NewReapHandler(rooms *service.RoomService, reg *registry.Registry) *ReapHandler {
	return &ReapHandler{rooms: rooms, reg: reg}
}

func (h *ReapHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RoomReapPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("reap: bad payload: %v: %w", err, asynq.SkipRetry)
	}

	room, err := h.rooms.GetByID(ctx, p.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("reap: load room %s: %w", p.RoomID, err)
	}
	if room.Ended() {
		return nil
	}
	if len(h.reg.PeersOfRoom(room.ID)) > 0 {
		log.Debug().Str("module", "worker").Str("room_id", room.ID).Msg("room still has live connections, skipping reap")
		return nil
	}

	if err := h.rooms.EndBySystem(ctx, room.ID); err != nil {
		return fmt.Errorf("reap: end room %s: %w", room.ID, err)
	}
	log.Info().Str("module", "worker").Str("room_id", room.ID).Msg("reaped abandoned room")
	return nil
}
