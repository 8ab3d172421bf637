package signal

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
)

// handleJoinRoom binds the connection to a room the user already holds
// a seat in (the REST join ran the access guard). After this handshake
// the relay trusts the binding and does not re-check membership per
// message.
func (ctl *Controller) handleJoinRoom(sid registry.SocketID, c registry.Conn, env *envelope) {
	if env.RoomID == "" {
		ctl.sendError(c, "roomId required")
		return
	}
	b, ok := ctl.Reg.Lookup(sid)
	if !ok {
		return
	}

	room, err := ctl.Rooms.GetByID(context.Background(), env.RoomID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			ctl.sendError(c, "room not found")
		} else {
			log.Error().Err(err).Str("module", "signal").Str("room_id", env.RoomID).Msg("join-room lookup")
			ctl.sendError(c, "room lookup failed")
		}
		return
	}
	if room.Ended() {
		ctl.sendError(c, "room has ended")
		return
	}
	if b.UserID != room.HostUserID && !room.Participant.HeldBy(b.UserID) {
		ctl.sendError(c, "not a member of this room")
		return
	}

	ctl.Reg.SetRoom(sid, room.ID)

	ctl.sendJSON(c, struct {
		Type     string       `json:"type"`
		RoomID   string       `json:"roomId"`
		SocketID string       `json:"socketId"`
		Room     *domain.Room `json:"room"`
	}{evtJoinedRoom, room.ID, string(sid), room})

	b.RoomID = room.ID
	ctl.relayToRoom(b, struct {
		Type     string        `json:"type"`
		UserID   domain.UserID `json:"userId"`
		SocketID string        `json:"socketId"`
	}{evtUserJoined, b.UserID, string(sid)})

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", room.ID).Int64("user", int64(b.UserID)).Msg("joined room")
}

func (ctl *Controller) handleLeaveRoom(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.Reg.Lookup(sid)
	if !ok || b.RoomID == "" {
		return
	}

	ctl.relayToRoom(b, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
	}{evtUserLeft, b.UserID})
	ctl.Reg.ClearRoom(sid)

	if err := ctl.Rooms.Leave(context.Background(), b.UserID, b.RoomID); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room_id", b.RoomID).Msg("leave-room")
		ctl.sendError(c, "leave failed")
	}
}

// onDisconnect runs exactly once per connection: Remove hands the
// binding out a single time. The registry entry always goes away even
// when the store is unreachable; durable state catches up on re-join.
func (ctl *Controller) onDisconnect(sid registry.SocketID) {
	b, ok := ctl.Reg.Remove(sid)
	if !ok {
		return
	}
	if b.RoomID == "" {
		return
	}

	for _, peer := range ctl.Reg.PeersOfRoom(b.RoomID) {
		ctl.sendJSON(peer.Conn, struct {
			Type   string        `json:"type"`
			UserID domain.UserID `json:"userId"`
		}{evtUserDisconnected, b.UserID})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctl.Rooms.Leave(ctx, b.UserID, b.RoomID); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", b.RoomID).Msg("disconnect cleanup failed")
	}
}
