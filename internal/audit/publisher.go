// Package audit publishes room lifecycle events for history and
// offline processing. Publishing is best-effort: the call path that
// mutates a room never fails because the audit trail is unavailable.
package audit

import (
	"context"
	"time"

	"github.com/peercall/peercall/internal/domain"
)

const (
	EventRoomCreated     = "room_created"
	EventRoomJoined      = "room_joined"
	EventParticipantLeft = "participant_left"
	EventRoomEnded       = "room_ended"
)

// ActorSystem marks transitions not triggered by a user, such as the
// stale-room reaper.
const ActorSystem = "system"

type Event struct {
	Type     string        `json:"type"`
	RoomID   string        `json:"roomId"`
	RoomCode string        `json:"roomCode,omitempty"`
	Actor    string        `json:"actor"`
	UserID   domain.UserID `json:"userId,omitempty"`
	Status   domain.Status `json:"status"`
	At       time.Time     `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
