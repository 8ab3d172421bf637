package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/registry"
)

// forwarded is the shape of every relayed signaling event: the raw
// payload plus the sender's socket id so the receiver can answer
// directly.
type forwarded struct {
	Type         string          `json:"type"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
	FromSocketID string          `json:"fromSocketId"`
}

// handleOffer broadcasts the offer to the other connection(s) of the
// sender's room.
func (ctl *Controller) handleOffer(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.boundSender(sid, c)
	if !ok {
		return
	}
	log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("room_id", b.RoomID).Msg("relay offer")
	ctl.relayToRoom(b, forwarded{Type: typeOffer, Offer: env.Offer, FromSocketID: string(sid)})
}

// handleAnswer goes to the named socket only; the answering side
// learned the offerer's socket id from the forwarded offer.
func (ctl *Controller) handleAnswer(sid registry.SocketID, c registry.Conn, env *envelope) {
	if _, ok := ctl.boundSender(sid, c); !ok {
		return
	}
	if env.TargetSocketID == "" {
		ctl.sendError(c, "targetSocketId required")
		return
	}
	ev := forwarded{Type: typeAnswer, Answer: env.Answer, FromSocketID: string(sid)}
	if !ctl.relayToSocket(registry.SocketID(env.TargetSocketID), ev) {
		log.Warn().Str("module", "signal").Str("target", env.TargetSocketID).Msg("answer target gone")
	}
}

// handleCandidate is targeted when the client names a socket and a
// room broadcast otherwise.
func (ctl *Controller) handleCandidate(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.boundSender(sid, c)
	if !ok {
		return
	}
	ev := forwarded{Type: typeICECandidate, Candidate: env.Candidate, FromSocketID: string(sid)}
	if env.TargetSocketID != "" {
		if !ctl.relayToSocket(registry.SocketID(env.TargetSocketID), ev) {
			log.Warn().Str("module", "signal").Str("target", env.TargetSocketID).Msg("candidate target gone")
		}
		return
	}
	ctl.relayToRoom(b, ev)
}

// boundSender resolves the sender's binding and requires a room.
func (ctl *Controller) boundSender(sid registry.SocketID, c registry.Conn) (registry.Binding, bool) {
	b, ok := ctl.Reg.Lookup(sid)
	if !ok {
		return registry.Binding{}, false
	}
	if b.RoomID == "" {
		ctl.sendError(c, "join a room first")
		return registry.Binding{}, false
	}
	return b, true
}
