package signal

import (
	"time"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
)

// handleSendMessage echoes chat to the whole room, sender included,
// with a server-stamped timestamp.
func (ctl *Controller) handleSendMessage(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.boundSender(sid, c)
	if !ok {
		return
	}
	if !ctl.chat.Allow(b.UserID) {
		ctl.sendError(c, "too many messages")
		return
	}
	ctl.relayToAll(b.RoomID, struct {
		Type      string        `json:"type"`
		Message   string        `json:"message"`
		UserID    domain.UserID `json:"userId"`
		UserName  string        `json:"userName"`
		Timestamp string        `json:"timestamp"`
	}{evtReceiveMessage, env.Message, b.UserID, env.UserName, time.Now().UTC().Format(time.RFC3339)})
}

func (ctl *Controller) handleToggle(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.boundSender(sid, c)
	if !ok {
		return
	}
	if env.Type == typeToggleVideo {
		ctl.relayToRoom(b, struct {
			Type         string        `json:"type"`
			UserID       domain.UserID `json:"userId"`
			VideoEnabled bool          `json:"videoEnabled"`
		}{evtUserVideoToggle, b.UserID, env.VideoEnabled})
		return
	}
	ctl.relayToRoom(b, struct {
		Type         string        `json:"type"`
		UserID       domain.UserID `json:"userId"`
		AudioEnabled bool          `json:"audioEnabled"`
	}{evtUserAudioToggle, b.UserID, env.AudioEnabled})
}

func (ctl *Controller) handleScreenShare(sid registry.SocketID, c registry.Conn, env *envelope) {
	b, ok := ctl.boundSender(sid, c)
	if !ok {
		return
	}
	evt := evtScreenShareStarted
	if env.Type == typeScreenShareStop {
		evt = evtScreenShareStopped
	}
	ctl.relayToRoom(b, struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
	}{evt, b.UserID})
}

func (ctl *Controller) handlePing(c registry.Conn) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{evtPong})
}
