package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/registry"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid registry.SocketID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleMessage(sid, c, data)
		}
	}
}

// handleMessage dispatches one inbound message. A failing handler only
// ever produces an error event back to the sender; it cannot take the
// connection down or touch other connections.
func (ctl *Controller) handleMessage(sid registry.SocketID, c registry.Conn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, "bad payload")
		return
	}

	switch env.Type {
	case typeJoinRoom:
		ctl.handleJoinRoom(sid, c, &env)
	case typeLeaveRoom:
		ctl.handleLeaveRoom(sid, c, &env)
	case typeOffer:
		ctl.handleOffer(sid, c, &env)
	case typeAnswer:
		ctl.handleAnswer(sid, c, &env)
	case typeICECandidate:
		ctl.handleCandidate(sid, c, &env)
	case typeSendMessage:
		ctl.handleSendMessage(sid, c, &env)
	case typeToggleVideo, typeToggleAudio:
		ctl.handleToggle(sid, c, &env)
	case typeScreenShareStart, typeScreenShareStop:
		ctl.handleScreenShare(sid, c, &env)
	case typePing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, "unknown message type")
	}
}

func (ctl *Controller) sendJSON(c registry.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("send dropped")
	}
}

func (ctl *Controller) sendError(c registry.Conn, msg string) {
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{evtError, msg})
}

// relayToRoom fans v out to every other connection bound to the
// sender's room. Each send is independent; a dead peer drops its copy.
func (ctl *Controller) relayToRoom(from registry.Binding, v any) {
	for _, peer := range ctl.Reg.PeersOfRoom(from.RoomID) {
		if peer.SocketID == from.SocketID {
			continue
		}
		ctl.sendJSON(peer.Conn, v)
	}
}

// relayToAll includes the sender, used for chat echo.
func (ctl *Controller) relayToAll(roomID string, v any) {
	for _, peer := range ctl.Reg.PeersOfRoom(roomID) {
		ctl.sendJSON(peer.Conn, v)
	}
}

// relayToSocket delivers to one specific connection.
func (ctl *Controller) relayToSocket(target registry.SocketID, v any) bool {
	b, ok := ctl.Reg.Lookup(target)
	if !ok {
		return false
	}
	ctl.sendJSON(b.Conn, v)
	return true
}
