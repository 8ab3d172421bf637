package signal

import (
	"encoding/json"

	"github.com/peercall/peercall/internal/domain"
)

// Inbound message types.
const (
	typeJoinRoom         = "join-room"
	typeLeaveRoom        = "leave-room"
	typeOffer            = "webrtc-offer"
	typeAnswer           = "webrtc-answer"
	typeICECandidate     = "webrtc-ice-candidate"
	typeSendMessage      = "send-message"
	typeToggleVideo      = "toggle-video"
	typeToggleAudio      = "toggle-audio"
	typeScreenShareStart = "screen-share-start"
	typeScreenShareStop  = "screen-share-stop"
	typePing             = "ping"
)

// Outbound event types.
const (
	evtJoinedRoom         = "joined-room"
	evtUserJoined         = "user-joined"
	evtUserLeft           = "user-left"
	evtUserDisconnected   = "user-disconnected"
	evtError              = "error"
	evtPong               = "pong"
	evtReceiveMessage     = "receive-message"
	evtUserVideoToggle    = "user-video-toggle"
	evtUserAudioToggle    = "user-audio-toggle"
	evtScreenShareStarted = "screen-share-started"
	evtScreenShareStopped = "screen-share-stopped"
)

// envelope is the shared shape of every inbound message. Signaling
// payloads stay raw: this adapter is a forwarding fabric and malformed
// SDP or ICE is the receiving client's concern.
type envelope struct {
	Type           string          `json:"type"`
	RoomID         string          `json:"roomId,omitempty"`
	UserID         domain.UserID   `json:"userId,omitempty"`
	TargetSocketID string          `json:"targetSocketId,omitempty"`
	Offer          json.RawMessage `json:"offer,omitempty"`
	Answer         json.RawMessage `json:"answer,omitempty"`
	Candidate      json.RawMessage `json:"candidate,omitempty"`
	Message        string          `json:"message,omitempty"`
	UserName       string          `json:"userName,omitempty"`
	VideoEnabled   bool            `json:"videoEnabled,omitempty"`
	AudioEnabled   bool            `json:"audioEnabled,omitempty"`
}
