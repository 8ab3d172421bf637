// Package registry tracks live transport connections: which user a
// socket belongs to and which room, if any, it is currently bound to.
// State is in-memory and process-local; clients re-join after a restart.
package registry

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
)

// SocketID identifies one live transport connection.
type SocketID string

// Conn is the outbound half of a connection as the relay sees it.
// Owned by the transport adapter; the adapter closes it.
type Conn interface {
	TrySend(data []byte) error
	Close()
}

// Binding is a snapshot of one registry entry. RoomID is empty while
// the connection is not bound to a room.
type Binding struct {
	SocketID SocketID
	UserID   domain.UserID
	RoomID   string
	Conn     Conn
}

type entry struct {
	userID domain.UserID
	roomID string
	conn   Conn
}

// Mirror receives best-effort copies of registry mutations, e.g. a
// shared key-value store for multi-instance presence. Calls happen
// after the registry lock is released and must not be relied on for
// correctness.
type Mirror interface {
	Bound(sid string, uid domain.UserID)
	RoomSet(sid string, uid domain.UserID, roomID string)
	RoomCleared(sid string, roomID string)
	Removed(sid string, roomID string)
}

type Registry struct {
	mu     sync.RWMutex
	conns  map[SocketID]*entry
	mirror Mirror
}

// New creates a registry. mirror may be nil.
func New(mirror Mirror) *Registry {
	return &Registry{conns: make(map[SocketID]*entry), mirror: mirror}
}

// Bind registers a freshly connected socket for a user.
func (r *Registry) Bind(sid SocketID, uid domain.UserID, conn Conn) {
	r.mu.Lock()
	r.conns[sid] = &entry{userID: uid, conn: conn}
	r.mu.Unlock()
	log.Info().Str("module", "registry").Str("sid", string(sid)).Int64("user", int64(uid)).Msg("socket bound")
	if r.mirror != nil {
		go r.mirror.Bound(string(sid), uid)
	}
}

// SetRoom binds the socket to a room. Returns false for unknown sockets.
func (r *Registry) SetRoom(sid SocketID, roomID string) bool {
	r.mu.Lock()
	e, ok := r.conns[sid]
	var uid domain.UserID
	if ok {
		e.roomID = roomID
		uid = e.userID
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	log.Info().Str("module", "registry").Str("sid", string(sid)).Str("room_id", roomID).Msg("socket joined room")
	if r.mirror != nil {
		go r.mirror.RoomSet(string(sid), uid, roomID)
	}
	return true
}

// ClearRoom detaches the socket from its room, keeping the connection.
func (r *Registry) ClearRoom(sid SocketID) {
	r.mu.Lock()
	e, ok := r.conns[sid]
	var roomID string
	if ok {
		roomID = e.roomID
		e.roomID = ""
	}
	r.mu.Unlock()
	if !ok || roomID == "" {
		return
	}
	log.Info().Str("module", "registry").Str("sid", string(sid)).Str("room_id", roomID).Msg("socket left room")
	if r.mirror != nil {
		go r.mirror.RoomCleared(string(sid), roomID)
	}
}

// Lookup returns the socket's current binding.
func (r *Registry) Lookup(sid SocketID) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[sid]
	if !ok {
		return Binding{}, false
	}
	return Binding{SocketID: sid, UserID: e.userID, RoomID: e.roomID, Conn: e.conn}, true
}

// Remove deletes the socket and returns what was bound, so disconnect
// cleanup runs exactly once even if Remove races with itself.
func (r *Registry) Remove(sid SocketID) (Binding, bool) {
	r.mu.Lock()
	e, ok := r.conns[sid]
	if ok {
		delete(r.conns, sid)
	}
	r.mu.Unlock()
	if !ok {
		return Binding{}, false
	}
	log.Info().Str("module", "registry").Str("sid", string(sid)).Msg("socket removed")
	if r.mirror != nil {
		go r.mirror.Removed(string(sid), e.roomID)
	}
	return Binding{SocketID: sid, UserID: e.userID, RoomID: e.roomID, Conn: e.conn}, true
}

// PeersOfRoom snapshots every connection currently bound to the room.
func (r *Registry) PeersOfRoom(roomID string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Binding
	for sid, e := range r.conns {
		if e.roomID == roomID {
			out = append(out, Binding{SocketID: sid, UserID: e.userID, RoomID: e.roomID, Conn: e.conn})
		}
	}
	return out
}
