// Package signal is the realtime adapter: it upgrades authenticated
// clients to WebSocket, binds each connection into the registry and
// relays signaling and control messages between the two peers of a
// room. It forwards payloads verbatim and never inspects SDP or ICE.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/service"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Rooms *service.RoomService
	Reg   *registry.Registry

	chat      *ChatRateLimiter
	readLimit int64
}

func NewController(rooms *service.RoomService, reg *registry.Registry, readLimit int64) *Controller {
	return &Controller{
		Rooms:     rooms,
		Reg:       reg,
		chat:      NewChatRateLimiter(20, 10*time.Second),
		readLimit: readLimit,
	}
}

// wsConn is one client connection with a buffered outbound queue.
// A full queue fails the send instead of blocking the relay, so one
// slow receiver never delays the other peer.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until the
// client goes away. The auth middleware has already resolved the user.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	uid := domain.UserID(c.GetInt64("user_id"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := registry.SocketID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Int64("user", int64(uid)).Msg("new WS connection")
	ctl.Reg.Bind(sid, uid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
		ctl.onDisconnect(sid)
	}()
}
