// Package presence mirrors registry bindings into Redis so other
// processes can see who is connected where. The in-process registry
// stays authoritative; everything here is best-effort with a TTL to
// self-heal after crashes.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
)

const opTimeout = 2 * time.Second

type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMirror(addr, password string, db int, ttl time.Duration) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("presence: redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMirror{client: client, ttl: ttl}, nil
}

func connKey(sid string) string    { return "presence:conn:" + sid }
func roomKey(roomID string) string { return "presence:room:" + roomID }

func (m *RedisMirror) Bound(sid string, uid domain.UserID) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, connKey(sid), "user_id", int64(uid))
	pipe.Expire(ctx, connKey(sid), m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		m.warn(err, sid, "bind")
	}
}

func (m *RedisMirror) RoomSet(sid string, uid domain.UserID, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	pipe := m.client.Pipeline()
	pipe.HSet(ctx, connKey(sid), "user_id", int64(uid), "room_id", roomID)
	pipe.Expire(ctx, connKey(sid), m.ttl)
	pipe.SAdd(ctx, roomKey(roomID), sid)
	pipe.Expire(ctx, roomKey(roomID), m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		m.warn(err, sid, "room set")
	}
}

func (m *RedisMirror) RoomCleared(sid string, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	pipe := m.client.Pipeline()
	pipe.HDel(ctx, connKey(sid), "room_id")
	pipe.SRem(ctx, roomKey(roomID), sid)
	if _, err := pipe.Exec(ctx); err != nil {
		m.warn(err, sid, "room clear")
	}
}

func (m *RedisMirror) Removed(sid string, roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	pipe := m.client.Pipeline()
	pipe.Del(ctx, connKey(sid))
	if roomID != "" {
		pipe.SRem(ctx, roomKey(roomID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		m.warn(err, sid, "remove")
	}
}

func (m *RedisMirror) Close() error { return m.client.Close() }

func (m *RedisMirror) warn(err error, sid, op string) {
	log.Warn().Err(err).Str("module", "presence").Str("sid", sid).Str("op", op).Msg("presence mirror update failed")
}
