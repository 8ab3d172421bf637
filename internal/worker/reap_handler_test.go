package worker

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/repository/memstore"
	"github.com/peercall/peercall/internal/service"
	"github.com/peercall/peercall/internal/tasks"
)

type nopConn struct{}

func (nopConn) TrySend(data []byte) error { return nil }
func (nopConn) Close()                    {}

func newReapFixture(t *testing.T) (*ReapHandler, *service.RoomService, *registry.Registry) {
	t.Helper()
	rooms := service.NewRoomService(memstore.NewRoomRepository(), nil, nil, 5*time.Second, 0)
	reg := registry.New(nil)
	return NewReapHandler(rooms, reg), rooms, reg
}

func reapTask(t *testing.T, roomID string) *asynq.Task {
	t.Helper()
	task, err := tasks.NewRoomReapTask(roomID)
	require.NoError(t, err)
	return task
}

func TestReapHandler_EndsAbandonedRoom(t *testing.T) {
	h, rooms, _ := newReapFixture(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, 1, service.CreateParams{})
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(ctx, reapTask(t, room.ID)))

	got, err := rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got.Status)
}

func TestReapHandler_SparesRoomWithLiveConnections(t *testing.T) {
	h, rooms, reg := newReapFixture(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, 1, service.CreateParams{})
	require.NoError(t, err)
	reg.Bind("s1", 1, nopConn{})
	reg.SetRoom("s1", room.ID)

	require.NoError(t, h.ProcessTask(ctx, reapTask(t, room.ID)))

	got, err := rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, got.Status)
}

func TestReapHandler_IgnoresGoneOrEndedRooms(t *testing.T) {
	h, rooms, _ := newReapFixture(t)
	ctx := context.Background()

	// Unknown room: nothing to do, no retry either.
	assert.NoError(t, h.ProcessTask(ctx, reapTask(t, "missing")))

	room, err := rooms.Create(ctx, 1, service.CreateParams{})
	require.NoError(t, err)
	require.NoError(t, rooms.End(ctx, room.ID, 1))
	assert.NoError(t, h.ProcessTask(ctx, reapTask(t, room.ID)))
}

func TestReapHandler_BadPayloadSkipsRetry(t *testing.T) {
	h, _, _ := newReapFixture(t)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeRoomReap, []byte("{broken")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
