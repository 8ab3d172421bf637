// Package tasks defines the background task types and the enqueue-side
// client.
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeRoomReap ends rooms that were abandoned: never ended, with no one
// connected, past their grace period.
const TypeRoomReap = "room:reap"

type RoomReapPayload struct {
	RoomID string `json:"room_id"`
}

func NewRoomReapTask(roomID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RoomReapPayload{RoomID: roomID})
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal reap payload: %w", err)
	}
	return asynq.NewTask(TypeRoomReap, payload), nil
}

// Client satisfies service.Scheduler.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpt)}
}

func (c *Client) ScheduleReap(roomID string, after time.Duration) error {
	task, err := NewRoomReapTask(roomID)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, asynq.ProcessIn(after), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("tasks: enqueue reap for room %s: %w", roomID, err)
	}
	return nil
}

func (c *Client) Close() error { return c.client.Close() }
