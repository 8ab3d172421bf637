// Package memstore is an in-memory Room Store used in tests and for
// running the server without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/repository"
)

type RoomRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.Room
	byCode map[string]string
}

func NewRoomRepository() *RoomRepository {
	return &RoomRepository{
		byID:   make(map[string]domain.Room),
		byCode: make(map[string]string),
	}
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &room, nil
}

func (r *RoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	room := r.byID[id]
	return &room, nil
}

func (r *RoomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[room.Code]; ok {
		return repository.ErrDuplicateCode
	}
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	r.byID[room.ID] = *room
	r.byCode[room.Code] = room.ID
	return nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[room.ID]; !ok {
		return repository.ErrNotFound
	}
	room.UpdatedAt = time.Now()
	r.byID[room.ID] = *room
	return nil
}

func (r *RoomRepository) FindForUser(ctx context.Context, uid domain.UserID) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rooms []domain.Room
	for _, room := range r.byID {
		if room.HostUserID == uid || room.Participant.HeldBy(uid) {
			rooms = append(rooms, room)
		}
	}
	// Newest first, matching the SQL store's ordering.
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}
