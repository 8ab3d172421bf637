// Package mocks holds testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/peercall/peercall/internal/domain"
)

type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if room := args.Get(0); room != nil {
		return room.(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	args := m.Called(ctx, code)
	if room := args.Get(0); room != nil {
		return room.(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RoomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) FindForUser(ctx context.Context, uid domain.UserID) ([]domain.Room, error) {
	args := m.Called(ctx, uid)
	if rooms := args.Get(0); rooms != nil {
		return rooms.([]domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}
