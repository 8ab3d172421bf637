// Package repository defines the durable Room Store consumed by the
// lifecycle service. Implementations live in subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/peercall/peercall/internal/domain"
)

var (
	// ErrNotFound is returned when no room matches the given id or code.
	ErrNotFound = errors.New("repository: room not found")
	// ErrDuplicateCode is returned when an insert violates the unique
	// constraint on the join code.
	ErrDuplicateCode = errors.New("repository: duplicate room code")
)

type RoomRepository interface {
	// FindByID looks a room up by its canonical id.
	FindByID(ctx context.Context, id string) (*domain.Room, error)

	// FindByCode looks a room up by its human-shareable join code.
	FindByCode(ctx context.Context, code string) (*domain.Room, error)

	// CodeExists reports whether a code was ever issued, across all
	// rooms including ended ones.
	CodeExists(ctx context.Context, code string) (bool, error)

	// Create inserts a new room. Returns ErrDuplicateCode on a code
	// collision so the caller can regenerate and retry.
	Create(ctx context.Context, room *domain.Room) error

	// Save persists the current state of an existing room.
	Save(ctx context.Context, room *domain.Room) error

	// FindForUser returns every room where the user holds either seat,
	// newest first.
	FindForUser(ctx context.Context, uid domain.UserID) ([]domain.Room, error)
}
