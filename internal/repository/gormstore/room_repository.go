// Package gormstore is the Postgres-backed Room Store.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/repository"
)

// pgUniqueViolation is the Postgres SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Open connects to Postgres and migrates the rooms table.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open: %w", err)
	}
	if err := db.AutoMigrate(&domain.Room{}); err != nil {
		return nil, fmt.Errorf("gormstore: migrate: %w", err)
	}
	return db, nil
}

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) FindByID(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: find room by id %s: %w", id, err)
	}
	return &room, nil
}

func (r *RoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gormstore: find room by code %q: %w", code, err)
	}
	return &room, nil
}

func (r *RoomRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gormstore: count rooms by code %q: %w", code, err)
	}
	return count > 0, nil
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("gormstore: create room %s: %w", room.Code, err)
	}
	return nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Save(room).Error; err != nil {
		return fmt.Errorf("gormstore: save room %s: %w", room.ID, err)
	}
	return nil
}

func (r *RoomRepository) FindForUser(ctx context.Context, uid domain.UserID) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Where("host_user_id = ? OR participant_user_id = ?", uid, uid).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gormstore: find rooms for user %d: %w", uid, err)
	}
	return rooms, nil
}
