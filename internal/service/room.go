// Package service implements the room lifecycle manager: creation,
// join and access rules, leave/end transitions, and read access to the
// Room Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/audit"
	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/repository"
)

// Scheduler enqueues the delayed reap check for abandoned rooms.
type Scheduler interface {
	ScheduleReap(roomID string, after time.Duration) error
}

type RoomService struct {
	repo  repository.RoomRepository
	audit audit.Publisher
	sched Scheduler

	storeTimeout time.Duration
	reapAfter    time.Duration

	locks *keyedMutex
}

// NewRoomService wires the lifecycle manager. pub and sched may be nil
// when auditing or reaping is not deployed.
func NewRoomService(repo repository.RoomRepository, pub audit.Publisher, sched Scheduler, storeTimeout, reapAfter time.Duration) *RoomService {
	if pub == nil {
		pub = audit.Nop{}
	}
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &RoomService{
		repo:         repo,
		audit:        pub,
		sched:        sched,
		storeTimeout: storeTimeout,
		reapAfter:    reapAfter,
		locks:        newKeyedMutex(),
	}
}

type CreateParams struct {
	IsPrivate bool
	Password  string
}

// Create makes a room in waiting state with a fresh unique join code.
func (s *RoomService) Create(ctx context.Context, host domain.UserID, p CreateParams) (*domain.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var hash string
	if p.Password != "" {
		var err error
		if hash, err = HashPassword(p.Password); err != nil {
			return nil, err
		}
	}

	// The store enforces code uniqueness; a duplicate insert between
	// our existence check and the create just means another draw.
	for attempt := 1; ; attempt++ {
		code, err := s.generateUniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		room := &domain.Room{
			ID:           uuid.NewString(),
			Code:         code,
			HostUserID:   host,
			Participant:  domain.Vacant(),
			Status:       domain.StatusWaiting,
			IsPrivate:    p.IsPrivate,
			PasswordHash: hash,
		}
		err = s.repo.Create(ctx, room)
		if errors.Is(err, repository.ErrDuplicateCode) && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			return nil, mapStoreErr(err)
		}

		s.publish(ctx, audit.Event{
			Type: audit.EventRoomCreated, RoomID: room.ID, RoomCode: room.Code,
			Actor: "host", UserID: host, Status: room.Status, At: time.Now(),
		})
		s.scheduleReap(room.ID)
		log.Info().Str("module", "service.room").Str("room_id", room.ID).Str("code", room.Code).Int64("host", int64(host)).Msg("room created")
		return room, nil
	}
}

type JoinParams struct {
	Code     string
	Password string
}

// Join seats a user in the room identified by code.
func (s *RoomService) Join(ctx context.Context, uid domain.UserID, p JoinParams) (*domain.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	room, err := s.repo.FindByCode(ctx, p.Code)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	unlock := s.locks.Lock(room.ID)
	defer unlock()

	// Re-read under the room lock: the state may have moved while we
	// were resolving the code.
	if room, err = s.repo.FindByID(ctx, room.ID); err != nil {
		return nil, mapStoreErr(err)
	}

	if room.Ended() {
		return nil, domain.ErrRoomEnded
	}

	if uid == room.HostUserID {
		// Host re-entry is idempotent; a waiting room goes live.
		if room.Status == domain.StatusWaiting {
			if err := room.Activate(time.Now()); err != nil {
				return nil, err
			}
			if err := s.repo.Save(ctx, room); err != nil {
				return nil, mapStoreErr(err)
			}
		}
		return room, nil
	}

	if err := guardJoin(room, p.Password); err != nil {
		return nil, err
	}
	if err := room.SeatParticipant(uid); err != nil {
		return nil, err
	}
	if err := room.Activate(time.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, room); err != nil {
		return nil, mapStoreErr(err)
	}

	s.publish(ctx, audit.Event{
		Type: audit.EventRoomJoined, RoomID: room.ID, RoomCode: room.Code,
		Actor: "participant", UserID: uid, Status: room.Status, At: time.Now(),
	})
	log.Info().Str("module", "service.room").Str("room_id", room.ID).Int64("user", int64(uid)).Msg("participant joined")
	return room, nil
}

// Leave handles either seat. Host departure ends the room for good;
// participant departure frees the seat. A user holding neither seat is
// a no-op so disconnect cleanup can always call Leave safely.
func (s *RoomService) Leave(ctx context.Context, uid domain.UserID, roomID string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return mapStoreErr(err)
	}

	switch {
	case uid == room.HostUserID:
		return s.endLocked(ctx, room, "host", uid)
	case room.Participant.HeldBy(uid):
		room.VacateParticipant()
		if err := s.repo.Save(ctx, room); err != nil {
			return mapStoreErr(err)
		}
		s.publish(ctx, audit.Event{
			Type: audit.EventParticipantLeft, RoomID: room.ID, RoomCode: room.Code,
			Actor: "participant", UserID: uid, Status: room.Status, At: time.Now(),
		})
		s.scheduleReap(room.ID)
		log.Info().Str("module", "service.room").Str("room_id", room.ID).Int64("user", int64(uid)).Msg("participant left")
		return nil
	default:
		return nil
	}
}

// End is the explicit host-only termination.
func (s *RoomService) End(ctx context.Context, roomID string, uid domain.UserID) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return mapStoreErr(err)
	}
	if uid != room.HostUserID {
		return domain.ErrNotHost
	}
	return s.endLocked(ctx, room, "host", uid)
}

// EndBySystem terminates a room on behalf of the server, used by the
// stale-room reaper.
func (s *RoomService) EndBySystem(ctx context.Context, roomID string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return mapStoreErr(err)
	}
	return s.endLocked(ctx, room, audit.ActorSystem, 0)
}

func (s *RoomService) endLocked(ctx context.Context, room *domain.Room, actor string, uid domain.UserID) error {
	if room.Ended() {
		return nil
	}
	room.End(time.Now())
	if err := s.repo.Save(ctx, room); err != nil {
		return mapStoreErr(err)
	}
	s.publish(ctx, audit.Event{
		Type: audit.EventRoomEnded, RoomID: room.ID, RoomCode: room.Code,
		Actor: actor, UserID: uid, Status: room.Status, At: time.Now(),
	})
	log.Info().Str("module", "service.room").Str("room_id", room.ID).Str("actor", actor).Msg("room ended")
	return nil
}

func (s *RoomService) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return room, nil
}

func (s *RoomService) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	room, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return room, nil
}

func (s *RoomService) RoomsForUser(ctx context.Context, uid domain.UserID) ([]domain.Room, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	rooms, err := s.repo.FindForUser(ctx, uid)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return rooms, nil
}

func (s *RoomService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *RoomService) publish(ctx context.Context, ev audit.Event) {
	if err := s.audit.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "service.room").Str("event", ev.Type).Str("room_id", ev.RoomID).Msg("audit publish failed")
	}
}

func (s *RoomService) scheduleReap(roomID string) {
	if s.sched == nil || s.reapAfter <= 0 {
		return
	}
	if err := s.sched.ScheduleReap(roomID, s.reapAfter); err != nil {
		log.Warn().Err(err).Str("module", "service.room").Str("room_id", roomID).Msg("schedule reap failed")
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("room store: %w", err)
}
