package domain

import "time"

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusEnded   Status = "ended"
)

// Room is a two-seat call session. The host seat is fixed at creation;
// the participant seat is modeled by Occupancy. Status only ever moves
// along waiting -> active -> waiting and {waiting,active} -> ended; the
// transition methods below are the only writers of Status.
type Room struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Code         string     `gorm:"size:6;uniqueIndex" json:"code"`
	HostUserID   UserID     `gorm:"index" json:"hostUserId"`
	Participant  Occupancy  `gorm:"column:participant_user_id;type:bigint;index" json:"participantUserId"`
	Status       Status     `gorm:"size:16;default:waiting" json:"status"`
	IsPrivate    bool       `json:"isPrivate"`
	PasswordHash string     `json:"-"`
	StartTime    *time.Time `json:"startTime,omitempty"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Room) TableName() string { return "rooms" }

func (r *Room) Ended() bool { return r.Status == StatusEnded }

// Activate moves a waiting room to active and stamps the start time.
// Activating an already active room is a no-op, so duplicate join events
// are harmless. Ended rooms never come back.
func (r *Room) Activate(now time.Time) error {
	switch r.Status {
	case StatusEnded:
		return ErrRoomEnded
	case StatusActive:
		return nil
	default:
		r.Status = StatusActive
		t := now
		r.StartTime = &t
		return nil
	}
}

// End is the terminal transition. Idempotent: ending an ended room keeps
// its original end time.
func (r *Room) End(now time.Time) {
	if r.Status == StatusEnded {
		return
	}
	r.Status = StatusEnded
	t := now
	r.EndTime = &t
}

// SeatParticipant puts uid in the participant seat. The same user
// re-seating is a no-op; a different user while the seat is held means
// the room is full. The host never takes the participant seat.
func (r *Room) SeatParticipant(uid UserID) error {
	if r.Ended() {
		return ErrRoomEnded
	}
	if uid == r.HostUserID {
		return ErrHostCannotSit
	}
	if r.Participant.Occupied() && !r.Participant.HeldBy(uid) {
		return ErrRoomFull
	}
	r.Participant = OccupiedBy(uid)
	return nil
}

// VacateParticipant clears the seat and, if the call was live, puts the
// room back to waiting for a new participant.
func (r *Room) VacateParticipant() {
	r.Participant = Vacant()
	if r.Status == StatusActive {
		r.Status = StatusWaiting
	}
}
