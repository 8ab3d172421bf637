package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Occupancy models the room's single participant seat as a sum type:
// either vacant or occupied by exactly one user. Keeping the seat a value
// type makes the "room full" check a method call instead of a nil check.
type Occupancy struct {
	userID   UserID
	occupied bool
}

func Vacant() Occupancy { return Occupancy{} }

func OccupiedBy(uid UserID) Occupancy {
	return Occupancy{userID: uid, occupied: true}
}

func (o Occupancy) Occupied() bool { return o.occupied }

// Holder returns the seated user, if any.
func (o Occupancy) Holder() (UserID, bool) { return o.userID, o.occupied }

// HeldBy reports whether uid currently holds the seat.
func (o Occupancy) HeldBy(uid UserID) bool { return o.occupied && o.userID == uid }

// Value stores the seat as a nullable bigint column.
func (o Occupancy) Value() (driver.Value, error) {
	if !o.occupied {
		return nil, nil
	}
	return int64(o.userID), nil
}

func (o *Occupancy) Scan(src any) error {
	if src == nil {
		*o = Vacant()
		return nil
	}
	switch v := src.(type) {
	case int64:
		*o = OccupiedBy(UserID(v))
		return nil
	case []byte:
		var id int64
		if _, err := fmt.Sscan(string(v), &id); err != nil {
			return fmt.Errorf("occupancy: scan %q: %w", v, err)
		}
		*o = OccupiedBy(UserID(id))
		return nil
	default:
		return fmt.Errorf("occupancy: cannot scan %T", src)
	}
}

// MarshalJSON serializes the seat the way the wire format expects
// participantUserId: a number when occupied, null when vacant.
func (o Occupancy) MarshalJSON() ([]byte, error) {
	if !o.occupied {
		return []byte("null"), nil
	}
	return json.Marshal(int64(o.userID))
}

func (o *Occupancy) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Vacant()
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*o = OccupiedBy(UserID(id))
	return nil
}
