// Package domain contains the call-room entities and their state rules.
package domain

// UserID identifies a user as issued by the external identity service.
type UserID int64

// Claims is what the identity service resolves a bearer credential into.
type Claims struct {
	UserID UserID `json:"userId"`
	Role   string `json:"role"`
}
