package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/peercall/peercall/internal/domain"
)

// HashPassword hashes a room password for storage. Plaintext is never
// persisted or compared directly.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash room password: %w", err)
	}
	return string(hash), nil
}

// guardJoin is the access gate for non-host joiners. A private room
// without a stored hash is joinable by code alone; privacy then only
// constrains discovery, not entry. The two failure modes stay distinct
// so clients can prompt for a password versus report a wrong one.
func guardJoin(room *domain.Room, password string) error {
	if !room.IsPrivate || room.PasswordHash == "" {
		return nil
	}
	if password == "" {
		return domain.ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)); err != nil {
		return domain.ErrPasswordInvalid
	}
	return nil
}
