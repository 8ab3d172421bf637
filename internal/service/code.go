package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/repository"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// With 36^6 codes a collision is negligible, but the store has the
	// final word: we check and retry instead of assuming.
	maxCodeAttempts = 10
)

func randomCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// generateUniqueCode draws codes until the store has not seen one.
func (s *RoomService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return "", mapStoreErr(err)
		}
		if !exists {
			return code, nil
		}
		log.Warn().Str("module", "service.room").Str("code", code).Int("attempt", attempt).Msg("room code collision, retrying")
	}
	return "", fmt.Errorf("no unique room code after %d attempts: %w", maxCodeAttempts, repository.ErrDuplicateCode)
}
