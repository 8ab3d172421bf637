package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/peercall/peercall/internal/domain"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("abcd")
	require.NoError(t, err)
	assert.NotEqual(t, "abcd", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("abcd")))
}

func TestGuardJoin(t *testing.T) {
	hash, err := HashPassword("abcd")
	require.NoError(t, err)

	t.Run("public room needs nothing", func(t *testing.T) {
		room := &domain.Room{IsPrivate: false}
		assert.NoError(t, guardJoin(room, ""))
		assert.NoError(t, guardJoin(room, "anything"))
	})

	t.Run("private room without a hash is joinable by code", func(t *testing.T) {
		room := &domain.Room{IsPrivate: true}
		assert.NoError(t, guardJoin(room, ""))
	})

	t.Run("missing and wrong passwords fail differently", func(t *testing.T) {
		room := &domain.Room{IsPrivate: true, PasswordHash: hash}
		assert.ErrorIs(t, guardJoin(room, ""), domain.ErrPasswordRequired)
		assert.ErrorIs(t, guardJoin(room, "wrong"), domain.ErrPasswordInvalid)
	})

	t.Run("correct password passes", func(t *testing.T) {
		room := &domain.Room{IsPrivate: true, PasswordHash: hash}
		assert.NoError(t, guardJoin(room, "abcd"))
	})
}
