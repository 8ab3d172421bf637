package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peercall/peercall/internal/repository"
	"github.com/peercall/peercall/internal/repository/mocks"
)

func TestRandomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := randomCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)
		for _, ch := range code {
			assert.Contains(t, codeAlphabet, string(ch))
		}
		seen[code] = true
	}
	// 50 draws from 36^6 colliding would mean a broken generator.
	assert.Greater(t, len(seen), 45)
}

func TestGenerateUniqueCode_RetriesOnCollision(t *testing.T) {
	repo := new(mocks.RoomRepository)
	svc := NewRoomService(repo, nil, nil, 5*time.Second, 0)

	repo.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Twice()
	repo.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	code, err := svc.generateUniqueCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	repo.AssertExpectations(t)
}

func TestGenerateUniqueCode_GivesUpEventually(t *testing.T) {
	repo := new(mocks.RoomRepository)
	svc := NewRoomService(repo, nil, nil, 5*time.Second, 0)

	repo.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	_, err := svc.generateUniqueCode(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateCode)
	assert.True(t, strings.Contains(err.Error(), "no unique room code"))
}
