package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peercall/peercall/internal/adapters/signal"
	"github.com/peercall/peercall/internal/auth"
	"github.com/peercall/peercall/internal/config"
	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/registry"
	"github.com/peercall/peercall/internal/repository/memstore"
	"github.com/peercall/peercall/internal/service"
)

const testSecret = "test-secret"

type apiFixture struct {
	router *gin.Engine
	rooms  *service.RoomService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rooms := service.NewRoomService(memstore.NewRoomRepository(), nil, nil, 5*time.Second, 0)
	reg := registry.New(nil)
	sigCtl := signal.NewController(rooms, reg, 0)
	verifier := auth.NewJWTVerifier(testSecret)
	cfg := &config.Config{Mode: gin.TestMode}

	return &apiFixture{
		router: SetupRouter(context.Background(), cfg, rooms, sigCtl, verifier),
		rooms:  rooms,
	}
}

func signToken(t *testing.T, uid int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uid,
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) do(t *testing.T, method, path string, uid int64, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != 0 {
		req.Header.Set("Authorization", "Bearer "+signToken(t, uid))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) createRoom(t *testing.T, uid int64, body string) domain.Room {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/rooms", uid, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room domain.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	return room
}

func TestCreateRoom(t *testing.T) {
	f := newAPIFixture(t)

	room := f.createRoom(t, 1, `{}`)
	assert.Len(t, room.Code, 6)
	assert.Equal(t, domain.UserID(1), room.HostUserID)
	assert.Equal(t, domain.StatusWaiting, room.Status)
}

func TestCreateRoom_Validation(t *testing.T) {
	f := newAPIFixture(t)

	// Passwords under four characters are rejected at the binding layer.
	w := f.do(t, http.MethodPost, "/api/rooms", 1, `{"isPrivate":true,"password":"ab"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/rooms", 1, `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRoom_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/rooms", 0, `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJoinRoom(t *testing.T) {
	f := newAPIFixture(t)
	room := f.createRoom(t, 1, `{"isPrivate":true,"password":"abcd"}`)

	t.Run("wrong password is forbidden", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 2, fmt.Sprintf(`{"code":%q,"password":"nope"}`, room.Code))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("correct password joins and activates", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 2, fmt.Sprintf(`{"code":%q,"password":"abcd"}`, room.Code))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got domain.Room
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, domain.StatusActive, got.Status)
		assert.True(t, got.Participant.HeldBy(2))
	})

	t.Run("third user gets invalid state", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 3, fmt.Sprintf(`{"code":%q,"password":"abcd"}`, room.Code))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 2, `{"code":"ZZZZZZ"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("code length is validated", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 2, `{"code":"AB"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetRoom_PublicLookups(t *testing.T) {
	f := newAPIFixture(t)
	room := f.createRoom(t, 1, `{"isPrivate":true,"password":"abcd"}`)

	// No Authorization header on purpose: lookups are public.
	w := f.do(t, http.MethodGet, "/api/rooms/"+room.ID, 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "$2a$", "password hash never leaves the server")

	w = f.do(t, http.MethodGet, "/api/rooms/code/"+room.Code, 0, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, room.ID, got.ID)

	w = f.do(t, http.MethodGet, "/api/rooms/missing", 0, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyRooms(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/my-rooms", 1, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String(), "no rooms is an empty list, not null")

	f.createRoom(t, 1, `{}`)
	f.createRoom(t, 1, `{}`)
	f.createRoom(t, 2, `{}`)

	w = f.do(t, http.MethodGet, "/api/my-rooms", 1, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []domain.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Len(t, rooms, 2)
}

func TestLeaveAndEndRoom(t *testing.T) {
	f := newAPIFixture(t)
	room := f.createRoom(t, 1, `{}`)
	w := f.do(t, http.MethodPost, "/api/rooms/join", 2, fmt.Sprintf(`{"code":%q}`, room.Code))
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("participant leave", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/rooms/"+room.ID+"/leave", 2, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		got, err := f.rooms.GetByID(context.Background(), room.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, got.Status)
	})

	t.Run("non-host cannot end", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/rooms/"+room.ID, 2, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("host ends the room", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/rooms/"+room.ID, 1, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		got, err := f.rooms.GetByID(context.Background(), room.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEnded, got.Status)
	})

	t.Run("joining an ended room is invalid state", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/rooms/join", 2, fmt.Sprintf(`{"code":%q}`, room.Code))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
