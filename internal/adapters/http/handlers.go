package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/domain"
	"github.com/peercall/peercall/internal/service"
)

type RoomHandler struct {
	Rooms *service.RoomService
}

func NewRoomHandler(rooms *service.RoomService) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

type createRoomRequest struct {
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password" binding:"omitempty,min=4"`
}

type joinRoomRequest struct {
	Code     string `json:"code" binding:"required,len=6"`
	Password string `json:"password"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	host := domain.UserID(c.GetInt64("user_id"))

	room, err := h.Rooms.Create(c.Request.Context(), host, service.CreateParams{
		IsPrivate: req.IsPrivate,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	uid := domain.UserID(c.GetInt64("user_id"))

	room, err := h.Rooms.Join(c.Request.Context(), uid, service.JoinParams{
		Code:     req.Code,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.Rooms.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) GetRoomByCode(c *gin.Context) {
	room, err := h.Rooms.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) MyRooms(c *gin.Context) {
	uid := domain.UserID(c.GetInt64("user_id"))
	rooms, err := h.Rooms.RoomsForUser(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	uid := domain.UserID(c.GetInt64("user_id"))
	if err := h.Rooms.Leave(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) EndRoom(c *gin.Context) {
	uid := domain.UserID(c.GetInt64("user_id"))
	if err := h.Rooms.End(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps the domain taxonomy onto status codes. Anything
// outside it is infrastructure and stays opaque to the caller.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
