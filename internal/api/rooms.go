package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

type roomRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateRoom creates a room stamped with the caller as owner.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roster.CreateRoom(c.Request.Context(), roster.Room{
		CreatedBy:   auth.UserID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// ListRooms returns the caller's rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roster.ListRooms(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	if rooms == nil {
		rooms = []roster.Room{}
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom returns one of the caller's rooms.
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.roster.GetRoom(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// UpdateRoom partially updates one of the caller's rooms.
func (h *Handler) UpdateRoom(c *gin.Context) {
	var upd roster.RoomUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roster.UpdateRoom(c.Request.Context(), c.Param("id"), auth.UserID(c), upd)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// DeleteRoom removes a room and, via schema cascade, its members, sessions
// and attendance.
func (h *Handler) DeleteRoom(c *gin.Context) {
	if err := h.roster.DeleteRoom(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}
