package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

type sessionRequest struct {
	Title  string    `json:"title" binding:"required"`
	Date   time.Time `json:"date" binding:"required"`
	Room   string    `json:"room" binding:"required"`
	Status string    `json:"status"`
}

// CreateSession creates a session in one of the caller's rooms.
func (h *Handler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.roster.CreateSession(c.Request.Context(), roster.Session{
		RoomID:    req.Room,
		CreatedBy: auth.UserID(c),
		Title:     req.Title,
		Date:      req.Date,
		Status:    req.Status,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// ListSessions returns the caller's sessions, optionally filtered by ?room=.
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.roster.ListSessions(c.Request.Context(), auth.UserID(c), c.Query("room"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if sessions == nil {
		sessions = []roster.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession returns one of the caller's sessions.
func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.roster.GetSession(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSession partially updates one of the caller's sessions.
func (h *Handler) UpdateSession(c *gin.Context) {
	var upd roster.SessionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.roster.UpdateSession(c.Request.Context(), c.Param("id"), auth.UserID(c), upd)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// DeleteSession removes a session and its attendance rows.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.roster.DeleteSession(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}
