package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

type memberRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	StudentID  string `json:"studentid"`
	Room       string `json:"room" binding:"required"`
}

type bulkMembersRequest struct {
	Members []struct {
		Name       string `json:"name" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		Phone      string `json:"phone"`
		Department string `json:"department"`
		StudentID  string `json:"studentid"`
	} `json:"members" binding:"required,min=1"`
	Room string `json:"room" binding:"required"`
}

// CreateMember adds one member to a room.
func (h *Handler) CreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.roster.CreateMember(c.Request.Context(), roster.Member{
		RoomID:     req.Room,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
		StudentID:  req.StudentID,
	}, auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// BulkCreateMembers inserts all rows with the room stamped on each.
func (h *Handler) BulkCreateMembers(c *gin.Context) {
	var req bulkMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "members array and room ID are required"})
		return
	}

	members := make([]roster.Member, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, roster.Member{
			Name:       m.Name,
			Email:      m.Email,
			Phone:      m.Phone,
			Department: m.Department,
			StudentID:  m.StudentID,
		})
	}

	saved, err := h.roster.BulkAddMembers(c.Request.Context(), req.Room, auth.UserID(c), members)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// ListMembers returns members of the caller's rooms, optionally filtered
// by ?room=.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.roster.ListMembers(c.Request.Context(), auth.UserID(c), c.Query("room"))
	if err != nil {
		respondErr(c, err)
		return
	}
	if members == nil {
		members = []roster.Member{}
	}
	c.JSON(http.StatusOK, members)
}

// GetMember returns a single member.
func (h *Handler) GetMember(c *gin.Context) {
	m, err := h.roster.GetMember(c.Request.Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMember partially updates a member.
func (h *Handler) UpdateMember(c *gin.Context) {
	var upd roster.MemberUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.roster.UpdateMember(c.Request.Context(), c.Param("id"), auth.UserID(c), upd)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMember removes a member and its attendance rows.
func (h *Handler) DeleteMember(c *gin.Context) {
	if err := h.roster.DeleteMember(c.Request.Context(), c.Param("id"), auth.UserID(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member deleted"})
}
