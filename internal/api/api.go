// Package api wires the HTTP surface: route registration, request binding
// and error-to-status mapping. All domain logic lives in the services.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/roster"
	"rollcall/internal/user"
)

// RosterStore is the slice of the roster repository the handlers need.
type RosterStore interface {
	CreateRoom(ctx context.Context, room roster.Room) (roster.Room, error)
	ListRooms(ctx context.Context, ownerID string) ([]roster.Room, error)
	GetRoom(ctx context.Context, id, ownerID string) (roster.Room, error)
	UpdateRoom(ctx context.Context, id, ownerID string, upd roster.RoomUpdate) (roster.Room, error)
	DeleteRoom(ctx context.Context, id, ownerID string) error

	CreateMember(ctx context.Context, m roster.Member, ownerID string) (roster.Member, error)
	BulkAddMembers(ctx context.Context, roomID, ownerID string, members []roster.Member) ([]roster.Member, error)
	ListMembers(ctx context.Context, ownerID, roomID string) ([]roster.Member, error)
	GetMember(ctx context.Context, id, ownerID string) (roster.Member, error)
	UpdateMember(ctx context.Context, id, ownerID string, upd roster.MemberUpdate) (roster.Member, error)
	DeleteMember(ctx context.Context, id, ownerID string) error

	CreateSession(ctx context.Context, s roster.Session) (roster.Session, error)
	ListSessions(ctx context.Context, ownerID, roomID string) ([]roster.Session, error)
	GetSession(ctx context.Context, id, ownerID string) (roster.Session, error)
	UpdateSession(ctx context.Context, id, ownerID string, upd roster.SessionUpdate) (roster.Session, error)
	DeleteSession(ctx context.Context, id, ownerID string) error
}

// Handler owns the services and registers all /api routes.
type Handler struct {
	users  *user.Service
	roster RosterStore
	att    *attendance.Service
	cfg    config.App
}

// New creates a handler.
func New(users *user.Service, rosterStore RosterStore, att *attendance.Service, cfg config.App) *Handler {
	return &Handler{users: users, roster: rosterStore, att: att, cfg: cfg}
}

// Register mounts all routes on r. Everything except signup and login sits
// behind the bearer middleware.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/users/signup", h.Signup)
	api.POST("/users/login", h.Login)

	authed := api.Group("", auth.UserAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))

	authed.GET("/users/me", h.Me)

	authed.GET("/rooms", h.ListRooms)
	authed.POST("/rooms", h.CreateRoom)
	authed.GET("/rooms/:id", h.GetRoom)
	authed.PUT("/rooms/:id", h.UpdateRoom)
	authed.DELETE("/rooms/:id", h.DeleteRoom)

	authed.GET("/members", h.ListMembers)
	authed.POST("/members", h.CreateMember)
	authed.POST("/members/bulk", h.BulkCreateMembers)
	authed.GET("/members/:id", h.GetMember)
	authed.PUT("/members/:id", h.UpdateMember)
	authed.DELETE("/members/:id", h.DeleteMember)

	authed.GET("/sessions", h.ListSessions)
	authed.POST("/sessions", h.CreateSession)
	authed.GET("/sessions/:id", h.GetSession)
	authed.PUT("/sessions/:id", h.UpdateSession)
	authed.DELETE("/sessions/:id", h.DeleteSession)

	authed.GET("/attendance", h.ListAttendance)
	authed.POST("/attendance", h.MarkAttendance)
	authed.POST("/attendance/checkout", h.MarkCheckOut)
	authed.POST("/attendance/bulk", h.BulkMarkAttendance)
	authed.GET("/attendance/stats/:session", h.AttendanceStats)
	authed.GET("/attendance/:id", h.GetAttendance)
	authed.DELETE("/attendance/:id", h.DeleteAttendance)
}

// respondErr converts service errors to the matching status code. Every
// handler funnels its failures through here.
func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrNotFound),
		errors.Is(err, roster.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrInvalid),
		errors.Is(err, roster.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
