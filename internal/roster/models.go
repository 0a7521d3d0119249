package roster

import (
	"errors"
	"time"
)

var (
	// ErrNotFound signals a lookup that matched no row, or a row the caller
	// does not own.
	ErrNotFound = errors.New("not found")
	// ErrInvalid signals rejected input.
	ErrInvalid = errors.New("invalid input")
)

// Session statuses.
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Room groups members and sessions for one event or class, owned by one user.
type Room struct {
	ID          string    `json:"id"`
	CreatedBy   string    `json:"createdBy"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerName   string    `json:"ownerName,omitempty"`
	OwnerEmail  string    `json:"ownerEmail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Member is a person tracked for attendance within a room.
type Member struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Department string    `json:"department,omitempty"`
	StudentID  string    `json:"studentid,omitempty"`
	RoomTitle  string    `json:"roomTitle,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Session is a dated occurrence within a room against which attendance
// is recorded.
type Session struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room"`
	CreatedBy string    `json:"createdBy"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	RoomTitle string    `json:"roomTitle,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoomUpdate carries a partial room update; nil fields are left unchanged.
type RoomUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// MemberUpdate carries a partial member update; nil fields are left unchanged.
type MemberUpdate struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	StudentID  *string `json:"studentid"`
}

// SessionUpdate carries a partial session update; nil fields are left unchanged.
type SessionUpdate struct {
	Title  *string    `json:"title"`
	Date   *time.Time `json:"date"`
	Status *string    `json:"status"`
}
