package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const sessionCols = `s.id, s.room_id, s.created_by, s.title, s.date, s.status, r.title, s.created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.RoomID, &s.CreatedBy, &s.Title, &s.Date, &s.Status,
		&s.RoomTitle, &s.CreatedAt)
	return s, err
}

// CreateSession writes a new session in one of the caller's rooms.
func (r *Repository) CreateSession(ctx context.Context, s Session) (Session, error) {
	if err := r.roomOwned(ctx, s.RoomID, s.CreatedBy); err != nil {
		return Session{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SessionActive
	}
	if s.Status != SessionActive && s.Status != SessionClosed {
		return Session{}, fmt.Errorf("%w: unknown session status %q", ErrInvalid, s.Status)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, room_id, created_by, title, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, s.ID, s.RoomID, s.CreatedBy, s.Title, s.Date, s.Status)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}
	return r.GetSession(ctx, s.ID, s.CreatedBy)
}

// ListSessions returns the caller's sessions, optionally filtered by room,
// newest date first.
func (r *Repository) ListSessions(ctx context.Context, ownerID, roomID string) ([]Session, error) {
	query := `
		SELECT ` + sessionCols + `
		FROM sessions s
		JOIN rooms r ON r.id = s.room_id
		WHERE s.created_by = $1`
	args := []any{ownerID}
	if roomID != "" {
		query += ` AND s.room_id = $2`
		args = append(args, roomID)
	}
	query += ` ORDER BY s.date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// GetSession returns one of the caller's sessions by id.
func (r *Repository) GetSession(ctx context.Context, id, ownerID string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+`
		FROM sessions s
		JOIN rooms r ON r.id = s.room_id
		WHERE s.id = $1 AND s.created_by = $2
	`, id, ownerID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// UpdateSession applies a partial update to one of the caller's sessions.
func (r *Repository) UpdateSession(ctx context.Context, id, ownerID string, upd SessionUpdate) (Session, error) {
	if upd.Status != nil && *upd.Status != SessionActive && *upd.Status != SessionClosed {
		return Session{}, fmt.Errorf("%w: unknown session status %q", ErrInvalid, *upd.Status)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET title = COALESCE($3, title),
		    date = COALESCE($4, date),
		    status = COALESCE($5, status)
		WHERE id = $1 AND created_by = $2
	`, id, ownerID, upd.Title, upd.Date, upd.Status)
	if err != nil {
		return Session{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Session{}, ErrNotFound
	}
	return r.GetSession(ctx, id, ownerID)
}

// DeleteSession removes a session; its attendance rows cascade in the schema.
func (r *Repository) DeleteSession(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id = $1 AND created_by = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
