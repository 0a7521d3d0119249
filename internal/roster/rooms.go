package roster

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// CreateRoom writes a new room stamped with its creator.
func (r *Repository) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (id, created_by, title, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, room.ID, room.CreatedBy, room.Title, room.Description)
	if err := row.Scan(&room.CreatedAt, &room.UpdatedAt); err != nil {
		return Room{}, err
	}
	return room, nil
}

// ListRooms returns the caller's rooms, newest first.
func (r *Repository) ListRooms(ctx context.Context, ownerID string) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.created_by, r.title, r.description, u.name, u.email, r.created_at, r.updated_at
		FROM rooms r
		JOIN users u ON u.id = r.created_by
		WHERE r.created_by = $1
		ORDER BY r.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.CreatedBy, &room.Title, &room.Description,
			&room.OwnerName, &room.OwnerEmail, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, room)
	}
	return res, rows.Err()
}

// GetRoom returns one of the caller's rooms by id.
func (r *Repository) GetRoom(ctx context.Context, id, ownerID string) (Room, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT r.id, r.created_by, r.title, r.description, u.name, u.email, r.created_at, r.updated_at
		FROM rooms r
		JOIN users u ON u.id = r.created_by
		WHERE r.id = $1 AND r.created_by = $2
	`, id, ownerID)
	var room Room
	if err := row.Scan(&room.ID, &room.CreatedBy, &room.Title, &room.Description,
		&room.OwnerName, &room.OwnerEmail, &room.CreatedAt, &room.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Room{}, ErrNotFound
		}
		return Room{}, err
	}
	return room, nil
}

// UpdateRoom applies a partial update to one of the caller's rooms.
func (r *Repository) UpdateRoom(ctx context.Context, id, ownerID string, upd RoomUpdate) (Room, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    updated_at = NOW()
		WHERE id = $1 AND created_by = $2
	`, id, ownerID, upd.Title, upd.Description)
	if err != nil {
		return Room{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Room{}, ErrNotFound
	}
	return r.GetRoom(ctx, id, ownerID)
}

// DeleteRoom removes one of the caller's rooms; members, sessions and
// attendance cascade in the schema.
func (r *Repository) DeleteRoom(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM rooms WHERE id = $1 AND created_by = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
