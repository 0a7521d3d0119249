package roster

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

const memberCols = `m.id, m.room_id, m.name, m.email, m.phone, m.department, m.student_id, r.title, m.created_at`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.RoomID, &m.Name, &m.Email, &m.Phone, &m.Department,
		&m.StudentID, &m.RoomTitle, &m.CreatedAt)
	return m, err
}

// roomOwned reports whether the room exists and belongs to ownerID.
func (r *Repository) roomOwned(ctx context.Context, roomID, ownerID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM rooms WHERE id = $1 AND created_by = $2
	`, roomID, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// CreateMember adds a member to one of the caller's rooms.
func (r *Repository) CreateMember(ctx context.Context, m Member, ownerID string) (Member, error) {
	if err := r.roomOwned(ctx, m.RoomID, ownerID); err != nil {
		return Member{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO members (id, room_id, name, email, phone, department, student_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, m.ID, m.RoomID, m.Name, m.Email, m.Phone, m.Department, m.StudentID)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return Member{}, err
	}
	return r.GetMember(ctx, m.ID, ownerID)
}

// BulkAddMembers inserts all rows with the room stamped on each, inside a
// single transaction: either every member lands or none do.
func (r *Repository) BulkAddMembers(ctx context.Context, roomID, ownerID string, members []Member) ([]Member, error) {
	if err := r.roomOwned(ctx, roomID, ownerID); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(members))
	for _, m := range members {
		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO members (id, room_id, name, email, phone, department, student_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, roomID, m.Name, m.Email, m.Phone, m.Department, m.StudentID); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	res := make([]Member, 0, len(ids))
	for _, id := range ids {
		m, err := r.GetMember(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, nil
}

// ListMembers returns members of the caller's rooms, optionally filtered
// by room.
func (r *Repository) ListMembers(ctx context.Context, ownerID, roomID string) ([]Member, error) {
	query := `
		SELECT ` + memberCols + `
		FROM members m
		JOIN rooms r ON r.id = m.room_id
		WHERE r.created_by = $1`
	args := []any{ownerID}
	if roomID != "" {
		query += ` AND m.room_id = $2`
		args = append(args, roomID)
	}
	query += ` ORDER BY m.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// GetMember returns a single member from the caller's rooms.
func (r *Repository) GetMember(ctx context.Context, id, ownerID string) (Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberCols+`
		FROM members m
		JOIN rooms r ON r.id = m.room_id
		WHERE m.id = $1 AND r.created_by = $2
	`, id, ownerID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

// UpdateMember applies a partial update to a member of the caller's rooms.
func (r *Repository) UpdateMember(ctx context.Context, id, ownerID string, upd MemberUpdate) (Member, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members m
		SET name = COALESCE($3, m.name),
		    email = COALESCE($4, m.email),
		    phone = COALESCE($5, m.phone),
		    department = COALESCE($6, m.department),
		    student_id = COALESCE($7, m.student_id)
		FROM rooms r
		WHERE m.id = $1 AND r.id = m.room_id AND r.created_by = $2
	`, id, ownerID, upd.Name, upd.Email, upd.Phone, upd.Department, upd.StudentID)
	if err != nil {
		return Member{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Member{}, ErrNotFound
	}
	return r.GetMember(ctx, id, ownerID)
}

// DeleteMember removes a member; its attendance rows cascade in the schema.
func (r *Repository) DeleteMember(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM members m
		USING rooms r
		WHERE m.id = $1 AND r.id = m.room_id AND r.created_by = $2
	`, id, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
