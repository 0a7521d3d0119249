package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists attendance records in Postgres. It implements Store.
type Repository struct {
	db dbtx
	// beginner is nil when the repository is already bound to a transaction.
	beginner *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, beginner: db}
}

// InTx runs fn against a transaction-bound view of the repository. Calls on
// an already transactional repository reuse the open transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.beginner == nil {
		return fn(r)
	}
	tx, err := r.beginner.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repository{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const recordCols = `a.id, a.member_id, a.session_id, a.status, a.marked_at,
	a.check_in_time, a.check_out_time, a.created_at,
	m.name, m.email, s.title, s.date`

const recordJoins = `
	FROM attendance a
	JOIN members m ON m.id = a.member_id
	JOIN sessions s ON s.id = a.session_id`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.MemberID, &rec.SessionID, &rec.Status, &rec.MarkedAt,
		&rec.CheckInTime, &rec.CheckOutTime, &rec.CreatedAt,
		&rec.MemberName, &rec.MemberEmail, &rec.SessionTitle, &rec.SessionDate)
	return rec, err
}

// Find returns the unique record for (member, session), or nil when absent.
func (r *Repository) Find(ctx context.Context, memberID, sessionID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordCols+recordJoins+`
		WHERE a.member_id = $1 AND a.session_id = $2
	`, memberID, sessionID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Insert writes a new record.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, member_id, session_id, status, marked_at, check_in_time, check_out_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.MemberID, rec.SessionID, rec.Status, rec.MarkedAt, rec.CheckInTime, rec.CheckOutTime); err != nil {
		return Record{}, err
	}
	return r.Get(ctx, rec.ID)
}

// Update overwrites a record's mutable fields.
func (r *Repository) Update(ctx context.Context, rec Record) (Record, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET status = $2, marked_at = $3, check_in_time = $4, check_out_time = $5
		WHERE id = $1
	`, rec.ID, rec.Status, rec.MarkedAt, rec.CheckInTime, rec.CheckOutTime)
	if err != nil {
		return Record{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Record{}, ErrNotFound
	}
	return r.Get(ctx, rec.ID)
}

// Get returns a single record by id with display fields resolved.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordCols+recordJoins+`
		WHERE a.id = $1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// List returns records with optional session/member filters, newest first.
func (r *Repository) List(ctx context.Context, sessionID, memberID string) ([]Record, error) {
	query := `SELECT ` + recordCols + recordJoins
	args := []any{}
	clauses := []string{}
	if sessionID != "" {
		args = append(args, sessionID)
		clauses = append(clauses, fmt.Sprintf("a.session_id = $%d", len(args)))
	}
	if memberID != "" {
		args = append(args, memberID)
		clauses = append(clauses, fmt.Sprintf("a.member_id = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY a.marked_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Delete removes a record by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StatusCounts groups a session's records by status.
func (r *Repository) StatusCounts(ctx context.Context, sessionID string) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM attendance
		WHERE session_id = $1
		GROUP BY status
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
