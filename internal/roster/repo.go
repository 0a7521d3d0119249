package roster

import "database/sql"

// Repository persists rooms, members and sessions in Postgres.
//
// Every query is scoped to the owning user: members and their room's
// sessions belong to whoever created the room, so reads and writes join
// through rooms.created_by. Deletes cascade in the schema (room -> members,
// sessions, attendance).
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}
