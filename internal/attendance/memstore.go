package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store for tests and local development. Display
// fields are not resolved. InTx snapshots the map and restores it when fn
// fails, mirroring the repository's rollback.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Find returns the record for (member, session), or nil when absent.
func (m *MemStore) Find(_ context.Context, memberID, sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.MemberID == memberID && rec.SessionID == sessionID {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

// Insert stores a new record.
func (m *MemStore) Insert(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	m.records[rec.ID] = rec
	return rec, nil
}

// Update overwrites an existing record.
func (m *MemStore) Update(_ context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; !ok {
		return Record{}, ErrNotFound
	}
	m.records[rec.ID] = rec
	return rec, nil
}

// Get returns a record by id.
func (m *MemStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns records with optional filters, newest marked first.
func (m *MemStore) List(_ context.Context, sessionID, memberID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records {
		if sessionID != "" && rec.SessionID != sessionID {
			continue
		}
		if memberID != "" && rec.MemberID != memberID {
			continue
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].MarkedAt.After(res[j].MarkedAt) })
	return res, nil
}

// Delete removes a record by id.
func (m *MemStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// StatusCounts groups a session's records by status.
func (m *MemStore) StatusCounts(_ context.Context, sessionID string) (map[Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[Status]int)
	for _, rec := range m.records {
		if rec.SessionID == sessionID {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

// InTx runs fn and rolls the store back when it fails.
func (m *MemStore) InTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	snapshot := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		snapshot[k] = v
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.records = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}
