package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"rollcall/internal/queue"
)

// Status is an attendance state for one member in one session.
type Status string

// Supported statuses.
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether s is one of the supported statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

var (
	// ErrNotFound signals a lookup that matched no attendance record.
	ErrNotFound = errors.New("attendance record not found")
	// ErrInvalid signals rejected input.
	ErrInvalid = errors.New("invalid attendance input")
)

// Record is the per-(member, session) attendance row. Member and session
// display fields are resolved on reads.
type Record struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member"`
	SessionID    string     `json:"session"`
	Status       Status     `json:"status"`
	MarkedAt     time.Time  `json:"timestamp"`
	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	CreatedAt    time.Time  `json:"createdAt"`

	MemberName   string    `json:"memberName,omitempty"`
	MemberEmail  string    `json:"memberEmail,omitempty"`
	SessionTitle string    `json:"sessionTitle,omitempty"`
	SessionDate  time.Time `json:"sessionDate"`
}

// Mark is one attendance marking request.
type Mark struct {
	MemberID  string    `json:"member"`
	SessionID string    `json:"session"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionStats aggregates a session's attendance by status.
type SessionStats struct {
	Present        int `json:"present"`
	Absent         int `json:"absent"`
	Late           int `json:"late"`
	Excused        int `json:"excused"`
	Total          int `json:"total"`
	AttendanceRate int `json:"attendanceRate"`
}

// Store persists attendance records. Find returns (nil, nil) when no record
// exists for the pair. InTx runs fn against a transactional view of the store.
type Store interface {
	Find(ctx context.Context, memberID, sessionID string) (*Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, sessionID, memberID string) ([]Record, error)
	Delete(ctx context.Context, id string) error
	StatusCounts(ctx context.Context, sessionID string) (map[Status]int, error)
	InTx(ctx context.Context, fn func(Store) error) error
}

// StatsCache caches computed session stats. Get returns (nil, nil) on a miss.
type StatsCache interface {
	Get(ctx context.Context, sessionID string) (*SessionStats, error)
	Set(ctx context.Context, sessionID string, stats SessionStats, ttl time.Duration) error
}

// Service applies the reconciliation rules: one record per (member, session),
// sticky first check-in on present/late, absent clears both timestamps.
type Service struct {
	store    Store
	cache    StatsCache
	cacheTTL time.Duration
	q        queue.Queue
	now      func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithStatsCache enables read-through caching of session stats.
func (s *Service) WithStatsCache(cache StatsCache, ttl time.Duration) *Service {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

// WithQueue publishes a stats refresh message after every successful write.
func (s *Service) WithQueue(q queue.Queue) *Service {
	s.q = q
	return s
}

// Mark creates or updates the record for (member, session).
func (s *Service) Mark(ctx context.Context, m Mark) (Record, error) {
	var rec Record
	err := s.store.InTx(ctx, func(st Store) error {
		var applyErr error
		rec, applyErr = s.apply(ctx, st, m)
		return applyErr
	})
	if err != nil {
		return Record{}, err
	}
	s.notify(ctx, m.SessionID)
	return rec, nil
}

// CheckOut stamps the check-out time on an existing record. The record's
// status and check-in time are left untouched.
func (s *Service) CheckOut(ctx context.Context, memberID, sessionID string, ts time.Time) (Record, error) {
	if memberID == "" || sessionID == "" {
		return Record{}, fmt.Errorf("%w: member and session are required", ErrInvalid)
	}
	rec, err := s.store.Find(ctx, memberID, sessionID)
	if err != nil {
		return Record{}, err
	}
	if rec == nil {
		return Record{}, ErrNotFound
	}
	if ts.IsZero() {
		ts = s.now().UTC()
	}
	rec.CheckOutTime = &ts
	out, err := s.store.Update(ctx, *rec)
	if err != nil {
		return Record{}, err
	}
	s.notify(ctx, sessionID)
	return out, nil
}

// BulkMark applies the single-record rule to each mark in input order inside
// one transaction; a failure rolls back the whole batch.
func (s *Service) BulkMark(ctx context.Context, marks []Mark) ([]Record, error) {
	if len(marks) == 0 {
		return nil, fmt.Errorf("%w: attendance records array is required", ErrInvalid)
	}
	res := make([]Record, 0, len(marks))
	err := s.store.InTx(ctx, func(st Store) error {
		for _, m := range marks {
			rec, err := s.apply(ctx, st, m)
			if err != nil {
				return err
			}
			res = append(res, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, id := range sessionIDs(marks) {
		s.notify(ctx, id)
	}
	return res, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

// List returns records filtered by session and/or member, newest first.
func (s *Service) List(ctx context.Context, sessionID, memberID string) ([]Record, error) {
	return s.store.List(ctx, sessionID, memberID)
}

// Delete removes a record by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, rec.SessionID)
	return nil
}

// Stats returns per-status counts and the attendance rate for a session,
// reading through the cache when one is configured.
func (s *Service) Stats(ctx context.Context, sessionID string) (SessionStats, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, sessionID); err == nil && cached != nil {
			return *cached, nil
		}
	}
	return s.RefreshStats(ctx, sessionID)
}

// RefreshStats recomputes a session's stats from the store and rewrites the
// cache entry. The worker calls this for every stats refresh message.
func (s *Service) RefreshStats(ctx context.Context, sessionID string) (SessionStats, error) {
	counts, err := s.store.StatusCounts(ctx, sessionID)
	if err != nil {
		return SessionStats{}, err
	}
	stats := SessionStats{
		Present: counts[StatusPresent],
		Absent:  counts[StatusAbsent],
		Late:    counts[StatusLate],
		Excused: counts[StatusExcused],
	}
	stats.Total = stats.Present + stats.Absent + stats.Late + stats.Excused
	if stats.Total > 0 {
		stats.AttendanceRate = int(math.Round(float64(stats.Present) / float64(stats.Total) * 100))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, stats, s.cacheTTL); err != nil {
			log.Printf("stats cache write failed for session %s: %v", sessionID, err)
		}
	}
	return stats, nil
}

// apply is the reconciliation rule shared by Mark and BulkMark.
func (s *Service) apply(ctx context.Context, st Store, m Mark) (Record, error) {
	if m.MemberID == "" || m.SessionID == "" {
		return Record{}, fmt.Errorf("%w: member and session are required", ErrInvalid)
	}
	if !m.Status.Valid() {
		return Record{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, m.Status)
	}
	ts := m.Timestamp
	if ts.IsZero() {
		ts = s.now().UTC()
	}

	rec, err := st.Find(ctx, m.MemberID, m.SessionID)
	if err != nil {
		return Record{}, err
	}

	if rec != nil {
		rec.Status = m.Status
		rec.MarkedAt = ts
		switch m.Status {
		case StatusPresent, StatusLate:
			// First check-in is sticky.
			if rec.CheckInTime == nil {
				rec.CheckInTime = &ts
			}
		case StatusAbsent:
			rec.CheckInTime = nil
			rec.CheckOutTime = nil
		}
		return st.Update(ctx, *rec)
	}

	fresh := Record{
		MemberID:  m.MemberID,
		SessionID: m.SessionID,
		Status:    m.Status,
		MarkedAt:  ts,
	}
	if m.Status == StatusPresent || m.Status == StatusLate {
		fresh.CheckInTime = &ts
	}
	return st.Insert(ctx, fresh)
}

// notify publishes a best-effort stats refresh message.
func (s *Service) notify(ctx context.Context, sessionID string) {
	if s.q == nil || sessionID == "" {
		return
	}
	if err := s.q.Publish(ctx, queue.StatsRefresh(sessionID)); err != nil {
		log.Printf("stats refresh publish failed for session %s: %v", sessionID, err)
	}
}

// sessionIDs returns the distinct session ids touched by marks, in order.
func sessionIDs(marks []Mark) []string {
	seen := make(map[string]bool, len(marks))
	var ids []string
	for _, m := range marks {
		if m.SessionID != "" && !seen[m.SessionID] {
			seen[m.SessionID] = true
			ids = append(ids, m.SessionID)
		}
	}
	return ids
}
