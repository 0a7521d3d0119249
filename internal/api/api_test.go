package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/internal/roster"
	"rollcall/internal/user"
)

// fakeUserStore keeps users in a map.
type fakeUserStore struct {
	users map[string]user.User // by email
}

func (f *fakeUserStore) Insert(_ context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// fakeRoster keeps rooms, members and sessions in maps and mimics the
// repository's owner scoping.
type fakeRoster struct {
	rooms    map[string]roster.Room
	members  map[string]roster.Member
	sessions map[string]roster.Session
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{
		rooms:    make(map[string]roster.Room),
		members:  make(map[string]roster.Member),
		sessions: make(map[string]roster.Session),
	}
}

func (f *fakeRoster) CreateRoom(_ context.Context, room roster.Room) (roster.Room, error) {
	room.ID = uuid.NewString()
	room.CreatedAt = time.Now()
	f.rooms[room.ID] = room
	return room, nil
}

func (f *fakeRoster) ListRooms(_ context.Context, ownerID string) ([]roster.Room, error) {
	var res []roster.Room
	for _, r := range f.rooms {
		if r.CreatedBy == ownerID {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeRoster) GetRoom(_ context.Context, id, ownerID string) (roster.Room, error) {
	r, ok := f.rooms[id]
	if !ok || r.CreatedBy != ownerID {
		return roster.Room{}, roster.ErrNotFound
	}
	return r, nil
}

func (f *fakeRoster) UpdateRoom(ctx context.Context, id, ownerID string, upd roster.RoomUpdate) (roster.Room, error) {
	r, err := f.GetRoom(ctx, id, ownerID)
	if err != nil {
		return roster.Room{}, err
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	f.rooms[id] = r
	return r, nil
}

func (f *fakeRoster) DeleteRoom(ctx context.Context, id, ownerID string) error {
	if _, err := f.GetRoom(ctx, id, ownerID); err != nil {
		return err
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeRoster) CreateMember(ctx context.Context, m roster.Member, ownerID string) (roster.Member, error) {
	if _, err := f.GetRoom(ctx, m.RoomID, ownerID); err != nil {
		return roster.Member{}, err
	}
	m.ID = uuid.NewString()
	f.members[m.ID] = m
	return m, nil
}

func (f *fakeRoster) BulkAddMembers(ctx context.Context, roomID, ownerID string, members []roster.Member) ([]roster.Member, error) {
	if _, err := f.GetRoom(ctx, roomID, ownerID); err != nil {
		return nil, err
	}
	res := make([]roster.Member, 0, len(members))
	for _, m := range members {
		m.ID = uuid.NewString()
		m.RoomID = roomID
		f.members[m.ID] = m
		res = append(res, m)
	}
	return res, nil
}

func (f *fakeRoster) ListMembers(ctx context.Context, ownerID, roomID string) ([]roster.Member, error) {
	var res []roster.Member
	for _, m := range f.members {
		if _, err := f.GetRoom(ctx, m.RoomID, ownerID); err != nil {
			continue
		}
		if roomID != "" && m.RoomID != roomID {
			continue
		}
		res = append(res, m)
	}
	return res, nil
}

func (f *fakeRoster) GetMember(ctx context.Context, id, ownerID string) (roster.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return roster.Member{}, roster.ErrNotFound
	}
	if _, err := f.GetRoom(ctx, m.RoomID, ownerID); err != nil {
		return roster.Member{}, roster.ErrNotFound
	}
	return m, nil
}

func (f *fakeRoster) UpdateMember(ctx context.Context, id, ownerID string, upd roster.MemberUpdate) (roster.Member, error) {
	m, err := f.GetMember(ctx, id, ownerID)
	if err != nil {
		return roster.Member{}, err
	}
	if upd.Name != nil {
		m.Name = *upd.Name
	}
	if upd.Email != nil {
		m.Email = *upd.Email
	}
	f.members[id] = m
	return m, nil
}

func (f *fakeRoster) DeleteMember(ctx context.Context, id, ownerID string) error {
	if _, err := f.GetMember(ctx, id, ownerID); err != nil {
		return err
	}
	delete(f.members, id)
	return nil
}

func (f *fakeRoster) CreateSession(ctx context.Context, s roster.Session) (roster.Session, error) {
	if _, err := f.GetRoom(ctx, s.RoomID, s.CreatedBy); err != nil {
		return roster.Session{}, err
	}
	s.ID = uuid.NewString()
	if s.Status == "" {
		s.Status = roster.SessionActive
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeRoster) ListSessions(_ context.Context, ownerID, roomID string) ([]roster.Session, error) {
	var res []roster.Session
	for _, s := range f.sessions {
		if s.CreatedBy != ownerID {
			continue
		}
		if roomID != "" && s.RoomID != roomID {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func (f *fakeRoster) GetSession(_ context.Context, id, ownerID string) (roster.Session, error) {
	s, ok := f.sessions[id]
	if !ok || s.CreatedBy != ownerID {
		return roster.Session{}, roster.ErrNotFound
	}
	return s, nil
}

func (f *fakeRoster) UpdateSession(ctx context.Context, id, ownerID string, upd roster.SessionUpdate) (roster.Session, error) {
	s, err := f.GetSession(ctx, id, ownerID)
	if err != nil {
		return roster.Session{}, err
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Status != nil {
		s.Status = *upd.Status
	}
	f.sessions[id] = s
	return s, nil
}

func (f *fakeRoster) DeleteSession(ctx context.Context, id, ownerID string) error {
	if _, err := f.GetSession(ctx, id, ownerID); err != nil {
		return err
	}
	delete(f.sessions, id)
	return nil
}

func newTestServer() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.App{
		JWTIssuer:     "rollcall-test",
		JWTSigningKey: "test-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	users := user.NewService(&fakeUserStore{users: make(map[string]user.User)})
	att := attendance.NewService(attendance.NewMemStore())

	r := gin.New()
	New(users, newFakeRoster(), att, cfg).Register(r)
	return r
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/users/signup", "", gin.H{
		"name": "Tester", "email": email, "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRoutesRequireAuth(t *testing.T) {
	r := newTestServer()

	for _, path := range []string{"/api/rooms", "/api/members", "/api/sessions", "/api/attendance"} {
		w := doJSON(r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSignupLoginMe(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = doJSON(r, http.MethodPost, "/api/users/login", "", gin.H{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/users/login", "", gin.H{
		"email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	r := newTestServer()
	signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/users/signup", "", gin.H{
		"name": "Twin", "email": "ada@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRoomCRUD(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/rooms", token, gin.H{"title": "Math", "description": "Algebra"})
	require.Equal(t, http.StatusCreated, w.Code)
	var room roster.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	require.NotEmpty(t, room.ID)

	w = doJSON(r, http.MethodGet, "/api/rooms", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Math")

	w = doJSON(r, http.MethodPut, "/api/rooms/"+room.ID, token, gin.H{"title": "Math 101"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Math 101")

	// Another user cannot see it.
	other := signup(t, r, "bob@example.com")
	w = doJSON(r, http.MethodGet, "/api/rooms/"+room.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/rooms/"+room.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/rooms/"+room.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoomValidation(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/rooms", token, gin.H{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkCreateMembers(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/rooms", token, gin.H{"title": "Math"})
	require.Equal(t, http.StatusCreated, w.Code)
	var room roster.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	w = doJSON(r, http.MethodPost, "/api/members/bulk", token, gin.H{
		"room": room.ID,
		"members": []gin.H{
			{"name": "A", "email": "a@x.com"},
			{"name": "B", "email": "b@x.com", "studentid": "42"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var members []roster.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members, 2)
	for _, m := range members {
		assert.Equal(t, room.ID, m.RoomID)
	}

	// Missing members array.
	w = doJSON(r, http.MethodPost, "/api/members/bulk", token, gin.H{"room": room.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceFlow(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/rooms", token, gin.H{"title": "Math"})
	require.Equal(t, http.StatusCreated, w.Code)
	var room roster.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	w = doJSON(r, http.MethodPost, "/api/members", token, gin.H{
		"name": "A", "email": "a@x.com", "room": room.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var member roster.Member
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &member))

	w = doJSON(r, http.MethodPost, "/api/sessions", token, gin.H{
		"title": "Lec1", "date": "2025-01-01T00:00:00Z", "room": room.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session roster.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w = doJSON(r, http.MethodPost, "/api/attendance", token, gin.H{
		"member": member.ID, "session": session.ID, "status": "present",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rec attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, attendance.StatusPresent, rec.Status)
	assert.NotNil(t, rec.CheckInTime)

	w = doJSON(r, http.MethodGet, "/api/attendance/stats/"+session.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats attendance.SessionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, attendance.SessionStats{Present: 1, Total: 1, AttendanceRate: 100}, stats)

	w = doJSON(r, http.MethodPost, "/api/attendance/checkout", token, gin.H{
		"member": member.ID, "session": session.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Checkout for a pair that was never marked.
	w = doJSON(r, http.MethodPost, "/api/attendance/checkout", token, gin.H{
		"member": "ghost", "session": session.ID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/attendance/"+rec.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, fmt.Sprintf("/api/attendance?session=%s", session.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestMarkAttendanceRejectsUnknownStatus(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/attendance", token, gin.H{
		"member": "m1", "session": "s1", "status": "vanished",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkMarkAttendance(t *testing.T) {
	r := newTestServer()
	token := signup(t, r, "ada@example.com")

	w := doJSON(r, http.MethodPost, "/api/attendance/bulk", token, gin.H{
		"attendanceRecords": []gin.H{
			{"member": "m1", "session": "s1", "status": "present"},
			{"member": "m2", "session": "s1", "status": "absent"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var recs []attendance.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 2)

	// A failing batch leaves nothing behind.
	w = doJSON(r, http.MethodPost, "/api/attendance/bulk", token, gin.H{
		"attendanceRecords": []gin.H{
			{"member": "m3", "session": "s2", "status": "present"},
			{"member": "m4", "session": "s2", "status": "bogus"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/attendance?session=s2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}
