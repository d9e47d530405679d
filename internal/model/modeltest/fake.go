// Package modeltest is an in-memory model.Store double used by package
// tests across internal/caldav and internal/mcp, standing in for the
// sqlite/postgres backends the integration tests would otherwise need a
// live database for.
package modeltest

import (
	"context"
	"sync"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/passwordhash"
	"github.com/calendarserver/caldav-mcp/internal/synctoken"

	"github.com/google/uuid"
)

// Store is a mutex-guarded, map-backed model.Store. Not optimized for
// concurrency beyond correctness; intended for single-threaded test use.
type Store struct {
	mu sync.Mutex

	users     map[string]*model.User
	calendars map[string]*model.Calendar
	objects   map[string]map[string]*model.CalendarObject // calendarID -> uid -> object
	shares    map[string]map[string]*model.CalendarShare  // calendarID -> userID -> share
	changes   map[string][]*model.SyncChange              // calendarID -> ordered changes
	tokens    map[string]*model.McpToken                  // tokenHash -> token
}

var _ model.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		calendars: make(map[string]*model.Calendar),
		objects:   make(map[string]map[string]*model.CalendarObject),
		shares:    make(map[string]map[string]*model.CalendarShare),
		changes:   make(map[string][]*model.SyncChange),
		tokens:    make(map[string]*model.McpToken),
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

func (s *Store) Close() error { return nil }

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, username string, email *string, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, model.ErrNotFound
		}
	}
	u := &model.User{ID: newID(), Username: username, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, model.ErrNotFound
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) SetUserPassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// AddUser is a test helper bypassing password hashing (for fixture setup).
func (s *Store) AddUser(username, email, password string) *model.User {
	hash, err := passwordhash.Hash(password)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	var emailPtr *string
	if email != "" {
		e := email
		emailPtr = &e
	}
	u := &model.User{ID: newID(), Username: username, Email: emailPtr, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	s.mu.Unlock()
	return u
}

// --- Calendars ---

func (s *Store) CreateCalendar(ctx context.Context, id, ownerID, name, description, color, timezone string) (*model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = newID()
	}
	if _, exists := s.calendars[id]; exists {
		return nil, model.ErrNotFound
	}
	now := time.Now().UTC()
	cal := &model.Calendar{
		ID: id, OwnerID: ownerID, Name: name, Description: description,
		Color: color, Timezone: timezone, CTag: newID(), SyncToken: synctoken.New(),
		CreatedAt: now, UpdatedAt: now,
	}
	s.calendars[id] = cal
	s.objects[id] = make(map[string]*model.CalendarObject)
	return cal, nil
}

func (s *Store) GetCalendar(ctx context.Context, id string) (*model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.calendars[id]; ok {
		return c, nil
	}
	return nil, model.ErrNotFound
}

func (s *Store) ListCalendarsForUser(ctx context.Context, userID string) ([]*model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Calendar
	for _, c := range s.calendars {
		if c.OwnerID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) ListSharedCalendarsForUser(ctx context.Context, userID string) ([]*model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Calendar
	for calID, byUser := range s.shares {
		if _, ok := byUser[userID]; ok {
			if c, ok := s.calendars[calID]; ok {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *Store) UpdateCalendarProps(ctx context.Context, id string, displayName, description, color *string) (*model.Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calendars[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if displayName != nil {
		c.Name = *displayName
	}
	if description != nil {
		c.Description = *description
	}
	if color != nil {
		c.Color = *color
	}
	c.UpdatedAt = time.Now().UTC()
	return c, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.calendars, id)
	delete(s.objects, id)
	delete(s.shares, id)
	delete(s.changes, id)
	return nil
}

// --- Access ---

func (s *Store) GetAccess(ctx context.Context, calendarID, userID string) (model.Permission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calendars[calendarID]
	if !ok {
		return "", false, nil
	}
	if c.OwnerID == userID {
		return model.PermissionReadWrite, true, nil
	}
	if byUser, ok := s.shares[calendarID]; ok {
		if sh, ok := byUser[userID]; ok {
			return sh.Permission, true, nil
		}
	}
	return "", false, nil
}

// --- Objects ---

func (s *Store) UpsertObject(ctx context.Context, calendarID, uid, icalData string, fields model.ObjectFields) (*model.CalendarObject, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return nil, false, model.ErrNotFound
	}
	now := time.Now().UTC()
	existing, isNew := byUID[uid], false
	etag := newID()
	var obj *model.CalendarObject
	if existing == nil {
		isNew = true
		obj = &model.CalendarObject{
			ID: newID(), CalendarID: calendarID, UID: uid, ETag: etag, ICalData: icalData,
			ComponentType: fields.ComponentType, DTStart: fields.DTStart, DTEnd: fields.DTEnd,
			Summary: fields.Summary, CreatedAt: now, UpdatedAt: now,
		}
	} else {
		existing.ETag = etag
		existing.ICalData = icalData
		existing.ComponentType = fields.ComponentType
		existing.DTStart = fields.DTStart
		existing.DTEnd = fields.DTEnd
		existing.Summary = fields.Summary
		existing.UpdatedAt = now
		obj = existing
	}
	byUID[uid] = obj

	changeType := model.ChangeCreated
	if !isNew {
		changeType = model.ChangeModified
	}
	tok := synctoken.New()
	s.changes[calendarID] = append(s.changes[calendarID], &model.SyncChange{
		ID: int64(len(s.changes[calendarID]) + 1), CalendarID: calendarID, ObjectUID: uid,
		ChangeType: changeType, SyncToken: tok, CreatedAt: now,
	})
	if cal, ok := s.calendars[calendarID]; ok {
		cal.CTag = newID()
		cal.SyncToken = tok
		cal.UpdatedAt = now
	}
	return obj, isNew, nil
}

func (s *Store) DeleteObject(ctx context.Context, calendarID, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return model.ErrNotFound
	}
	if _, ok := byUID[uid]; !ok {
		return model.ErrNotFound
	}
	delete(byUID, uid)

	now := time.Now().UTC()
	tok := synctoken.New()
	s.changes[calendarID] = append(s.changes[calendarID], &model.SyncChange{
		ID: int64(len(s.changes[calendarID]) + 1), CalendarID: calendarID, ObjectUID: uid,
		ChangeType: model.ChangeDeleted, SyncToken: tok, CreatedAt: now,
	})
	if cal, ok := s.calendars[calendarID]; ok {
		cal.CTag = newID()
		cal.SyncToken = tok
		cal.UpdatedAt = now
	}
	return nil
}

func (s *Store) GetObject(ctx context.Context, calendarID, uid string) (*model.CalendarObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return nil, model.ErrNotFound
	}
	o, ok := byUID[uid]
	if !ok {
		return nil, model.ErrNotFound
	}
	return o, nil
}

func (s *Store) ListObjects(ctx context.Context, calendarID string) ([]*model.CalendarObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.CalendarObject, 0, len(byUID))
	for _, o := range byUID {
		out = append(out, o)
	}
	return out, nil
}

const rangeLayout = "20060102T150405Z"

func (s *Store) ListObjectsInRange(ctx context.Context, calendarID string, start, end time.Time) ([]*model.CalendarObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return nil, nil
	}
	var out []*model.CalendarObject
	for _, o := range byUID {
		if o.DTStart == nil || o.DTEnd == nil {
			continue
		}
		dtStart, err1 := time.Parse(rangeLayout, *o.DTStart)
		dtEnd, err2 := time.Parse(rangeLayout, *o.DTEnd)
		if err1 != nil || err2 != nil {
			continue
		}
		if dtStart.Before(end) && dtEnd.After(start) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) GetObjectsByUIDs(ctx context.Context, calendarID string, uids []string) ([]*model.CalendarObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUID, ok := s.objects[calendarID]
	if !ok {
		return nil, nil
	}
	var out []*model.CalendarObject
	for _, uid := range uids {
		if o, ok := byUID[uid]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- Shares ---

func (s *Store) ShareCalendar(ctx context.Context, calendarID, userID string, permission model.Permission) (*model.CalendarShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.shares[calendarID]
	if !ok {
		byUser = make(map[string]*model.CalendarShare)
		s.shares[calendarID] = byUser
	}
	sh, ok := byUser[userID]
	if !ok {
		sh = &model.CalendarShare{ID: newID(), CalendarID: calendarID, UserID: userID, CreatedAt: time.Now().UTC()}
		byUser[userID] = sh
	}
	sh.Permission = permission
	return sh, nil
}

func (s *Store) UnshareCalendar(ctx context.Context, calendarID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.shares[calendarID]
	if !ok {
		return model.ErrNotFound
	}
	if _, ok := byUser[userID]; !ok {
		return model.ErrNotFound
	}
	delete(byUser, userID)
	return nil
}

func (s *Store) ListShares(ctx context.Context, calendarID string) ([]*model.CalendarShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.shares[calendarID]
	if !ok {
		return nil, nil
	}
	out := make([]*model.CalendarShare, 0, len(byUser))
	for _, sh := range byUser {
		out = append(out, sh)
	}
	return out, nil
}

// --- Sync ---

func (s *Store) GetSyncChangesSince(ctx context.Context, calendarID, sinceToken string) ([]*model.SyncChange, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cal, ok := s.calendars[calendarID]
	if !ok {
		return nil, "", model.ErrNotFound
	}
	all := s.changes[calendarID]
	if sinceToken == "" {
		return append([]*model.SyncChange{}, all...), cal.SyncToken, nil
	}
	anchor := -1
	for i, c := range all {
		if c.SyncToken == sinceToken {
			anchor = i
		}
	}
	if anchor < 0 {
		return append([]*model.SyncChange{}, all...), cal.SyncToken, nil
	}
	return append([]*model.SyncChange{}, all[anchor+1:]...), cal.SyncToken, nil
}

// --- Tokens ---

func (s *Store) CreateToken(ctx context.Context, userID, name string, expiresAt *time.Time) (string, *model.McpToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := newID() + newID()
	hash := passwordhash.HashToken(raw)
	tok := &model.McpToken{ID: newID(), UserID: userID, TokenHash: hash, Name: name, CreatedAt: time.Now().UTC(), ExpiresAt: expiresAt}
	s.tokens[hash] = tok
	return raw, tok, nil
}

func (s *Store) ValidateToken(ctx context.Context, rawToken string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := passwordhash.HashToken(rawToken)
	tok, ok := s.tokens[hash]
	if !ok {
		return nil, model.ErrNotFound
	}
	if tok.ExpiresAt != nil && tok.ExpiresAt.Before(time.Now().UTC()) {
		return nil, model.ErrNotFound
	}
	u, ok := s.users[tok.UserID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListTokens(ctx context.Context, userID string) ([]*model.McpToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.McpToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) DeleteToken(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.tokens {
		if t.ID == id {
			delete(s.tokens, hash)
			return nil
		}
	}
	return model.ErrNotFound
}
