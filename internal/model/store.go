package model

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is the backend-agnostic not-found sentinel both the sqlite
// and postgres implementations return in place of their driver-specific
// sql.ErrNoRows / pgx.ErrNoRows, so callers in internal/authn,
// internal/caldav, and internal/mcp never need to import a driver package.
var ErrNotFound = errors.New("model: not found")

// Store is the full Component A contract. sqlite and postgres each
// implement it; callers (internal/authn, internal/caldav, internal/mcp,
// cmd/caldav-server) depend only on this interface.
type Store interface {
	// Users
	CreateUser(ctx context.Context, username string, email *string, passwordHash string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetUserPassword(ctx context.Context, userID, passwordHash string) error
	ListUsers(ctx context.Context) ([]*User, error)
	DeleteUser(ctx context.Context, id string) error

	// Calendars
	//
	// CreateCalendar takes a caller-supplied id (MKCALENDAR's URL segment
	// becomes the collection's permanent identity, per §4.F) rather than
	// minting one internally.
	CreateCalendar(ctx context.Context, id, ownerID, name, description, color, timezone string) (*Calendar, error)
	GetCalendar(ctx context.Context, id string) (*Calendar, error)
	ListCalendarsForUser(ctx context.Context, userID string) ([]*Calendar, error)
	ListSharedCalendarsForUser(ctx context.Context, userID string) ([]*Calendar, error)
	UpdateCalendarProps(ctx context.Context, id string, displayName, description, color *string) (*Calendar, error)
	DeleteCalendar(ctx context.Context, id string) error

	// Access
	//
	// GetAccess reports the effective permission a user has on a calendar:
	// owner → read-write implicitly; shared → the share's permission;
	// neither → ok is false.
	GetAccess(ctx context.Context, calendarID, userID string) (perm Permission, ok bool, err error)

	// Objects
	UpsertObject(ctx context.Context, calendarID, uid, icalData string, fields ObjectFields) (obj *CalendarObject, isNew bool, err error)
	DeleteObject(ctx context.Context, calendarID, uid string) error
	GetObject(ctx context.Context, calendarID, uid string) (*CalendarObject, error)
	ListObjects(ctx context.Context, calendarID string) ([]*CalendarObject, error)
	ListObjectsInRange(ctx context.Context, calendarID string, start, end time.Time) ([]*CalendarObject, error)
	GetObjectsByUIDs(ctx context.Context, calendarID string, uids []string) ([]*CalendarObject, error)

	// Shares
	ShareCalendar(ctx context.Context, calendarID, userID string, permission Permission) (*CalendarShare, error)
	UnshareCalendar(ctx context.Context, calendarID, userID string) error
	ListShares(ctx context.Context, calendarID string) ([]*CalendarShare, error)

	// Sync
	GetSyncChangesSince(ctx context.Context, calendarID, sinceToken string) (changes []*SyncChange, currentToken string, err error)

	// Tokens
	CreateToken(ctx context.Context, userID, name string, expiresAt *time.Time) (raw string, tok *McpToken, err error)
	ValidateToken(ctx context.Context, rawToken string) (*User, error)
	ListTokens(ctx context.Context, userID string) ([]*McpToken, error)
	DeleteToken(ctx context.Context, id string) error

	Close() error
}
