// Package model is the Component A store: CRUD for users, calendars,
// objects, shares, tokens, and the sync-change log (§3, §4.A).
package model

import "time"

type User struct {
	ID           string
	Username     string
	Email        *string
	PasswordHash string
	CreatedAt    time.Time
}

type Calendar struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Color       string
	Timezone    string
	CTag        string
	SyncToken   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission is the closed set of calendar-share grants (§3 Permission).
type Permission string

const (
	PermissionRead      Permission = "read"
	PermissionReadWrite Permission = "read-write"
)

type ComponentType string

const (
	ComponentVEVENT ComponentType = "VEVENT"
	ComponentVTODO  ComponentType = "VTODO"
)

// ObjectFields are the indexed columns extracted from an iCalendar blob
// (Component B's output) that the store persists alongside the raw bytes.
type ObjectFields struct {
	ComponentType ComponentType
	DTStart       *string
	DTEnd         *string
	Summary       *string
}

type CalendarObject struct {
	ID            string
	CalendarID    string
	UID           string
	ETag          string
	ICalData      string
	ComponentType ComponentType
	DTStart       *string
	DTEnd         *string
	Summary       *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CalendarShare struct {
	ID         string
	CalendarID string
	UserID     string
	Permission Permission
	CreatedAt  time.Time
}

// ChangeType is the closed set of sync-change row kinds (§3 SyncChange).
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

type SyncChange struct {
	ID         int64
	CalendarID string
	ObjectUID  string
	ChangeType ChangeType
	SyncToken  string
	CreatedAt  time.Time
}

type McpToken struct {
	ID        string
	UserID    string
	TokenHash string
	Name      string
	CreatedAt time.Time
	ExpiresAt *time.Time
}
