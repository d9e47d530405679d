package postgres

import (
	"context"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/synctoken"
)

func scanCalendar(row interface{ Scan(...any) error }) (*model.Calendar, error) {
	var c model.Calendar
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Color, &c.Timezone,
		&c.CTag, &c.SyncToken, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

const calendarColumns = `id, owner_id, name, description, color, timezone, ctag, sync_token, created_at, updated_at`

func (s *Store) CreateCalendar(ctx context.Context, id, ownerID, name, description, color, timezone string) (*model.Calendar, error) {
	now := time.Now().UTC()
	tok := synctoken.New()
	if id == "" {
		id = newID()
	}
	c := &model.Calendar{
		ID: id, OwnerID: ownerID, Name: name, Description: description,
		Color: color, Timezone: timezone, CTag: tok, SyncToken: tok,
		CreatedAt: now, UpdatedAt: now,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendars (`+calendarColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.Color, c.Timezone, c.CTag, c.SyncToken, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) GetCalendar(ctx context.Context, id string) (*model.Calendar, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+calendarColumns+` FROM calendars WHERE id = $1`, id)
	return scanCalendar(row)
}

func (s *Store) ListCalendarsForUser(ctx context.Context, userID string) ([]*model.Calendar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+calendarColumns+` FROM calendars WHERE owner_id = $1
		UNION
		SELECT c.id, c.owner_id, c.name, c.description, c.color, c.timezone, c.ctag, c.sync_token, c.created_at, c.updated_at
		FROM calendars c JOIN calendar_shares sh ON sh.calendar_id = c.id WHERE sh.user_id = $1
		ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListSharedCalendarsForUser(ctx context.Context, userID string) ([]*model.Calendar, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.owner_id, c.name, c.description, c.color, c.timezone, c.ctag, c.sync_token, c.created_at, c.updated_at
		FROM calendars c JOIN calendar_shares sh ON sh.calendar_id = c.id
		WHERE sh.user_id = $1 ORDER BY c.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Calendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCalendarProps(ctx context.Context, id string, displayName, description, color *string) (*model.Calendar, error) {
	cal, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}
	if displayName != nil {
		cal.Name = *displayName
	}
	if description != nil {
		cal.Description = *description
	}
	if color != nil {
		cal.Color = *color
	}
	cal.UpdatedAt = time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		UPDATE calendars SET name = $1, description = $2, color = $3, updated_at = $4 WHERE id = $5`,
		cal.Name, cal.Description, cal.Color, cal.UpdatedAt, cal.ID)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calendars WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}

func (s *Store) GetAccess(ctx context.Context, calendarID, userID string) (model.Permission, bool, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		if err == errNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	if cal.OwnerID == userID {
		return model.PermissionReadWrite, true, nil
	}
	row := s.pool.QueryRow(ctx, `SELECT permission FROM calendar_shares WHERE calendar_id = $1 AND user_id = $2`, calendarID, userID)
	var perm string
	if err := row.Scan(&perm); err != nil {
		if translate(err) == errNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return model.Permission(perm), true, nil
}
