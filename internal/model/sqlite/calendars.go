package sqlite

import (
	"context"
	"database/sql"
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendars (`+calendarColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.Color, c.Timezone, c.CTag, c.SyncToken, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) GetCalendar(ctx context.Context, id string) (*model.Calendar, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+calendarColumns+` FROM calendars WHERE id = ?`, id)
	return scanCalendar(row)
}

func (s *Store) ListCalendarsForUser(ctx context.Context, userID string) ([]*model.Calendar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+calendarColumns+` FROM calendars WHERE owner_id = ?
		UNION
		SELECT c.id, c.owner_id, c.name, c.description, c.color, c.timezone, c.ctag, c.sync_token, c.created_at, c.updated_at
		FROM calendars c JOIN calendar_shares sh ON sh.calendar_id = c.id WHERE sh.user_id = ?
		ORDER BY name`, userID, userID)
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.owner_id, c.name, c.description, c.color, c.timezone, c.ctag, c.sync_token, c.created_at, c.updated_at
		FROM calendars c JOIN calendar_shares sh ON sh.calendar_id = c.id
		WHERE sh.user_id = ? ORDER BY c.name`, userID)
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
	_, err = s.db.ExecContext(ctx, `
		UPDATE calendars SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?`,
		cal.Name, cal.Description, cal.Color, cal.UpdatedAt, cal.ID)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

func (s *Store) DeleteCalendar(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) GetAccess(ctx context.Context, calendarID, userID string) (model.Permission, bool, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		if err == model.ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	if cal.OwnerID == userID {
		return model.PermissionReadWrite, true, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT permission FROM calendar_shares WHERE calendar_id = ? AND user_id = ?`, calendarID, userID)
	var perm string
	if err := row.Scan(&perm); err != nil {
		if err := translate(err); err == model.ErrNotFound {
			return "", false, nil
		} else {
			return "", false, err
		}
	}
	return model.Permission(perm), true, nil
}

// bumpToken updates a calendar's ctag/sync_token to tok, within tx.
func bumpToken(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, calendarID, tok string) error {
	_, err := execer.ExecContext(ctx, `UPDATE calendars SET ctag = ?, sync_token = ?, updated_at = ? WHERE id = ?`,
		tok, tok, time.Now().UTC(), calendarID)
	return err
}
