package postgres

import (
	"context"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/synctoken"
	"github.com/jackc/pgx/v5"
)

const objectColumns = `id, calendar_id, uid, etag, ical_data, component_type, dtstart, dtend, summary, created_at, updated_at`

func scanObject(row interface{ Scan(...any) error }) (*model.CalendarObject, error) {
	var o model.CalendarObject
	if err := row.Scan(&o.ID, &o.CalendarID, &o.UID, &o.ETag, &o.ICalData, &o.ComponentType,
		&o.DTStart, &o.DTEnd, &o.Summary, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func bumpToken(ctx context.Context, tx pgx.Tx, calendarID, tok string) error {
	_, err := tx.Exec(ctx, `UPDATE calendars SET ctag = $1, sync_token = $1, updated_at = $2 WHERE id = $3`,
		tok, time.Now().UTC(), calendarID)
	return err
}

func (s *Store) UpsertObject(ctx context.Context, calendarID, uid, icalData string, fields model.ObjectFields) (*model.CalendarObject, bool, error) {
	var result *model.CalendarObject
	isNew := false

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	etag := newID()

	row := tx.QueryRow(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = $1 AND uid = $2`, calendarID, uid)
	existing, err := scanObject(row)
	changeType := model.ChangeCreated
	switch {
	case err == pgx.ErrNoRows:
		isNew = true
		id := newID()
		_, err := tx.Exec(ctx, `
			INSERT INTO calendar_objects (`+objectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			id, calendarID, uid, etag, icalData, string(fields.ComponentType),
			fields.DTStart, fields.DTEnd, fields.Summary, now, now)
		if err != nil {
			return nil, false, err
		}
		result = &model.CalendarObject{
			ID: id, CalendarID: calendarID, UID: uid, ETag: etag, ICalData: icalData,
			ComponentType: fields.ComponentType, DTStart: fields.DTStart, DTEnd: fields.DTEnd,
			Summary: fields.Summary, CreatedAt: now, UpdatedAt: now,
		}
	case err != nil:
		return nil, false, err
	default:
		changeType = model.ChangeModified
		_, err := tx.Exec(ctx, `
			UPDATE calendar_objects
			SET etag = $1, ical_data = $2, component_type = $3, dtstart = $4, dtend = $5, summary = $6, updated_at = $7
			WHERE id = $8`,
			etag, icalData, string(fields.ComponentType), fields.DTStart, fields.DTEnd, fields.Summary, now, existing.ID)
		if err != nil {
			return nil, false, err
		}
		existing.ETag = etag
		existing.ICalData = icalData
		existing.ComponentType = fields.ComponentType
		existing.DTStart = fields.DTStart
		existing.DTEnd = fields.DTEnd
		existing.Summary = fields.Summary
		existing.UpdatedAt = now
		result = existing
	}

	tok := synctoken.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO sync_changes (calendar_id, object_uid, change_type, sync_token, created_at)
		VALUES ($1, $2, $3, $4, $5)`, calendarID, uid, string(changeType), tok, now); err != nil {
		return nil, false, err
	}
	if err := bumpToken(ctx, tx, calendarID, tok); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return result, isNew, nil
}

func (s *Store) DeleteObject(ctx context.Context, calendarID, uid string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM calendar_objects WHERE calendar_id = $1 AND uid = $2`, calendarID, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	tok := synctoken.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO sync_changes (calendar_id, object_uid, change_type, sync_token, created_at)
		VALUES ($1, $2, 'deleted', $3, $4)`, calendarID, uid, tok, time.Now().UTC()); err != nil {
		return err
	}
	if err := bumpToken(ctx, tx, calendarID, tok); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) GetObject(ctx context.Context, calendarID, uid string) (*model.CalendarObject, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = $1 AND uid = $2`, calendarID, uid)
	o, err := scanObject(row)
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (s *Store) ListObjects(ctx context.Context, calendarID string) ([]*model.CalendarObject, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = $1 ORDER BY uid`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalendarObject
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) ListObjectsInRange(ctx context.Context, calendarID string, start, end time.Time) ([]*model.CalendarObject, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+objectColumns+` FROM calendar_objects
		WHERE calendar_id = $1 AND dtstart IS NOT NULL AND dtend IS NOT NULL
		AND dtstart < $2 AND dtend > $3
		ORDER BY dtstart`, calendarID, formatRangeBound(end), formatRangeBound(start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalendarObject
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func formatRangeBound(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func (s *Store) GetObjectsByUIDs(ctx context.Context, calendarID string, uids []string) ([]*model.CalendarObject, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = $1 AND uid = ANY($2)`, calendarID, uids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalendarObject
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
