package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/synctoken"
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

// UpsertObject atomically inserts or replaces the object row, appends one
// sync-change, and bumps the calendar's ctag/sync_token — all three writes
// commit together or not at all (§4.A, §5).
func (s *Store) UpsertObject(ctx context.Context, calendarID, uid, icalData string, fields model.ObjectFields) (*model.CalendarObject, bool, error) {
	var result *model.CalendarObject
	isNew := false

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		etag := newID()

		row := tx.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = ? AND uid = ?`, calendarID, uid)
		existing, err := scanObject(row)
		changeType := model.ChangeCreated
		switch {
		case err == sql.ErrNoRows:
			isNew = true
			id := newID()
			_, err := tx.ExecContext(ctx, `
				INSERT INTO calendar_objects (`+objectColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, calendarID, uid, etag, icalData, string(fields.ComponentType),
				fields.DTStart, fields.DTEnd, fields.Summary, now, now)
			if err != nil {
				return err
			}
			result = &model.CalendarObject{
				ID: id, CalendarID: calendarID, UID: uid, ETag: etag, ICalData: icalData,
				ComponentType: fields.ComponentType, DTStart: fields.DTStart, DTEnd: fields.DTEnd,
				Summary: fields.Summary, CreatedAt: now, UpdatedAt: now,
			}
		case err != nil:
			return err
		default:
			changeType = model.ChangeModified
			_, err := tx.ExecContext(ctx, `
				UPDATE calendar_objects
				SET etag = ?, ical_data = ?, component_type = ?, dtstart = ?, dtend = ?, summary = ?, updated_at = ?
				WHERE id = ?`,
				etag, icalData, string(fields.ComponentType), fields.DTStart, fields.DTEnd, fields.Summary, now, existing.ID)
			if err != nil {
				return err
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
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sync_changes (calendar_id, object_uid, change_type, sync_token, created_at)
			VALUES (?, ?, ?, ?, ?)`, calendarID, uid, string(changeType), tok, now); err != nil {
			return err
		}
		return bumpToken(ctx, tx, calendarID, tok)
	})
	if err != nil {
		return nil, false, err
	}
	return result, isNew, nil
}

// DeleteObject removes an object and records a deletion sync-change,
// atomically with the ctag bump.
func (s *Store) DeleteObject(ctx context.Context, calendarID, uid string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM calendar_objects WHERE calendar_id = ? AND uid = ?`, calendarID, uid)
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
		tok := synctoken.New()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sync_changes (calendar_id, object_uid, change_type, sync_token, created_at)
			VALUES (?, ?, 'deleted', ?, ?)`, calendarID, uid, tok, time.Now().UTC()); err != nil {
			return err
		}
		return bumpToken(ctx, tx, calendarID, tok)
	})
}

func (s *Store) GetObject(ctx context.Context, calendarID, uid string) (*model.CalendarObject, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = ? AND uid = ?`, calendarID, uid)
	o, err := scanObject(row)
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (s *Store) ListObjects(ctx context.Context, calendarID string) ([]*model.CalendarObject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+objectColumns+` FROM calendar_objects WHERE calendar_id = ? ORDER BY uid`, calendarID)
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

// ListObjectsInRange returns objects whose (dtstart, dtend) half-open
// interval overlaps [start, end). Objects with a null dtstart or dtend are
// excluded (§4.A, §9 open question (c)).
func (s *Store) ListObjectsInRange(ctx context.Context, calendarID string, start, end time.Time) ([]*model.CalendarObject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+objectColumns+` FROM calendar_objects
		WHERE calendar_id = ? AND dtstart IS NOT NULL AND dtend IS NOT NULL
		AND dtstart < ? AND dtend > ?
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

// formatRangeBound renders the comparison bound in the same wire format
// (basic ISO 8601, "Z" suffix) that dtstart/dtend are stored in, so the
// lexical TEXT comparison above agrees with chronological order.
func formatRangeBound(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func (s *Store) GetObjectsByUIDs(ctx context.Context, calendarID string, uids []string) ([]*model.CalendarObject, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + objectColumns + ` FROM calendar_objects WHERE calendar_id = ? AND uid IN (` + placeholders(len(uids)) + `)`
	args := make([]any, 0, len(uids)+1)
	args = append(args, calendarID)
	for _, u := range uids {
		args = append(args, u)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func placeholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += "?"
	}
	return s
}
