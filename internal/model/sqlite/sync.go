package sqlite

import (
	"context"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// GetSyncChangesSince locates the anchor row whose sync_token equals
// sinceToken and returns every row after it in id order. An empty token
// or an unrecognized anchor both degrade to a full resync (§4.A).
func (s *Store) GetSyncChangesSince(ctx context.Context, calendarID, sinceToken string) ([]*model.SyncChange, string, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, "", err
	}

	var anchorID int64 = 0
	if sinceToken != "" {
		row := s.db.QueryRowContext(ctx, `
			SELECT id FROM sync_changes WHERE calendar_id = ? AND sync_token = ?
			ORDER BY id DESC LIMIT 1`, calendarID, sinceToken)
		var id int64
		if err := row.Scan(&id); err == nil {
			anchorID = id
		}
		// anchor not found (sql.ErrNoRows or otherwise): fall through with
		// anchorID == 0, returning every change — full resync.
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, calendar_id, object_uid, change_type, sync_token, created_at
		FROM sync_changes WHERE calendar_id = ? AND id > ? ORDER BY id ASC`, calendarID, anchorID)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []*model.SyncChange
	for rows.Next() {
		var c model.SyncChange
		var ct string
		if err := rows.Scan(&c.ID, &c.CalendarID, &c.ObjectUID, &ct, &c.SyncToken, &c.CreatedAt); err != nil {
			return nil, "", err
		}
		c.ChangeType = model.ChangeType(ct)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	return out, cal.SyncToken, nil
}
