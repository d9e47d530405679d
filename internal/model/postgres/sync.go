package postgres

import (
	"context"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

func (s *Store) GetSyncChangesSince(ctx context.Context, calendarID, sinceToken string) ([]*model.SyncChange, string, error) {
	cal, err := s.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, "", err
	}

	var anchorID int64 = 0
	if sinceToken != "" {
		row := s.pool.QueryRow(ctx, `
			SELECT id FROM sync_changes WHERE calendar_id = $1 AND sync_token = $2
			ORDER BY id DESC LIMIT 1`, calendarID, sinceToken)
		var id int64
		if err := row.Scan(&id); err == nil {
			anchorID = id
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, calendar_id, object_uid, change_type, sync_token, created_at
		FROM sync_changes WHERE calendar_id = $1 AND id > $2 ORDER BY id ASC`, calendarID, anchorID)
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
