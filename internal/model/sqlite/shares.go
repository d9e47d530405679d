package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// ShareCalendar grants or updates a (calendar, user) share — upsert
// semantics on re-share, per §3 CalendarShare.
func (s *Store) ShareCalendar(ctx context.Context, calendarID, userID string, permission model.Permission) (*model.CalendarShare, error) {
	var result *model.CalendarShare
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT id, calendar_id, user_id, permission, created_at FROM calendar_shares WHERE calendar_id = ? AND user_id = ?`, calendarID, userID)
		var sh model.CalendarShare
		var perm string
		err := row.Scan(&sh.ID, &sh.CalendarID, &sh.UserID, &perm, &sh.CreatedAt)
		switch {
		case err == sql.ErrNoRows:
			sh = model.CalendarShare{
				ID: newID(), CalendarID: calendarID, UserID: userID,
				Permission: permission, CreatedAt: time.Now().UTC(),
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO calendar_shares (id, calendar_id, user_id, permission, created_at)
				VALUES (?, ?, ?, ?, ?)`, sh.ID, sh.CalendarID, sh.UserID, string(sh.Permission), sh.CreatedAt)
			if err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			sh.Permission = permission
			if _, err := tx.ExecContext(ctx, `UPDATE calendar_shares SET permission = ? WHERE id = ?`, string(permission), sh.ID); err != nil {
				return err
			}
		}
		result = &sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UnshareCalendar(ctx context.Context, calendarID, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_shares WHERE calendar_id = ? AND user_id = ?`, calendarID, userID)
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

func (s *Store) ListShares(ctx context.Context, calendarID string) ([]*model.CalendarShare, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, calendar_id, user_id, permission, created_at FROM calendar_shares WHERE calendar_id = ? ORDER BY created_at`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.CalendarShare
	for rows.Next() {
		var sh model.CalendarShare
		var perm string
		if err := rows.Scan(&sh.ID, &sh.CalendarID, &sh.UserID, &perm, &sh.CreatedAt); err != nil {
			return nil, err
		}
		sh.Permission = model.Permission(perm)
		out = append(out, &sh)
	}
	return out, rows.Err()
}
