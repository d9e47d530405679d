package postgres

import (
	"context"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/jackc/pgx/v5"
)

func (s *Store) ShareCalendar(ctx context.Context, calendarID, userID string, permission model.Permission) (*model.CalendarShare, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT id, calendar_id, user_id, permission, created_at FROM calendar_shares WHERE calendar_id = $1 AND user_id = $2`, calendarID, userID)
	var sh model.CalendarShare
	var perm string
	err = row.Scan(&sh.ID, &sh.CalendarID, &sh.UserID, &perm, &sh.CreatedAt)
	switch {
	case err == pgx.ErrNoRows:
		sh = model.CalendarShare{
			ID: newID(), CalendarID: calendarID, UserID: userID,
			Permission: permission, CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO calendar_shares (id, calendar_id, user_id, permission, created_at)
			VALUES ($1, $2, $3, $4, $5)`, sh.ID, sh.CalendarID, sh.UserID, string(sh.Permission), sh.CreatedAt); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		sh.Permission = permission
		if _, err := tx.Exec(ctx, `UPDATE calendar_shares SET permission = $1 WHERE id = $2`, string(permission), sh.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &sh, nil
}

func (s *Store) UnshareCalendar(ctx context.Context, calendarID, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calendar_shares WHERE calendar_id = $1 AND user_id = $2`, calendarID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}

func (s *Store) ListShares(ctx context.Context, calendarID string) ([]*model.CalendarShare, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, calendar_id, user_id, permission, created_at FROM calendar_shares WHERE calendar_id = $1 ORDER BY created_at`, calendarID)
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
