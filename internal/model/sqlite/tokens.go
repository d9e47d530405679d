package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/passwordhash"
)

func generateRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateToken mints a fresh bearer token, storing only its hash; the raw
// value is returned once and never persisted or recoverable (§3 McpToken).
func (s *Store) CreateToken(ctx context.Context, userID, name string, expiresAt *time.Time) (string, *model.McpToken, error) {
	raw, err := generateRawToken()
	if err != nil {
		return "", nil, err
	}
	tok := &model.McpToken{
		ID:        newID(),
		UserID:    userID,
		TokenHash: passwordhash.HashToken(raw),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mcp_tokens (id, user_id, token_hash, name, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`, tok.ID, tok.UserID, tok.TokenHash, tok.Name, tok.CreatedAt, tok.ExpiresAt)
	if err != nil {
		return "", nil, err
	}
	return raw, tok, nil
}

// ValidateToken looks up the user owning rawToken, rejecting unknown or
// expired tokens.
func (s *Store) ValidateToken(ctx context.Context, rawToken string) (*model.User, error) {
	hash := passwordhash.HashToken(rawToken)
	row := s.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM mcp_tokens WHERE token_hash = ?`, hash)
	var userID string
	var expiresAt sql.NullTime
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return nil, translate(err)
	}
	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		return nil, model.ErrNotFound
	}
	return s.GetUserByID(ctx, userID)
}

func (s *Store) ListTokens(ctx context.Context, userID string) ([]*model.McpToken, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, token_hash, name, created_at, expires_at FROM mcp_tokens WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.McpToken
	for rows.Next() {
		var t model.McpToken
		var expiresAt sql.NullTime
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.Name, &t.CreatedAt, &expiresAt); err != nil {
			return nil, err
		}
		if expiresAt.Valid {
			v := expiresAt.Time
			t.ExpiresAt = &v
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *Store) DeleteToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mcp_tokens WHERE id = ?`, id)
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
