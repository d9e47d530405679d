package postgres

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/passwordhash"
	"github.com/jackc/pgx/v5/pgtype"
)

func generateRawToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO mcp_tokens (id, user_id, token_hash, name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, tok.ID, tok.UserID, tok.TokenHash, tok.Name, tok.CreatedAt, tok.ExpiresAt)
	if err != nil {
		return "", nil, err
	}
	return raw, tok, nil
}

func (s *Store) ValidateToken(ctx context.Context, rawToken string) (*model.User, error) {
	hash := passwordhash.HashToken(rawToken)
	row := s.pool.QueryRow(ctx, `SELECT user_id, expires_at FROM mcp_tokens WHERE token_hash = $1`, hash)
	var userID string
	var expiresAt pgtype.Timestamptz
	if err := row.Scan(&userID, &expiresAt); err != nil {
		return nil, translate(err)
	}
	if expiresAt.Valid && time.Now().UTC().After(expiresAt.Time) {
		return nil, errNoRows
	}
	return s.GetUserByID(ctx, userID)
}

func (s *Store) ListTokens(ctx context.Context, userID string) ([]*model.McpToken, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, token_hash, name, created_at, expires_at FROM mcp_tokens WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.McpToken
	for rows.Next() {
		var t model.McpToken
		var expiresAt pgtype.Timestamptz
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM mcp_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}
