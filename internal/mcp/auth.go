package mcp

import (
	"context"
	"net/http"
	"strings"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// authenticateBearer validates the "Authorization: Bearer <token>" header
// against the store's MCP tokens (§4.H). A missing or invalid token
// yields a nil user; callers respond 401 with the realm challenge.
func authenticateBearer(ctx context.Context, store model.Store, header string) *model.User {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return nil
	}
	user, err := store.ValidateToken(ctx, token)
	if err != nil || user == nil {
		return nil
	}
	return user
}

func requireBearer(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="CalDAV MCP"`)
	w.WriteHeader(http.StatusUnauthorized)
}
