package caldav

import (
	"context"
	"net/http"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// requireAccess loads the calendar and verifies the principal has at
// least read access (owner or share), per §4.F: "verify the resolved
// user has access (owns or has a share); otherwise 403."
func (h *Handlers) requireAccess(ctx context.Context, calendarID, userID string) (*model.Calendar, model.Permission, bool) {
	cal, err := h.store.GetCalendar(ctx, calendarID)
	if err != nil || cal == nil {
		return nil, "", false
	}
	perm, ok, err := h.store.GetAccess(ctx, calendarID, userID)
	if err != nil || !ok {
		return cal, "", false
	}
	return cal, perm, true
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}
