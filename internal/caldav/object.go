package caldav

import (
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/calendarserver/caldav-mcp/internal/icalshim"
	"github.com/calendarserver/caldav-mcp/internal/model"
)

const maxPutBody = 1 << 20 // 1 MiB, §4.F PUT precondition.

// handleObject dispatches GET/PUT/DELETE on
// /caldav/users/{username}/{cid}/{uid}.ics and its email-path twin (§4.F).
func (h *Handlers) handleObject(w http.ResponseWriter, req *http.Request, ctx HrefContext, calendarID, file string) {
	userID, _, ok := h.authenticateFor(req, ctx)
	if !ok {
		h.requireUnauthorized(w)
		return
	}

	cal, perm, hasAccess := h.requireAccess(req.Context(), calendarID, userID)
	if cal == nil {
		http.NotFound(w, req)
		return
	}
	if !hasAccess {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}

	uid := strings.TrimSuffix(file, ".ics")

	switch req.Method {
	case http.MethodGet:
		h.handleGetObject(w, req, calendarID, uid)
	case http.MethodPut:
		h.handlePutObject(w, req, calendarID, uid, perm)
	case http.MethodDelete:
		h.handleDeleteObject(w, req, calendarID, uid, perm)
	default:
		w.Header().Set("Allow", allowHeader)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleGetObject implements §4.F GET: raw ical_data, text/calendar,
// ETag; missing → 404.
func (h *Handlers) handleGetObject(w http.ResponseWriter, req *http.Request, calendarID, uid string) {
	obj, err := h.store.GetObject(req.Context(), calendarID, uid)
	if err != nil || obj == nil {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	if !obj.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", obj.UpdatedAt.UTC().Format(time.RFC1123))
	}
	if inm := trimETagQuotes(req.Header.Get("If-None-Match")); inm != "" && inm == obj.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	_, _ = io.WriteString(w, obj.ICalData)
}

// handlePutObject implements §4.F PUT: size/UTF-8 validation, UID
// precedence, If-Match handling, upsert.
func (h *Handlers) handlePutObject(w http.ResponseWriter, req *http.Request, calendarID, urlUID string, perm model.Permission) {
	if perm != model.PermissionReadWrite {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}

	raw, err := readBody(req, maxPutBody+1)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "bad request")
		return
	}
	if int64(len(raw)) > maxPutBody {
		writeStatus(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	if !utf8.Valid(raw) {
		writeStatus(w, http.StatusBadRequest, "body is not valid UTF-8")
		return
	}

	normalized, nerr := icalshim.NormalizeICS(raw)
	body := raw
	if nerr == nil {
		body = normalized
	}

	fields := icalshim.ExtractFields(string(body))
	uid := urlUID
	if fields.UID != nil && *fields.UID != "" {
		uid = *fields.UID
	}

	existing, _ := h.store.GetObject(req.Context(), calendarID, uid)

	ifMatch := trimETagQuotes(req.Header.Get("If-Match"))
	if ifMatch != "" {
		if ifMatch == "*" {
			if existing == nil {
				writeStatus(w, http.StatusPreconditionFailed, "precondition failed")
				return
			}
		} else if existing == nil || existing.ETag != ifMatch {
			writeStatus(w, http.StatusPreconditionFailed, "precondition failed")
			return
		}
	}

	obj, isNew, err := h.store.UpsertObject(req.Context(), calendarID, uid, string(raw), fields.ObjectFields)
	if err != nil {
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}

	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	if isNew {
		w.WriteHeader(http.StatusCreated)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) handleDeleteObject(w http.ResponseWriter, req *http.Request, calendarID, uid string, perm model.Permission) {
	if perm != model.PermissionReadWrite {
		writeStatus(w, http.StatusForbidden, "forbidden")
		return
	}
	if err := h.store.DeleteObject(req.Context(), calendarID, uid); err != nil {
		if err == model.ErrNotFound {
			http.NotFound(w, req)
			return
		}
		writeStatus(w, http.StatusInternalServerError, "storage error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func trimETagQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
