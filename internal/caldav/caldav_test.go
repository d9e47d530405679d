package caldav

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/model/modeltest"
)

func newTestHandlers(t *testing.T) (*Handlers, *modeltest.Store) {
	t.Helper()
	store := modeltest.New()
	h := New(store, zerolog.Nop(), "-//CalDAV MCP//Test//EN")
	return h, store
}

func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func doRequest(h *Handlers, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRootDiscoveryGetRedirectsSlashToCaldav(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/caldav/" {
		t.Errorf("Location = %q", loc)
	}
}

func TestRootDiscoveryPropfindAtSlashAnswersDirectly(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, "PROPFIND", "/", nil, map[string]string{"Depth": "0"})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
}

func TestRootDiscoveryUnauthenticatedStillAnswers(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, "PROPFIND", "/caldav/", nil, map[string]string{"Depth": "0"})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
}

func TestRootDiscoveryRejectsNonPropfind(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, http.MethodGet, "/caldav/", nil, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
}

func TestWellKnownCaldavRedirects(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, http.MethodGet, "/.well-known/caldav", nil, nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
}

func TestCaldavPrincipalsRedirectsToPrincipalHref(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, "PROPFIND", "/caldav/principals/alice", nil, nil)
	if w.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/caldav/users/alice/" {
		t.Errorf("Location = %q", loc)
	}
}

func TestPrincipalsPathServesRootDiscovery(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, "PROPFIND", "/principals", nil, nil)
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", w.Code)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, http.MethodGet, "/something/else", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestOptionsReturnsAllowHeader(t *testing.T) {
	h, _ := newTestHandlers(t)
	w := doRequest(h, http.MethodOptions, "/caldav/users/alice/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Allow") == "" {
		t.Error("Allow header should be set")
	}
}

func mustAddUser(t *testing.T, store *modeltest.Store, username, email, password string) *model.User {
	t.Helper()
	return store.AddUser(username, email, password)
}

func mustCreateCalendar(t *testing.T, store *modeltest.Store, id, ownerID, name string) *model.Calendar {
	t.Helper()
	cal, err := store.CreateCalendar(context.Background(), id, ownerID, name, "", "#fff", "UTC")
	if err != nil {
		t.Fatalf("CreateCalendar: %v", err)
	}
	return cal
}

func reqCtx() context.Context { return context.Background() }
