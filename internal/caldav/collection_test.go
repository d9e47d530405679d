package caldav

import (
	"net/http"
	"strings"
	"testing"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

func TestMkcalendarCreatesCalendarWithClientChosenID(t *testing.T) {
	h, store := newTestHandlers(t)
	mustAddUser(t, store, "alice", "alice@example.com", "hunter2")

	body := []byte(`<?xml version="1.0"?>
<C:mkcalendar xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:set><D:prop><D:displayname>Personal</D:displayname></D:prop></D:set>
</C:mkcalendar>`)

	w := doRequest(h, "MKCALENDAR", "/caldav/users/alice/personal/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}

	cal, err := store.GetCalendar(reqCtx(), "personal")
	if err != nil || cal == nil {
		t.Fatalf("expected calendar %q to be persisted with the client-chosen id", "personal")
	}
	if cal.Name != "Personal" {
		t.Errorf("name = %q, want Personal", cal.Name)
	}
}

func TestMkcalendarDuplicateIsRejected(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")

	w := doRequest(h, "MKCALENDAR", "/caldav/users/alice/work/", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405 for a duplicate MKCALENDAR", w.Code)
	}
}

func TestMkcalendarInAnotherUsersNamespaceIsForbidden(t *testing.T) {
	h, store := newTestHandlers(t)
	mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustAddUser(t, store, "bob", "bob@example.com", "hunter3")

	w := doRequest(h, "MKCALENDAR", "/caldav/users/bob/intrusion/", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestCollectionPropfindUnknownCalendarIs404(t *testing.T) {
	h, store := newTestHandlers(t)
	mustAddUser(t, store, "alice", "alice@example.com", "hunter2")

	w := doRequest(h, "PROPFIND", "/caldav/users/alice/nope/", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestCollectionPropfindForbiddenForNonOwnerNonSharee(t *testing.T) {
	h, store := newTestHandlers(t)
	owner := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustAddUser(t, store, "bob", "bob@example.com", "hunter3")
	mustCreateCalendar(t, store, "work", owner.ID, "Work")

	w := doRequest(h, "PROPFIND", "/caldav/users/bob/work/", nil, map[string]string{
		"Authorization": basicAuthHeader("bob", "hunter3"),
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body=%s", w.Code, w.Body.String())
	}
}

func TestCollectionPropfindDepth1ListsObjects(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	cal := mustCreateCalendar(t, store, "work", user.ID, "Work")

	putBody := []byte("BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nUID:ev1\r\nSUMMARY:Standup\r\nDTSTART:20260301T090000Z\r\nDTEND:20260301T093000Z\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n")
	w := doRequest(h, http.MethodPut, "/caldav/users/alice/work/ev1.ics", putBody, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT status = %d, want 201, body=%s", w.Code, w.Body.String())
	}
	_ = cal

	w = doRequest(h, "PROPFIND", "/caldav/users/alice/work/", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
		"Depth":         "1",
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ev1.ics") {
		t.Errorf("expected the object href in the listing, got %s", w.Body.String())
	}
}

func TestProppatchUpdatesDisplayName(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")

	body := []byte(`<?xml version="1.0"?>
<D:propertyupdate xmlns:D="DAV:">
  <D:set><D:prop><D:displayname>Renamed</D:displayname></D:prop></D:set>
</D:propertyupdate>`)
	w := doRequest(h, "PROPPATCH", "/caldav/users/alice/work/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}

	cal, err := store.GetCalendar(reqCtx(), "work")
	if err != nil || cal == nil {
		t.Fatalf("GetCalendar: %v", err)
	}
	if cal.Name != "Renamed" {
		t.Errorf("name = %q, want Renamed", cal.Name)
	}
}

func TestProppatchReadOnlyShareIsForbidden(t *testing.T) {
	h, store := newTestHandlers(t)
	owner := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	sharee := mustAddUser(t, store, "bob", "bob@example.com", "hunter3")
	cal := mustCreateCalendar(t, store, "work", owner.ID, "Work")
	if _, err := store.ShareCalendar(reqCtx(), cal.ID, sharee.ID, model.PermissionRead); err != nil {
		t.Fatalf("ShareCalendar: %v", err)
	}

	body := []byte(`<D:propertyupdate xmlns:D="DAV:"><D:set><D:prop><D:displayname>Hijacked</D:displayname></D:prop></D:set></D:propertyupdate>`)
	w := doRequest(h, "PROPPATCH", "/calendar/dav/bob%40example.com/user/work/", body, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteCalendarRequiresReadWrite(t *testing.T) {
	h, store := newTestHandlers(t)
	owner := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	sharee := mustAddUser(t, store, "bob", "bob@example.com", "hunter3")
	cal := mustCreateCalendar(t, store, "work", owner.ID, "Work")
	if _, err := store.ShareCalendar(reqCtx(), cal.ID, sharee.ID, model.PermissionRead); err != nil {
		t.Fatalf("ShareCalendar: %v", err)
	}

	w := doRequest(h, http.MethodDelete, "/calendar/dav/bob%40example.com/user/work/", nil, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for a read-only sharee", w.Code)
	}

	w = doRequest(h, http.MethodDelete, "/caldav/users/alice/work/", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 for the owner", w.Code)
	}

	if cal, err := store.GetCalendar(reqCtx(), "work"); err != nil || cal != nil {
		t.Errorf("calendar should be gone after delete, got %v err=%v", cal, err)
	}
}
