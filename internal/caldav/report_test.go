package caldav

import (
	"net/http"
	"strings"
	"testing"
)

func putEvent(t *testing.T, h *Handlers, path, uid, summary, dtstart, dtend string) {
	t.Helper()
	ics := "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nUID:" + uid + "\r\nSUMMARY:" + summary +
		"\r\nDTSTART:" + dtstart + "\r\nDTEND:" + dtend + "\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"
	w := doRequest(h, http.MethodPut, path, []byte(ics), map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT %s status = %d, want 201, body=%s", path, w.Code, w.Body.String())
	}
}

func TestReportCalendarMultiget(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "Standup", "20260301T090000Z", "20260301T093000Z")
	putEvent(t, h, "/caldav/users/alice/work/ev2.ics", "ev2", "Lunch", "20260301T120000Z", "20260301T130000Z")

	body := []byte(`<?xml version="1.0"?>
<C:calendar-multiget xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop><C:calendar-data/></D:prop>
  <D:href>/caldav/users/alice/work/ev1.ics</D:href>
</C:calendar-multiget>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Standup") {
		t.Errorf("multiget should include ev1's data, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "Lunch") {
		t.Errorf("multiget should not include ev2, got %s", w.Body.String())
	}
}

func TestReportCalendarQueryTimeRange(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "InRange", "20260301T090000Z", "20260301T100000Z")
	putEvent(t, h, "/caldav/users/alice/work/ev2.ics", "ev2", "OutOfRange", "20260501T090000Z", "20260501T100000Z")

	body := []byte(`<?xml version="1.0"?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop><C:calendar-data/></D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="20260301T000000Z" end="20260302T000000Z"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "InRange") {
		t.Errorf("query should include the in-range event, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "OutOfRange") {
		t.Errorf("query should exclude the out-of-range event, got %s", w.Body.String())
	}
}

func TestReportCalendarQueryWithoutTimeRangeReturnsAll(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "One", "20260301T090000Z", "20260301T100000Z")
	putEvent(t, h, "/caldav/users/alice/work/ev2.ics", "ev2", "Two", "20260501T090000Z", "20260501T100000Z")

	body := []byte(`<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop><C:calendar-data/></D:prop>
</C:calendar-query>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", w.Code)
	}
	if !strings.Contains(w.Body.String(), "One") || !strings.Contains(w.Body.String(), "Two") {
		t.Errorf("query without a time-range should return every object, got %s", w.Body.String())
	}
}

func TestReportSyncCollectionInitialSyncReturnsTokenAndAllObjects(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "One", "20260301T090000Z", "20260301T100000Z")

	body := []byte(`<D:sync-collection xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:sync-token/>
  <D:prop><C:calendar-data/></D:prop>
</D:sync-collection>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", body, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "sync-token") {
		t.Errorf("initial sync-collection response should carry a sync-token, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ev1.ics") {
		t.Errorf("initial sync should include every object, got %s", w.Body.String())
	}
}

func TestReportSyncCollectionIncrementalReflectsChanges(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "One", "20260301T090000Z", "20260301T100000Z")

	initial := []byte(`<D:sync-collection xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:sync-token/>
  <D:prop><C:calendar-data/></D:prop>
</D:sync-collection>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", initial, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	token := extractSyncToken(w.Body.String())
	if token == "" {
		t.Fatal("expected a sync-token in the initial response")
	}

	putEvent(t, h, "/caldav/users/alice/work/ev2.ics", "ev2", "Two", "20260301T110000Z", "20260301T120000Z")

	incremental := []byte(`<D:sync-collection xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:sync-token>` + token + `</D:sync-token>
  <D:prop><C:calendar-data/></D:prop>
</D:sync-collection>`)
	w = doRequest(h, "REPORT", "/caldav/users/alice/work/", incremental, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ev2.ics") {
		t.Errorf("incremental sync should include the newly-created object, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "ev1.ics") {
		t.Errorf("incremental sync should not replay an unchanged object, got %s", w.Body.String())
	}
}

func TestReportSyncCollectionDeletionIsTombstoned(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")
	putEvent(t, h, "/caldav/users/alice/work/ev1.ics", "ev1", "One", "20260301T090000Z", "20260301T100000Z")

	initial := []byte(`<D:sync-collection xmlns:D="DAV:"><D:sync-token/><D:prop xmlns:C="urn:ietf:params:xml:ns:caldav"><C:calendar-data/></D:prop></D:sync-collection>`)
	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", initial, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	token := extractSyncToken(w.Body.String())

	w = doRequest(h, http.MethodDelete, "/caldav/users/alice/work/ev1.ics", nil, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", w.Code)
	}

	incremental := []byte(`<D:sync-collection xmlns:D="DAV:"><D:sync-token>` + token + `</D:sync-token><D:prop xmlns:C="urn:ietf:params:xml:ns:caldav"><C:calendar-data/></D:prop></D:sync-collection>`)
	w = doRequest(h, "REPORT", "/caldav/users/alice/work/", incremental, map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "ev1.ics") {
		t.Errorf("deletion should still be reported as a tombstoned href, got %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "<D:propstat>") && strings.Contains(w.Body.String(), "calendar-data") {
		t.Errorf("tombstoned response should carry no calendar-data propstat, got %s", w.Body.String())
	}
}

func TestReportUnsupportedIsBadRequest(t *testing.T) {
	h, store := newTestHandlers(t)
	user := mustAddUser(t, store, "alice", "alice@example.com", "hunter2")
	mustCreateCalendar(t, store, "work", user.ID, "Work")

	w := doRequest(h, "REPORT", "/caldav/users/alice/work/", []byte(`<D:expand-property xmlns:D="DAV:"/>`), map[string]string{
		"Authorization": basicAuthHeader("alice", "hunter2"),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an unsupported report type", w.Code)
	}
}

func extractSyncToken(body string) string {
	start := strings.Index(body, "<D:sync-token>")
	if start == -1 {
		return ""
	}
	start += len("<D:sync-token>")
	end := strings.Index(body[start:], "</D:sync-token>")
	if end == -1 {
		return ""
	}
	return body[start : start+end]
}
