package mcp

import (
	"context"
	"testing"

	"github.com/calendarserver/caldav-mcp/internal/model/modeltest"
)

const testProdID = "-//CalDAV MCP//Test//EN"

func TestAllToolsFullMode(t *testing.T) {
	tools := allTools(ToolModeFull)
	if len(tools) != 12 {
		t.Fatalf("full mode has %d tools, want 12", len(tools))
	}
}

func TestAllToolsSimpleMode(t *testing.T) {
	tools := allTools(ToolModeSimple)
	if len(tools) != 3 {
		t.Fatalf("simple mode has %d tools, want 3", len(tools))
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	store := modeltest.New()
	_, err := dispatch(context.Background(), store, testProdID, ToolModeFull, "u1", "not_a_tool", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown tool")
	}
}

func TestDispatchCalendarLifecycle(t *testing.T) {
	store := modeltest.New()
	user := store.AddUser("alice", "alice@example.com", "hunter2")
	ctx := context.Background()

	created, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "create_calendar", map[string]any{
		"name": "Work",
	})
	if err != nil {
		t.Fatalf("create_calendar: %v", err)
	}
	calMap := created.(map[string]any)
	calID := calMap["id"].(string)
	if calID == "" {
		t.Fatal("create_calendar did not return an id")
	}

	listed, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "list_calendars", map[string]any{})
	if err != nil {
		t.Fatalf("list_calendars: %v", err)
	}
	if l, ok := listed.([]map[string]any); !ok || len(l) != 1 {
		t.Fatalf("list_calendars = %v, want one entry", listed)
	}

	got, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "get_calendar", map[string]any{"calendar_id": calID})
	if err != nil {
		t.Fatalf("get_calendar: %v", err)
	}
	if got.(map[string]any)["name"] != "Work" {
		t.Errorf("get_calendar = %v", got)
	}

	if _, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "delete_calendar", map[string]any{"calendar_id": calID}); err != nil {
		t.Fatalf("delete_calendar: %v", err)
	}

	if _, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "get_calendar", map[string]any{"calendar_id": calID}); err == nil {
		t.Fatal("get_calendar should fail after delete_calendar")
	}
}

func TestDispatchGetCalendarMissingArg(t *testing.T) {
	store := modeltest.New()
	_, err := dispatch(context.Background(), store, testProdID, ToolModeFull, "u1", "get_calendar", map[string]any{})
	if err == nil {
		t.Fatal("expected an error for a missing calendar_id")
	}
}

func TestDispatchEventLifecycle(t *testing.T) {
	store := modeltest.New()
	user := store.AddUser("alice", "alice@example.com", "hunter2")
	ctx := context.Background()
	cal, err := store.CreateCalendar(ctx, "", user.ID, "Work", "", "#fff", "UTC")
	if err != nil {
		t.Fatalf("CreateCalendar: %v", err)
	}

	created, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "create_event", map[string]any{
		"calendar_id": cal.ID,
		"title":       "Standup",
		"start":       "20260301T090000Z",
		"end":         "20260301T093000Z",
	})
	if err != nil {
		t.Fatalf("create_event: %v", err)
	}
	uid := created.(map[string]any)["uid"].(string)
	if uid == "" {
		t.Fatal("create_event did not return a uid")
	}

	got, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "get_event", map[string]any{
		"calendar_id": cal.ID, "event_uid": uid,
	})
	if err != nil {
		t.Fatalf("get_event: %v", err)
	}
	if *got.(map[string]any)["summary"].(*string) != "Standup" {
		t.Errorf("get_event summary = %v", got)
	}

	updated, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "update_event", map[string]any{
		"calendar_id": cal.ID, "event_uid": uid,
		"title": "Standup (moved)", "start": "20260301T100000Z", "end": "20260301T103000Z",
	})
	if err != nil {
		t.Fatalf("update_event: %v", err)
	}
	if updated.(map[string]any)["title"] != "Standup (moved)" {
		t.Errorf("update_event = %v", updated)
	}

	queried, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "query_events", map[string]any{
		"calendar_id": cal.ID,
	})
	if err != nil {
		t.Fatalf("query_events: %v", err)
	}
	if queried.(map[string]any)["count"].(int) != 1 {
		t.Errorf("query_events = %v", queried)
	}

	if _, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "delete_event", map[string]any{
		"calendar_id": cal.ID, "event_uid": uid,
	}); err != nil {
		t.Fatalf("delete_event: %v", err)
	}

	if _, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "get_event", map[string]any{
		"calendar_id": cal.ID, "event_uid": uid,
	}); err == nil {
		t.Fatal("get_event should fail after delete_event")
	}
}

func TestDispatchQueryEventsTimeRange(t *testing.T) {
	store := modeltest.New()
	user := store.AddUser("alice", "", "hunter2")
	ctx := context.Background()
	cal, _ := store.CreateCalendar(ctx, "", user.ID, "Work", "", "#fff", "UTC")

	dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "create_event", map[string]any{
		"calendar_id": cal.ID, "title": "In range", "start": "20260301T090000Z", "end": "20260301T100000Z",
	})
	dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "create_event", map[string]any{
		"calendar_id": cal.ID, "title": "Out of range", "start": "20260501T090000Z", "end": "20260501T100000Z",
	})

	queried, err := dispatch(ctx, store, testProdID, ToolModeFull, user.ID, "query_events", map[string]any{
		"calendar_id": cal.ID,
		"start":       "20260301T000000Z",
		"end":         "20260302T000000Z",
	})
	if err != nil {
		t.Fatalf("query_events: %v", err)
	}
	if queried.(map[string]any)["count"].(int) != 1 {
		t.Errorf("query_events with range = %v, want count 1", queried)
	}
}

func TestDispatchSharing(t *testing.T) {
	store := modeltest.New()
	owner := store.AddUser("alice", "alice@example.com", "hunter2")
	other := store.AddUser("bob", "bob@example.com", "hunter3")
	ctx := context.Background()
	cal, _ := store.CreateCalendar(ctx, "", owner.ID, "Work", "", "#fff", "UTC")

	_, err := dispatch(ctx, store, testProdID, ToolModeFull, owner.ID, "share_calendar", map[string]any{
		"calendar_id": cal.ID, "username": "bob", "permission": "read",
	})
	if err != nil {
		t.Fatalf("share_calendar: %v", err)
	}

	shared, err := dispatch(ctx, store, testProdID, ToolModeFull, other.ID, "list_shared_calendars", map[string]any{})
	if err != nil {
		t.Fatalf("list_shared_calendars: %v", err)
	}
	list, ok := shared.(map[string]any)["shared_calendars"].([]map[string]any)
	if !ok || len(list) != 1 {
		t.Fatalf("list_shared_calendars = %v, want one entry", shared)
	}

	_, err = dispatch(ctx, store, testProdID, ToolModeFull, owner.ID, "unshare_calendar", map[string]any{
		"calendar_id": cal.ID, "username": "bob",
	})
	if err != nil {
		t.Fatalf("unshare_calendar: %v", err)
	}
}

func TestDispatchSimpleModeAutoCreatesCalendar(t *testing.T) {
	store := modeltest.New()
	user := store.AddUser("alice", "", "hunter2")
	ctx := context.Background()

	added, err := dispatch(ctx, store, testProdID, ToolModeSimple, user.ID, "add_event", map[string]any{
		"title": "Dentist", "start": "20260301T090000Z", "end": "20260301T100000Z",
	})
	if err != nil {
		t.Fatalf("add_event: %v", err)
	}
	uid := added.(map[string]any)["uid"].(string)
	if uid == "" {
		t.Fatal("add_event did not return a uid")
	}

	cals, err := store.ListCalendarsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListCalendarsForUser: %v", err)
	}
	if len(cals) != 1 {
		t.Fatalf("simple add_event should auto-create exactly one default calendar, got %d", len(cals))
	}

	listed, err := dispatch(ctx, store, testProdID, ToolModeSimple, user.ID, "list_events", map[string]any{})
	if err != nil {
		t.Fatalf("list_events: %v", err)
	}
	if listed.(map[string]any)["count"].(int) != 1 {
		t.Errorf("list_events = %v", listed)
	}

	if _, err := dispatch(ctx, store, testProdID, ToolModeSimple, user.ID, "delete_event", map[string]any{"event_uid": uid}); err != nil {
		t.Fatalf("delete_event: %v", err)
	}
}
