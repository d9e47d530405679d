package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/icalshim"
	"github.com/calendarserver/caldav-mcp/internal/model"
)

func toolDefsSimple() []ToolDef {
	return []ToolDef{
		{
			Name:        "add_event",
			Description: "Add a calendar event.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Event title"},
					"start":       map[string]any{"type": "string", "description": "Local start time in iCal format, e.g. 20260301T090000 (no Z suffix when timezone is provided)"},
					"end":         map[string]any{"type": "string", "description": "Local end time in iCal format, e.g. 20260301T100000"},
					"timezone":    map[string]any{"type": "string", "description": "IANA timezone name, e.g. America/Los_Angeles. Required for local time; omit only for explicit UTC (append Z to start/end)."},
					"description": map[string]any{"type": "string"},
					"location":    map[string]any{"type": "string"},
				},
				"required":             []string{"title", "start", "end"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "delete_event",
			Description: "Delete a calendar event by its UID.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"event_uid": map[string]any{"type": "string", "description": "Event UID to delete"},
				},
				"required":             []string{"event_uid"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "list_events",
			Description: "List upcoming calendar events. Optionally filter by time range.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start": map[string]any{"type": "string", "description": "Range start, e.g. 20260301T000000Z"},
					"end":   map[string]any{"type": "string", "description": "Range end, e.g. 20260331T235959Z"},
					"limit": map[string]any{"type": "integer", "description": "Max results (default 50)", "minimum": 1, "maximum": 500},
				},
				"additionalProperties": false,
			},
		},
	}
}

// resolveCalendar returns the first calendar owned by or shared with the
// user, creating the default "Calendar" one if none exist yet (§8 S6: the
// simple mode auto-creates a calendar on first use).
func resolveCalendar(ctx context.Context, store model.Store, userID string) (string, error) {
	owned, err := store.ListCalendarsForUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list calendars: %w", err)
	}
	if len(owned) > 0 {
		return owned[0].ID, nil
	}
	shared, err := store.ListSharedCalendarsForUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to list calendars: %w", err)
	}
	if len(shared) > 0 {
		return shared[0].ID, nil
	}

	cal, err := store.CreateCalendar(ctx, "", userID, "Calendar", "", "#0E61B9", "UTC")
	if err != nil {
		return "", fmt.Errorf("failed to create default calendar: %w", err)
	}
	return cal.ID, nil
}

func dispatchSimple(ctx context.Context, store model.Store, prodID, userID, name string, args map[string]any) (any, error) {
	switch name {
	case "add_event":
		return simpleAddEvent(ctx, store, prodID, userID, args)
	case "delete_event":
		return simpleDeleteEvent(ctx, store, userID, args)
	case "list_events":
		return simpleListEvents(ctx, store, userID, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func simpleAddEvent(ctx context.Context, store model.Store, prodID, userID string, args map[string]any) (any, error) {
	title, err := requiredString(args, "title")
	if err != nil {
		return nil, err
	}
	start, err := requiredString(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := requiredString(args, "end")
	if err != nil {
		return nil, err
	}
	description := optionalString(args, "description", "")
	location := optionalString(args, "location", "")
	timezone := optionalString(args, "timezone", "")

	calendarID, err := resolveCalendar(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	uid := newEventUID()
	icalData := icalshim.BuildVEvent(prodID, uid, title, start, end, description, location, timezone)

	obj, _, err := store.UpsertObject(ctx, calendarID, uid, icalData, model.ObjectFields{
		ComponentType: model.ComponentVEVENT,
		DTStart:       &start,
		DTEnd:         &end,
		Summary:       &title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return map[string]any{
		"uid":   obj.UID,
		"title": title,
		"start": start,
		"end":   end,
	}, nil
}

func simpleDeleteEvent(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	eventUID, err := requiredString(args, "event_uid")
	if err != nil {
		return nil, err
	}
	calendarID, err := resolveCalendar(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	if err := store.DeleteObject(ctx, calendarID, eventUID); err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	return map[string]any{"deleted": true, "event_uid": eventUID}, nil
}

func simpleListEvents(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	calendarID, err := resolveCalendar(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	limit := optionalInt(args, "limit", 50)
	start := optionalString(args, "start", "")
	end := optionalString(args, "end", "")

	var objs []*model.CalendarObject
	if start != "" && end != "" {
		startT, serr := time.Parse("20060102T150405Z", start)
		endT, eerr := time.Parse("20060102T150405Z", end)
		if serr != nil || eerr != nil {
			return nil, fmt.Errorf("bad time-range")
		}
		objs, err = store.ListObjectsInRange(ctx, calendarID, startT, endT)
	} else {
		objs, err = store.ListObjects(ctx, calendarID)
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if limit > 0 && len(objs) > limit {
		objs = objs[:limit]
	}

	events := make([]map[string]any, 0, len(objs))
	for _, obj := range objs {
		events = append(events, map[string]any{
			"uid":     obj.UID,
			"summary": obj.Summary,
			"start":   obj.DTStart,
			"end":     obj.DTEnd,
		})
	}

	return map[string]any{
		"count":  len(events),
		"events": events,
	}, nil
}
