package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/calendarserver/caldav-mcp/internal/icalshim"
	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/google/uuid"
)

func toolDefsEvents() []ToolDef {
	return []ToolDef{
		{
			Name:        "create_event",
			Description: "Create a new calendar event",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The target calendar ID"},
					"title":       map[string]any{"type": "string", "description": "Event title/summary"},
					"start":       map[string]any{"type": "string", "description": "Start time (iCal format, e.g. 20260301T090000Z)"},
					"end":         map[string]any{"type": "string", "description": "End time (iCal format)"},
					"description": map[string]any{"type": "string", "description": "Event description"},
					"location":    map[string]any{"type": "string", "description": "Event location"},
				},
				"required":             []string{"calendar_id", "title", "start", "end"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_event",
			Description: "Get a specific event by its UID",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
					"event_uid":   map[string]any{"type": "string", "description": "The event UID"},
				},
				"required":             []string{"calendar_id", "event_uid"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "update_event",
			Description: "Update an existing event (replaces the entire event)",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
					"event_uid":   map[string]any{"type": "string", "description": "The event UID to update"},
					"title":       map[string]any{"type": "string", "description": "New event title"},
					"start":       map[string]any{"type": "string", "description": "New start time"},
					"end":         map[string]any{"type": "string", "description": "New end time"},
					"description": map[string]any{"type": "string", "description": "New description"},
					"location":    map[string]any{"type": "string", "description": "New location"},
				},
				"required":             []string{"calendar_id", "event_uid", "title", "start", "end"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "delete_event",
			Description: "Delete a calendar event",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
					"event_uid":   map[string]any{"type": "string", "description": "The event UID to delete"},
				},
				"required":             []string{"calendar_id", "event_uid"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "query_events",
			Description: "Query events in a calendar, optionally filtered by time range",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
					"start":       map[string]any{"type": "string", "description": "Range start (iCal format, e.g. 20260301T000000Z)"},
					"end":         map[string]any{"type": "string", "description": "Range end (iCal format)"},
					"limit":       map[string]any{"type": "integer", "description": "Max events to return (default 50)", "minimum": 1, "maximum": 500},
				},
				"required":             []string{"calendar_id"},
				"additionalProperties": false,
			},
		},
	}
}

// newEventUID mints a server-chosen UID for MCP-created events, matching
// the original generate_uid: a fresh UUIDv7 is always used regardless of
// any client-supplied title, unlike CalDAV PUT which honors the blob's UID.
func newEventUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String() + "@caldav-server"
}

func createEvent(ctx context.Context, store model.Store, prodID string, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
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

	uid := newEventUID()
	icalData := icalshim.BuildVEvent(prodID, uid, title, start, end, description, location, "")

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
		"uid":         obj.UID,
		"calendar_id": calendarID,
		"title":       title,
		"start":       start,
		"end":         end,
		"etag":        obj.ETag,
	}, nil
}

func getEvent(ctx context.Context, store model.Store, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	eventUID, err := requiredString(args, "event_uid")
	if err != nil {
		return nil, err
	}

	obj, err := store.GetObject(ctx, calendarID, eventUID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("event not found")
	}

	return map[string]any{
		"uid":         obj.UID,
		"calendar_id": obj.CalendarID,
		"summary":     obj.Summary,
		"dtstart":     obj.DTStart,
		"dtend":       obj.DTEnd,
		"etag":        obj.ETag,
		"ical_data":   obj.ICalData,
	}, nil
}

func updateEvent(ctx context.Context, store model.Store, prodID string, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	eventUID, err := requiredString(args, "event_uid")
	if err != nil {
		return nil, err
	}
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

	existing, err := store.GetObject(ctx, calendarID, eventUID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("event not found")
	}

	icalData := icalshim.BuildVEvent(prodID, eventUID, title, start, end, description, location, "")
	obj, _, err := store.UpsertObject(ctx, calendarID, eventUID, icalData, model.ObjectFields{
		ComponentType: model.ComponentVEVENT,
		DTStart:       &start,
		DTEnd:         &end,
		Summary:       &title,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return map[string]any{
		"uid":         obj.UID,
		"calendar_id": calendarID,
		"title":       title,
		"etag":        obj.ETag,
		"updated":     true,
	}, nil
}

func deleteEvent(ctx context.Context, store model.Store, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	eventUID, err := requiredString(args, "event_uid")
	if err != nil {
		return nil, err
	}
	if err := store.DeleteObject(ctx, calendarID, eventUID); err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	return map[string]any{"deleted": true, "event_uid": eventUID}, nil
}

func queryEvents(ctx context.Context, store model.Store, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	start := optionalString(args, "start", "")
	end := optionalString(args, "end", "")
	limit := optionalInt(args, "limit", 50)

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
			"dtstart": obj.DTStart,
			"dtend":   obj.DTEnd,
			"etag":    obj.ETag,
		})
	}

	return map[string]any{
		"calendar_id": calendarID,
		"count":       len(events),
		"events":      events,
	}, nil
}
