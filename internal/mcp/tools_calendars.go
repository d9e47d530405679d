package mcp

import (
	"context"
	"fmt"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

func toolDefsCalendars() []ToolDef {
	return []ToolDef{
		{
			Name:        "list_calendars",
			Description: "List all calendars accessible to the authenticated user (owned + shared)",
			InputSchema: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
			},
		},
		{
			Name:        "get_calendar",
			Description: "Get details about a specific calendar",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
				},
				"required":             []string{"calendar_id"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "create_calendar",
			Description: "Create a new calendar",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string", "description": "Calendar display name"},
					"description": map[string]any{"type": "string", "description": "Calendar description"},
					"color":       map[string]any{"type": "string", "description": "Calendar color (hex, e.g. #FF0000)"},
					"timezone":    map[string]any{"type": "string", "description": "Calendar timezone (e.g. America/New_York)"},
				},
				"required":             []string{"name"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "delete_calendar",
			Description: "Delete a calendar and all its events",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID to delete"},
				},
				"required":             []string{"calendar_id"},
				"additionalProperties": false,
			},
		},
	}
}

func listCalendars(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	owned, err := store.ListCalendarsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	shared, err := store.ListSharedCalendarsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	result := make([]map[string]any, 0, len(owned)+len(shared))
	for _, c := range append(owned, shared...) {
		result = append(result, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"description": c.Description,
			"color":       c.Color,
			"timezone":    c.Timezone,
			"owner_id":    c.OwnerID,
		})
	}
	return result, nil
}

func getCalendar(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	cal, err := store.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if cal == nil {
		return nil, fmt.Errorf("calendar not found")
	}
	return map[string]any{
		"id":          cal.ID,
		"name":        cal.Name,
		"description": cal.Description,
		"color":       cal.Color,
		"timezone":    cal.Timezone,
		"owner_id":    cal.OwnerID,
		"ctag":        cal.CTag,
	}, nil
}

func createCalendar(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	description := optionalString(args, "description", "")
	color := optionalString(args, "color", "#0E61B9")
	timezone := optionalString(args, "timezone", "UTC")

	cal, err := store.CreateCalendar(ctx, "", userID, name, description, color, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}
	return map[string]any{
		"id":          cal.ID,
		"name":        cal.Name,
		"description": cal.Description,
		"color":       cal.Color,
		"timezone":    cal.Timezone,
	}, nil
}

func deleteCalendarTool(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	if err := store.DeleteCalendar(ctx, calendarID); err != nil {
		return nil, fmt.Errorf("failed to delete calendar: %w", err)
	}
	return map[string]any{"deleted": true, "calendar_id": calendarID}, nil
}
