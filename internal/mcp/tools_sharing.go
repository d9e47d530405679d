package mcp

import (
	"context"
	"fmt"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

func toolDefsSharing() []ToolDef {
	return []ToolDef{
		{
			Name:        "share_calendar",
			Description: "Share a calendar with another user",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID to share"},
					"username":    map[string]any{"type": "string", "description": "Username of the user to share with"},
					"permission":  map[string]any{"type": "string", "enum": []string{"read", "read-write"}, "description": "Access level to grant"},
				},
				"required":             []string{"calendar_id", "username", "permission"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "unshare_calendar",
			Description: "Revoke a user's access to a shared calendar",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"calendar_id": map[string]any{"type": "string", "description": "The calendar ID"},
					"username":    map[string]any{"type": "string", "description": "Username to revoke access from"},
				},
				"required":             []string{"calendar_id", "username"},
				"additionalProperties": false,
			},
		},
		{
			Name:        "list_shared_calendars",
			Description: "List calendars shared with the authenticated user",
			InputSchema: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
			},
		},
	}
}

func shareCalendar(ctx context.Context, store model.Store, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	username, err := requiredString(args, "username")
	if err != nil {
		return nil, err
	}
	permissionStr, err := requiredString(args, "permission")
	if err != nil {
		return nil, err
	}
	permission := model.Permission(permissionStr)
	if permission != model.PermissionRead && permission != model.PermissionReadWrite {
		return nil, fmt.Errorf("invalid permission value")
	}

	target, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("user '%s' not found", username)
	}

	share, err := store.ShareCalendar(ctx, calendarID, target.ID, permission)
	if err != nil {
		return nil, fmt.Errorf("failed to share calendar: %w", err)
	}

	return map[string]any{
		"calendar_id": share.CalendarID,
		"shared_with": username,
		"permission":  share.Permission,
	}, nil
}

func unshareCalendar(ctx context.Context, store model.Store, args map[string]any) (any, error) {
	calendarID, err := requiredString(args, "calendar_id")
	if err != nil {
		return nil, err
	}
	username, err := requiredString(args, "username")
	if err != nil {
		return nil, err
	}

	target, err := store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("user '%s' not found", username)
	}

	if err := store.UnshareCalendar(ctx, calendarID, target.ID); err != nil {
		return nil, fmt.Errorf("failed to unshare calendar: %w", err)
	}

	return map[string]any{"unshared": true, "calendar_id": calendarID, "username": username}, nil
}

func listSharedCalendars(ctx context.Context, store model.Store, userID string, args map[string]any) (any, error) {
	cals, err := store.ListSharedCalendarsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := make([]map[string]any, 0, len(cals))
	for _, c := range cals {
		perm, ok, err := store.GetAccess(ctx, c.ID, userID)
		if err != nil || !ok {
			continue
		}
		result = append(result, map[string]any{
			"id":       c.ID,
			"name":     c.Name,
			"owner_id": c.OwnerID,
			"permission": perm,
			"color":    c.Color,
		})
	}

	return map[string]any{"shared_calendars": result}, nil
}
