package mcp

import (
	"context"
	"fmt"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// ToolMode selects the tool registry exposed over tools/list (§4.I).
type ToolMode string

const (
	ToolModeFull   ToolMode = "full"
	ToolModeSimple ToolMode = "simple"
)

// ToolDef is one entry of a tools/list response.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// allTools returns the registry for the given mode: 12 tools in full mode,
// 3 in simple mode (§4.I).
func allTools(mode ToolMode) []ToolDef {
	if mode == ToolModeSimple {
		return toolDefsSimple()
	}
	tools := make([]ToolDef, 0, 12)
	tools = append(tools, toolDefsCalendars()...)
	tools = append(tools, toolDefsEvents()...)
	tools = append(tools, toolDefsSharing()...)
	return tools
}

// dispatch runs one tools/call against the store. Every error returned
// here is a domain error: the caller reports it as isError:true content,
// never as a JSON-RPC protocol error (§4.H).
func dispatch(ctx context.Context, store model.Store, prodID string, mode ToolMode, userID, name string, args map[string]any) (any, error) {
	if mode == ToolModeSimple {
		return dispatchSimple(ctx, store, prodID, userID, name, args)
	}

	switch name {
	case "list_calendars":
		return listCalendars(ctx, store, userID, args)
	case "get_calendar":
		return getCalendar(ctx, store, userID, args)
	case "create_calendar":
		return createCalendar(ctx, store, userID, args)
	case "delete_calendar":
		return deleteCalendarTool(ctx, store, userID, args)
	case "create_event":
		return createEvent(ctx, store, prodID, args)
	case "get_event":
		return getEvent(ctx, store, args)
	case "update_event":
		return updateEvent(ctx, store, prodID, args)
	case "delete_event":
		return deleteEvent(ctx, store, args)
	case "query_events":
		return queryEvents(ctx, store, args)
	case "share_calendar":
		return shareCalendar(ctx, store, args)
	case "unshare_calendar":
		return unshareCalendar(ctx, store, args)
	case "list_shared_calendars":
		return listSharedCalendars(ctx, store, userID, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return s, nil
}

func optionalString(args map[string]any, key, def string) string {
	v, ok := args[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func optionalInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}
