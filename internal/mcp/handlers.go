package mcp

import (
	"context"
	"encoding/json"
)

const protocolVersion = "2025-03-26"

// handleRequest dispatches one parsed JSON-RPC request and returns the
// response value to serialize, or nil for a notification with nothing to
// send back (§4.H).
func (s *Server) handleRequest(ctx context.Context, userID string, req *Request) any {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(userID, req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, userID, req)
	case "ping":
		return success(req.ID, map[string]any{})
	default:
		return methodNotFound(req.ID)
	}
}

func (s *Server) handleInitialize(userID string, req *Request) any {
	result := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    "caldav-mcp-server",
			"version": s.version,
		},
		"instructions": "This MCP server provides tools to manage CalDAV calendars and events. Use list_calendars to see available calendars, then create_event, query_events, etc. to manage events.",
	}
	return success(req.ID, result)
}

func (s *Server) handleToolsList(req *Request) any {
	defs := allTools(s.toolMode)
	tools := make([]map[string]any, 0, len(defs))
	for _, t := range defs {
		tools = append(tools, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	return success(req.ID, map[string]any{"tools": tools})
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, userID string, req *Request) any {
	var params toolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return invalidParams(req.ID, "malformed params")
		}
	}
	if params.Name == "" {
		return invalidParams(req.ID, "missing 'name' in params")
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	result, err := dispatch(ctx, s.store, s.prodID, s.toolMode, userID, params.Name, params.Arguments)
	if err != nil {
		return success(req.ID, map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": err.Error()},
			},
			"isError": true,
		})
	}

	pretty, merr := json.MarshalIndent(result, "", "  ")
	if merr != nil {
		pretty = []byte("{}")
	}
	return success(req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(pretty)},
		},
		"structuredContent": result,
		"isError":           false,
	})
}
