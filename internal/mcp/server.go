package mcp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

const maxRequestBody = 1 << 20 // 1 MiB, §4.H.

// Server joins Component H, the JSON-RPC 2.0 MCP transport, with the
// Component I tool registry over the shared calendar store. It authenticates every request with a bearer token
// (§4.H) and exposes the tool registry selected by toolMode (§4.I).
type Server struct {
	store    model.Store
	sessions *SessionManager
	toolMode ToolMode
	prodID   string
	version  string
	logger   zerolog.Logger
}

func New(store model.Store, toolMode ToolMode, prodID, version string, logger zerolog.Logger) *Server {
	return &Server{
		store:    store,
		sessions: NewSessionManager(),
		toolMode: toolMode,
		prodID:   prodID,
		version:  version,
		logger:   logger,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleMCP)
	return mux
}

func (s *Server) handleMCP(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		s.handlePost(w, req)
	case http.MethodGet:
		s.handleGet(w, req)
	case http.MethodDelete:
		s.handleDelete(w, req)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handlePost receives one JSON-RPC message (§4.H). A notification (no id)
// is processed but answered with a bare 202 Accepted.
func (s *Server) handlePost(w http.ResponseWriter, req *http.Request) {
	user := authenticateBearer(req.Context(), s.store, req.Header.Get("Authorization"))
	if user == nil {
		requireBearer(w)
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxRequestBody+1))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body) > maxRequestBody {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	var rpcReq Request
	if err := json.Unmarshal(body, &rpcReq); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(rpcError(nil, CodeParseError, "parse error: "+err.Error()))
		return
	}

	if rpcReq.IsNotification() {
		s.handleRequest(req.Context(), user.ID, &rpcReq)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	result := s.handleRequest(req.Context(), user.ID, &rpcReq)

	w.Header().Set("Content-Type", "application/json")
	if rpcReq.Method == "initialize" {
		w.Header().Set("Mcp-Session-Id", s.sessions.Create(user.ID))
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// handleGet serves the SSE placeholder for server-initiated messages; this
// server never pushes, so it sends the event-stream headers with no events
// and returns, which ends the response.
func (s *Server) handleGet(w http.ResponseWriter, req *http.Request) {
	if authenticateBearer(req.Context(), s.store, req.Header.Get("Authorization")) == nil {
		requireBearer(w)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, req *http.Request) {
	if sessionID := req.Header.Get("Mcp-Session-Id"); sessionID != "" {
		s.sessions.Remove(sessionID)
	}
	w.WriteHeader(http.StatusOK)
}
