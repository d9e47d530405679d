// Package httpserver wires the model store and the two HTTP surfaces —
// CalDAV (§4.F) and MCP (§4.H) — into a pair of *http.Server processes
// sharing one Component A store.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/calendarserver/caldav-mcp/internal/caldav"
	"github.com/calendarserver/caldav-mcp/internal/config"
	"github.com/calendarserver/caldav-mcp/internal/mcp"
	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/calendarserver/caldav-mcp/internal/model/postgres"
	"github.com/calendarserver/caldav-mcp/internal/model/sqlite"
)

type Server struct {
	caldavHTTP *http.Server
	mcpHTTP    *http.Server
	store      model.Store
	logger     zerolog.Logger
}

// OpenStore dispatches on the DATABASE_URL scheme: "sqlite://" (default)
// or "postgres://" (§6's generalized DATABASE_URL, teacher's STORAGE_TYPE
// switch re-expressed as a URL scheme).
func OpenStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (model.Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		return sqlite.New(path, logger)
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.New(ctx, databaseURL, logger)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %s", databaseURL)
	}
}

func NewServer(cfg *config.Config, logger zerolog.Logger) (*Server, func(), error) {
	store, err := OpenStore(context.Background(), cfg.Storage.DatabaseURL, logger)
	if err != nil {
		return nil, nil, err
	}

	prodID := cfg.ICS.BuildProdID()

	caldavHandlers := caldav.New(store, logger, prodID)

	toolMode := mcp.ToolModeFull
	if cfg.MCP.ToolMode == "simple" {
		toolMode = mcp.ToolModeSimple
	}
	mcpServer := mcp.New(store, toolMode, prodID, cfg.ICS.Version, logger)

	srv := &Server{
		caldavHTTP: &http.Server{
			Addr:         cfg.HTTP.CalDAVAddr,
			Handler:      caldavHandlers,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		mcpHTTP: &http.Server{
			Addr:         cfg.HTTP.MCPAddr,
			Handler:      mcpServer.Routes(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		store:  store,
		logger: logger,
	}

	cleanup := func() { store.Close() }
	logger.Info().
		Str("caldav_addr", cfg.HTTP.CalDAVAddr).
		Str("mcp_addr", cfg.HTTP.MCPAddr).
		Str("tool_mode", cfg.MCP.ToolMode).
		Msg("server configured")
	return srv, cleanup, nil
}

// Start runs both listeners and blocks until either returns an error.
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	go func() {
		s.logger.Info().Str("addr", s.caldavHTTP.Addr).Msg("caldav listening")
		errCh <- s.caldavHTTP.ListenAndServe()
	}()
	go func() {
		s.logger.Info().Str("addr", s.mcpHTTP.Addr).Msg("mcp listening")
		errCh <- s.mcpHTTP.ListenAndServe()
	}()
	return <-errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	err1 := s.caldavHTTP.Shutdown(ctx)
	err2 := s.mcpHTTP.Shutdown(ctx)
	if err1 != nil {
		return err1
	}
	return err2
}
