// Package caldav is Component F: the CalDAV HTTP router, discovery
// endpoints, and the MKCALENDAR/PROPPATCH/PUT/GET/DELETE/REPORT method
// handlers (§4.F).
package caldav

import (
	"github.com/rs/zerolog"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

const davHeader = "1, 2, 3, calendar-access, calendar-schedule"
const allowHeader = "OPTIONS, GET, HEAD, PUT, DELETE, PROPFIND, PROPPATCH, REPORT, MKCALENDAR"

// Handlers holds the dependencies every route needs.
type Handlers struct {
	store  model.Store
	logger zerolog.Logger
	prodID string
}

func New(store model.Store, logger zerolog.Logger, prodID string) *Handlers {
	return &Handlers{store: store, logger: logger, prodID: prodID}
}
