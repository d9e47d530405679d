package sqlite

import (
	"database/sql"
	"errors"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// translate maps the sqlite driver's sql.ErrNoRows to the backend-agnostic
// model.ErrNotFound; every other error passes through unchanged.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}
