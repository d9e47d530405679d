package postgres

import (
	"errors"

	"github.com/calendarserver/caldav-mcp/internal/model"
	"github.com/jackc/pgx/v5"
)

var errNoRows = model.ErrNotFound

// translate maps pgx's row-not-found sentinel to the backend-agnostic
// model.ErrNotFound; every other error passes through unchanged.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	return err
}
