package icalshim

import (
	"bytes"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// NormalizeICS runs a best-effort parse-then-reencode pass over a PUT
// body ahead of ExtractFields, catching malformed blobs early — grounded
// on the teacher's pkg/ical/ical.go:NormalizeICS. A failure here is not
// fatal to the caller by itself: the caller decides whether to reject the
// original bytes or fall back to them (§4.F PUT still stores ical_data
// verbatim per §3).
func NormalizeICS(data []byte) ([]byte, error) {
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateUID mints a fresh "<uuidv7>@caldav-server" UID, the same form
// that internal/mcp's newEventUID mints for create_event / add_event, which
// never accept a client-chosen UID (SPEC_FULL.md "UID collision on create").
func GenerateUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String() + "@caldav-server"
}
