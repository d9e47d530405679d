package icalshim

import (
	"strings"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

// Fields is the result of ExtractFields: the UID (accepted anywhere in the
// blob) alongside the model's indexed ObjectFields.
type Fields struct {
	UID *string
	model.ObjectFields
}

// ExtractFields implements §4.B's extract_fields: a line-based RFC 5545
// scanner that pulls UID/DTSTART/DTEND/SUMMARY out of a VCALENDAR blob
// without expanding or validating it further.
func ExtractFields(ical string) Fields {
	lines := unfoldLines([]byte(ical))

	f := Fields{ObjectFields: model.ObjectFields{ComponentType: model.ComponentVEVENT}}
	var inVEvent, inVTodo bool
	var due *string

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		upper := strings.ToUpper(trimmed)

		switch {
		case upper == "BEGIN:VEVENT":
			inVEvent = true
			f.ComponentType = model.ComponentVEVENT
			continue
		case upper == "BEGIN:VTODO":
			inVTodo = true
			f.ComponentType = model.ComponentVTODO
			continue
		case upper == "END:VEVENT":
			inVEvent = false
			continue
		case upper == "END:VTODO":
			inVTodo = false
			continue
		}

		name, value, ok := splitProp(trimmed)
		if !ok {
			continue
		}
		name = strings.ToUpper(name)

		if name == "UID" {
			v := value
			f.UID = &v
			continue
		}

		if !inVEvent && !inVTodo {
			continue
		}

		switch name {
		case "DTSTART":
			v := value
			f.DTStart = &v
		case "DTEND":
			v := value
			f.DTEnd = &v
		case "DUE":
			v := value
			due = &v
		case "SUMMARY":
			v := value
			f.Summary = &v
		}
	}

	// DUE substitutes for DTEND on VTODO when DTEND is absent (§4.B).
	if f.ComponentType == model.ComponentVTODO && f.DTEnd == nil && due != nil {
		f.DTEnd = due
	}

	return f
}
