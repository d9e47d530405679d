package icalshim

import (
	"fmt"
	"strings"
)

// BuildVEvent emits a CRLF-terminated VCALENDAR containing one VEVENT and,
// when timezone is non-empty, a minimal VTIMEZONE with STANDARD+DAYLIGHT
// sub-components (§4.B). dtstart/dtend are written bare (the caller is
// responsible for a trailing "Z" when they mean UTC) unless timezone is
// given, in which case they're parameterized with ";TZID=...".
func BuildVEvent(prodID, uid, summary, dtstart, dtend, description, location, timezone string) string {
	var b strings.Builder
	w := func(s string) { b.WriteString(s); b.WriteString("\r\n") }

	w("BEGIN:VCALENDAR")
	w("VERSION:2.0")
	w("PRODID:" + prodID)
	w("CALSCALE:GREGORIAN")

	if timezone != "" {
		writeVTimezone(&b, timezone)
	}

	w("BEGIN:VEVENT")
	w("UID:" + uid)
	if timezone != "" {
		w(fmt.Sprintf("DTSTART;TZID=%s:%s", timezone, dtstart))
		if dtend != "" {
			w(fmt.Sprintf("DTEND;TZID=%s:%s", timezone, dtend))
		}
	} else {
		w("DTSTART:" + dtstart)
		if dtend != "" {
			w("DTEND:" + dtend)
		}
	}
	w("SUMMARY:" + summary)
	if description != "" {
		w("DESCRIPTION:" + description)
	}
	if location != "" {
		w("LOCATION:" + location)
	}
	w("END:VEVENT")
	w("END:VCALENDAR")

	return b.String()
}

func writeVTimezone(b *strings.Builder, timezone string) {
	w := func(s string) { b.WriteString(s); b.WriteString("\r\n") }
	z := lookupZone(timezone)

	w("BEGIN:VTIMEZONE")
	w("TZID:" + timezone)
	w("BEGIN:STANDARD")
	w("DTSTART:19701101T020000")
	w("TZOFFSETFROM:" + firstNonEmpty(z.DaylightOffset, z.StandardOffset))
	w("TZOFFSETTO:" + z.StandardOffset)
	w("TZNAME:" + timezone + " Standard Time")
	w("END:STANDARD")
	if z.HasDaylight {
		w("BEGIN:DAYLIGHT")
		w("DTSTART:19700308T020000")
		w("TZOFFSETFROM:" + z.StandardOffset)
		w("TZOFFSETTO:" + z.DaylightOffset)
		w("TZNAME:" + timezone + " Daylight Time")
		w("END:DAYLIGHT")
	}
	w("END:VTIMEZONE")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
