// Package icalshim is the Component B iCalendar shim: building a minimal
// VEVENT and extracting indexed fields from a raw blob, per §4.B. Unlike
// the teacher's full emersion/go-ical-backed parser, the extractor here is
// a hand-rolled line scanner, because §4.B mandates exact semantics (first
// ":" after the property name, verbatim storage, a closed VTIMEZONE table)
// that a general RFC 5545 parser would normalize away.
package icalshim

import "bytes"

// unfoldLines normalizes CRLF/CR to LF and rejoins RFC 5545 folded
// continuation lines (any line beginning with SPACE or HTAB is a
// continuation of the previous line), grounded on the teacher's
// detectICSComponent scanner in internal/dav/methods.go.
func unfoldLines(data []byte) []string {
	norm := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))
	raw := bytes.Split(norm, []byte("\n"))

	var out []string
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(out) > 0 {
				out[len(out)-1] += string(line[1:])
				continue
			}
		}
		out = append(out, string(line))
	}
	return out
}

// splitProp splits a single unfolded content line into its property name
// (ignoring any ";PARAM=..." segment) and its value, the text following
// the first ":" after the name (§4.B).
func splitProp(line string) (name, value string, ok bool) {
	colon := -1
	for i, r := range line {
		if r == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return "", "", false
	}
	namePart := line[:colon]
	value = line[colon+1:]
	if semi := indexByte(namePart, ';'); semi >= 0 {
		namePart = namePart[:semi]
	}
	return namePart, value, true
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
