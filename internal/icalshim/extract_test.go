package icalshim

import (
	"strings"
	"testing"

	"github.com/calendarserver/caldav-mcp/internal/model"
)

func TestExtractFieldsVEvent(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"VERSION:2.0\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:event-1@example.com\r\n" +
		"DTSTART:20260101T090000Z\r\n" +
		"DTEND:20260101T100000Z\r\n" +
		"SUMMARY:Standup\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.UID == nil || *f.UID != "event-1@example.com" {
		t.Fatalf("UID = %v, want event-1@example.com", f.UID)
	}
	if f.ComponentType != model.ComponentVEVENT {
		t.Fatalf("ComponentType = %v, want VEVENT", f.ComponentType)
	}
	if f.DTStart == nil || *f.DTStart != "20260101T090000Z" {
		t.Fatalf("DTStart = %v", f.DTStart)
	}
	if f.DTEnd == nil || *f.DTEnd != "20260101T100000Z" {
		t.Fatalf("DTEnd = %v", f.DTEnd)
	}
	if f.Summary == nil || *f.Summary != "Standup" {
		t.Fatalf("Summary = %v", f.Summary)
	}
}

func TestExtractFieldsVTodoUsesDueAsDTEnd(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VTODO\r\n" +
		"UID:todo-1\r\n" +
		"DTSTART:20260102T000000Z\r\n" +
		"DUE:20260103T000000Z\r\n" +
		"SUMMARY:File taxes\r\n" +
		"END:VTODO\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.ComponentType != model.ComponentVTODO {
		t.Fatalf("ComponentType = %v, want VTODO", f.ComponentType)
	}
	if f.DTEnd == nil || *f.DTEnd != "20260103T000000Z" {
		t.Fatalf("DTEnd should fall back to DUE, got %v", f.DTEnd)
	}
}

func TestExtractFieldsVTodoPrefersExplicitDTEnd(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VTODO\r\n" +
		"UID:todo-2\r\n" +
		"DTEND:20260103T120000Z\r\n" +
		"DUE:20260104T000000Z\r\n" +
		"END:VTODO\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.DTEnd == nil || *f.DTEnd != "20260103T120000Z" {
		t.Fatalf("explicit DTEND should win over DUE, got %v", f.DTEnd)
	}
}

func TestExtractFieldsFoldedLine(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:folded-1\r\n" +
		"SUMMARY:This is a very long summary that has been\r\n" +
		" folded across two content lines per RFC 5545\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	want := "This is a very long summary that has beenfolded across two content lines per RFC 5545"
	if f.Summary == nil || *f.Summary != want {
		t.Fatalf("Summary = %v, want %q", f.Summary, want)
	}
}

func TestExtractFieldsIgnoresParams(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:params-1\r\n" +
		"DTSTART;TZID=America/New_York:20260101T090000\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.DTStart == nil || *f.DTStart != "20260101T090000" {
		t.Fatalf("DTStart = %v, want value after the parameterized property name", f.DTStart)
	}
}

func TestExtractFieldsUIDOutsideComponent(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"UID:top-level-uid\r\n" +
		"BEGIN:VEVENT\r\n" +
		"SUMMARY:No UID here\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.UID == nil || *f.UID != "top-level-uid" {
		t.Fatalf("UID should be picked up anywhere in the blob, got %v", f.UID)
	}
}

func TestExtractFieldsPropertiesOutsideComponentIgnored(t *testing.T) {
	ical := "BEGIN:VCALENDAR\r\n" +
		"SUMMARY:Not an event summary\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:u1\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"

	f := ExtractFields(ical)
	if f.Summary != nil {
		t.Fatalf("Summary outside VEVENT/VTODO must not be captured, got %v", f.Summary)
	}
}

func TestExtractFieldsCRLineEndings(t *testing.T) {
	ical := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:cr-only",
		"SUMMARY:CR endings",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r")

	f := ExtractFields(ical)
	if f.UID == nil || *f.UID != "cr-only" {
		t.Fatalf("bare CR line endings should be normalized, UID = %v", f.UID)
	}
	if f.Summary == nil || *f.Summary != "CR endings" {
		t.Fatalf("Summary = %v", f.Summary)
	}
}
