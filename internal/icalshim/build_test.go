package icalshim

import (
	"strings"
	"testing"
)

func TestBuildVEventMinimal(t *testing.T) {
	out := BuildVEvent("-//Test//EN", "uid-1", "Lunch", "20260101T120000Z", "20260101T130000Z", "", "", "")

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"PRODID:-//Test//EN\r\n",
		"BEGIN:VEVENT\r\n",
		"UID:uid-1\r\n",
		"DTSTART:20260101T120000Z\r\n",
		"DTEND:20260101T130000Z\r\n",
		"SUMMARY:Lunch\r\n",
		"END:VEVENT\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\nfull output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "VTIMEZONE") {
		t.Error("no VTIMEZONE should be emitted when timezone is empty")
	}
	if strings.Contains(out, "DESCRIPTION") || strings.Contains(out, "LOCATION") {
		t.Error("optional fields left empty should not appear")
	}
}

func TestBuildVEventWithDescriptionAndLocation(t *testing.T) {
	out := BuildVEvent("-//Test//EN", "uid-2", "Offsite", "20260101T120000Z", "", "Quarterly planning", "HQ", "")
	if !strings.Contains(out, "DESCRIPTION:Quarterly planning\r\n") {
		t.Error("DESCRIPTION should be written when non-empty")
	}
	if !strings.Contains(out, "LOCATION:HQ\r\n") {
		t.Error("LOCATION should be written when non-empty")
	}
	if strings.Contains(out, "DTEND") {
		t.Error("DTEND should be omitted when dtend is empty")
	}
}

func TestBuildVEventWithTimezone(t *testing.T) {
	out := BuildVEvent("-//Test//EN", "uid-3", "Call", "20260101T090000", "20260101T100000", "", "", "America/New_York")

	if !strings.Contains(out, "BEGIN:VTIMEZONE\r\n") {
		t.Fatal("VTIMEZONE block expected when timezone is set")
	}
	if !strings.Contains(out, "TZID:America/New_York\r\n") {
		t.Error("TZID should match the requested timezone")
	}
	if !strings.Contains(out, "DTSTART;TZID=America/New_York:20260101T090000\r\n") {
		t.Error("DTSTART should carry the TZID parameter")
	}
	if !strings.Contains(out, "DTEND;TZID=America/New_York:20260101T100000\r\n") {
		t.Error("DTEND should carry the TZID parameter")
	}
	if !strings.Contains(out, "BEGIN:DAYLIGHT\r\n") {
		t.Error("America/New_York has daylight saving, DAYLIGHT sub-component expected")
	}
}

func TestBuildVEventUnknownTimezoneFallsBackToUTC(t *testing.T) {
	out := BuildVEvent("-//Test//EN", "uid-4", "Mystery", "20260101T090000", "", "", "", "Mars/Colony")
	if !strings.Contains(out, "TZOFFSETTO:+0000\r\n") {
		t.Error("unknown zones should fall back to +0000")
	}
	if strings.Contains(out, "BEGIN:DAYLIGHT") {
		t.Error("unknown zones have no daylight entry")
	}
}

func TestGenerateUIDHasServerSuffix(t *testing.T) {
	uid := GenerateUID()
	if !strings.HasSuffix(uid, "@caldav-server") {
		t.Fatalf("GenerateUID() = %q, want suffix @caldav-server", uid)
	}
	if GenerateUID() == uid {
		t.Fatal("GenerateUID should mint a fresh value each call")
	}
}
